// Package service provides the activity log implementation
package service

import (
	"context"

	"tidepool/internal/modkit/repokit"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/platform/logger"
	"tidepool/internal/services/activitylog/domain"
)

const defaultListLimit = 100

// Svc implements domain.LogPort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.Repo]
	log    logger.Logger
}

var _ domain.LogPort = (*Svc)(nil)

// New constructs the activity log service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo]) *Svc {
	if db == nil {
		panic("activitylog.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("activitylog.Service requires a non-nil Repo binder")
	}
	return &Svc{db: db, binder: binder, log: *logger.Named("activitylog")}
}

// RecordFollow logs an outbound Follow, no-op when the id already exists
func (s *Svc) RecordFollow(ctx context.Context, e domain.Entry) error {
	if e.ID == "" || e.ActorURI == "" || e.ObjectURI == "" {
		return perr.Validationf("follow entry requires id, actor_uri, and object_uri")
	}
	e.Direction = domain.DirectionOut
	inserted, err := s.binder.Bind(s.db).Insert(ctx, e)
	if err != nil {
		return err
	}
	if !inserted {
		s.log.Debug().Str("id", e.ID).Msg("follow already recorded")
	}
	return nil
}

// FindActiveFollow returns the newest active Follow from actorURI to objectURI
func (s *Svc) FindActiveFollow(ctx context.Context, actorURI, objectURI string) (domain.Entry, bool, error) {
	return s.binder.Bind(s.db).FindActiveFollow(ctx, actorURI, objectURI)
}

// RecordUndo removes the active Follow and logs the Undo atomically
//
// The Follow row is deleted by its own id, so the pair is observably
// unfollowed the instant the transaction commits
func (s *Svc) RecordUndo(ctx context.Context, undo domain.Entry, actorURI, objectURI string) (domain.Entry, error) {
	var removed domain.Entry
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)

		follow, ok, err := repo.FindActiveFollow(ctx, actorURI, objectURI)
		if err != nil {
			return err
		}
		if !ok {
			return perr.NoActiveFollowf("no active follow from %s to %s", actorURI, objectURI)
		}
		if _, err := repo.DeleteByID(ctx, follow.ID); err != nil {
			return err
		}

		undo.Direction = domain.DirectionOut
		if _, err := repo.Insert(ctx, undo); err != nil {
			return err
		}
		removed = follow
		return nil
	})
	return removed, err
}

// RecordReceived logs an inbound activity, idempotent on its id
func (s *Svc) RecordReceived(ctx context.Context, e domain.Entry) error {
	if e.ID == "" {
		return perr.Validationf("received entry requires an id")
	}
	e.Direction = domain.DirectionIn
	_, err := s.binder.Bind(s.db).Insert(ctx, e)
	return err
}

// ListForActor returns entries touching actorURI, newest first
func (s *Svc) ListForActor(ctx context.Context, actorURI string, limit int) ([]domain.Entry, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.binder.Bind(s.db).ListForActor(ctx, actorURI, limit)
}
