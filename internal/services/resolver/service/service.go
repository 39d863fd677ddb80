// Package service provides the resolver service implementation
package service

import (
	"context"

	"tidepool/internal/core/fed"
	"tidepool/internal/core/handle"
	"tidepool/internal/modkit/repokit"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/platform/logger"
	"tidepool/internal/services/resolver/domain"
)

// Svc implements domain.ResolverPort
type Svc struct {
	db      repokit.TxRunner
	binder  repokit.Binder[domain.Repo]
	fetcher domain.Fetcher
	fed     fed.Context
	log     logger.Logger
}

var _ domain.ResolverPort = (*Svc)(nil)

// New constructs the resolver service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], fetcher domain.Fetcher, fc fed.Context) *Svc {
	if db == nil {
		panic("resolver.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("resolver.Service requires a non-nil Repo binder")
	}
	if fetcher == nil {
		panic("resolver.Service requires a non-nil Fetcher")
	}
	return &Svc{db: db, binder: binder, fetcher: fetcher, fed: fc, log: *logger.Named("resolver")}
}

// Resolve turns a raw handle into a descriptor
//
// Local handles and handles on our own domain are answered from the store
// without touching the network. Remote handles fall back to WebFinger plus a
// profile fetch only when the store has no row for the canonical handle
func (s *Svc) Resolve(ctx context.Context, rawHandle string) (domain.ActorDescriptor, error) {
	h, err := handle.Parse(rawHandle)
	if err != nil {
		return domain.ActorDescriptor{}, err
	}

	if h.IsLocal() || h.Domain == s.fed.Domain {
		d, ok, err := s.binder.Bind(s.db).GetByHandle(ctx, s.fed.Handle(h.Username))
		if err != nil {
			return domain.ActorDescriptor{}, err
		}
		if !ok {
			return domain.ActorDescriptor{}, perr.NotFoundf("no local actor %q", h.Username)
		}
		return d, nil
	}

	// cached remote rows short-circuit discovery
	if d, ok, err := s.binder.Bind(s.db).GetByHandle(ctx, h.String()); err != nil {
		return domain.ActorDescriptor{}, err
	} else if ok {
		return d, nil
	}

	return s.discover(ctx, h)
}

func (s *Svc) discover(ctx context.Context, h handle.Handle) (domain.ActorDescriptor, error) {
	wf, err := s.fetcher.WebFinger(ctx, h.Username, h.Domain)
	if err != nil {
		return domain.ActorDescriptor{}, err
	}
	profileURL, ok := wf.ActivityJSONLink()
	if !ok {
		return domain.ActorDescriptor{}, perr.Protocolf("webfinger for %s has no activity+json link", h)
	}

	actor, err := s.fetcher.Actor(ctx, profileURL)
	if err != nil {
		return domain.ActorDescriptor{}, err
	}
	d, ok := domain.DescriptorFromActor(actor)
	if !ok {
		return domain.ActorDescriptor{}, perr.Protocolf("actor document at %s is missing id, preferredUsername, or inbox", profileURL)
	}

	s.log.Debug().Str("handle", d.Handle).Str("id", d.ID).Msg("resolved remote actor")
	return d, nil
}

// SaveRemote caches a remotely discovered descriptor
func (s *Svc) SaveRemote(ctx context.Context, d domain.ActorDescriptor) error {
	if d.ID == "" || d.Handle == "" || d.InboxURL == "" {
		return perr.Validationf("descriptor requires id, handle, and inbox_url")
	}
	d.Source = domain.SourceRemote
	return s.binder.Bind(s.db).Upsert(ctx, d)
}

// EnsureLocal creates the local actor row if missing and returns it
func (s *Svc) EnsureLocal(ctx context.Context, username string, displayName *string) (domain.ActorDescriptor, error) {
	h, err := handle.Parse(username)
	if err != nil {
		return domain.ActorDescriptor{}, err
	}
	if !h.IsLocal() {
		return domain.ActorDescriptor{}, perr.Validationf("local username must not carry a domain")
	}

	d := domain.ActorDescriptor{
		ID:          s.fed.ActorURI(h.Username),
		Handle:      s.fed.Handle(h.Username),
		InboxURL:    s.fed.InboxURI(h.Username),
		DisplayName: displayName,
		Source:      domain.SourceLocal,
	}

	var out domain.ActorDescriptor
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		if existing, ok, err := repo.GetByID(ctx, d.ID); err != nil {
			return err
		} else if ok {
			out = existing
			return nil
		}
		if err := repo.Upsert(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}
