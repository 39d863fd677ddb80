// Package repo provides Postgres bindings for the activity log domain.Repo
package repo

import (
	"context"

	"tidepool/internal/modkit/repokit"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/services/activitylog/domain"
)

type (
	// PG is a Postgres binder for domain.Repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

var _ domain.Repo = (*queries)(nil)

// NewPG returns a Postgres binder for Repo
func NewPG() repokit.Binder[domain.Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.Repo { return &queries{q: q} }

// Insert writes an entry, reporting false when the id already existed
func (r *queries) Insert(ctx context.Context, e domain.Entry) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO activities (id, type, actor_uri, object_uri, direction, raw)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.Type, e.ActorURI, e.ObjectURI, e.Direction, e.Raw)
	if err != nil {
		return false, perr.FromPG(err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteByID removes an entry by id
func (r *queries) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return false, perr.FromPG(err)
	}
	return tag.RowsAffected() == 1, nil
}

// FindActiveFollow returns the newest Follow from actorURI to objectURI
func (r *queries) FindActiveFollow(ctx context.Context, actorURI, objectURI string) (domain.Entry, bool, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, type, actor_uri, object_uri, direction, raw, created_at
		FROM activities
		WHERE type = 'Follow' AND actor_uri = $1 AND object_uri = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, actorURI, objectURI)
	var e domain.Entry
	if err := row.Scan(&e.ID, &e.Type, &e.ActorURI, &e.ObjectURI, &e.Direction, &e.Raw, &e.CreatedAt); err != nil {
		if perr.IsNoRows(err) {
			return domain.Entry{}, false, nil
		}
		return domain.Entry{}, false, perr.FromPG(err)
	}
	return e, true, nil
}

// ListForActor returns entries touching actorURI, newest first
func (r *queries) ListForActor(ctx context.Context, actorURI string, limit int) ([]domain.Entry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, type, actor_uri, object_uri, direction, raw, created_at
		FROM activities
		WHERE actor_uri = $1 OR object_uri = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, actorURI, limit)
	if err != nil {
		return nil, perr.FromPG(err)
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.Type, &e.ActorURI, &e.ObjectURI, &e.Direction, &e.Raw, &e.CreatedAt); err != nil {
			return nil, perr.FromPG(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPG(err)
	}
	return out, nil
}
