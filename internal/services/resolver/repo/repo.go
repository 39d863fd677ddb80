// Package repo provides Postgres bindings for the resolver domain.Repo
package repo

import (
	"context"

	"tidepool/internal/modkit/repokit"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/services/resolver/domain"
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

const descriptorCols = `
	id, handle, inbox_url, shared_inbox_url, display_name, summary, icon_url, public_key_pem, source`

func scanDescriptor(row repokit.Row) (domain.ActorDescriptor, error) {
	var d domain.ActorDescriptor
	err := row.Scan(
		&d.ID, &d.Handle, &d.InboxURL,
		&d.SharedInboxURL, &d.DisplayName, &d.Summary, &d.IconURL, &d.PublicKeyPEM,
		&d.Source,
	)
	return d, err
}

// GetByHandle looks up an actor by canonical handle
func (r *queries) GetByHandle(ctx context.Context, handle string) (domain.ActorDescriptor, bool, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+descriptorCols+`
		FROM actors
		WHERE handle = $1
	`, handle)
	d, err := scanDescriptor(row)
	if err != nil {
		if perr.IsNoRows(err) {
			return domain.ActorDescriptor{}, false, nil
		}
		return domain.ActorDescriptor{}, false, perr.FromPG(err)
	}
	return d, true, nil
}

// GetByID looks up an actor by its canonical URI
func (r *queries) GetByID(ctx context.Context, id string) (domain.ActorDescriptor, bool, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+descriptorCols+`
		FROM actors
		WHERE id = $1
	`, id)
	d, err := scanDescriptor(row)
	if err != nil {
		if perr.IsNoRows(err) {
			return domain.ActorDescriptor{}, false, nil
		}
		return domain.ActorDescriptor{}, false, perr.FromPG(err)
	}
	return d, true, nil
}

// Upsert writes a descriptor keyed by actor id, refreshing profile fields on conflict
func (r *queries) Upsert(ctx context.Context, d domain.ActorDescriptor) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO actors (
			id, handle, inbox_url, shared_inbox_url, display_name, summary, icon_url, public_key_pem, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			handle           = EXCLUDED.handle,
			inbox_url        = EXCLUDED.inbox_url,
			shared_inbox_url = EXCLUDED.shared_inbox_url,
			display_name     = EXCLUDED.display_name,
			summary          = EXCLUDED.summary,
			icon_url         = EXCLUDED.icon_url,
			public_key_pem   = EXCLUDED.public_key_pem,
			source           = EXCLUDED.source,
			updated_at       = now()
	`,
		d.ID, d.Handle, d.InboxURL,
		d.SharedInboxURL, d.DisplayName, d.Summary, d.IconURL, d.PublicKeyPEM,
		d.Source,
	)
	return perr.FromPG(err)
}
