//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"tidepool/internal/platform/store"
	"tidepool/internal/services/resolver/domain"
)

const actorsDDL = `
	CREATE TABLE IF NOT EXISTS actors (
		id               TEXT PRIMARY KEY,
		handle           TEXT NOT NULL,
		inbox_url        TEXT NOT NULL,
		shared_inbox_url TEXT,
		display_name     TEXT,
		summary          TEXT,
		icon_url         TEXT,
		public_key_pem   TEXT,
		source           TEXT NOT NULL CHECK (source IN ('local', 'remote')),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS actors_handle_idx ON actors (handle);
`

// startPostgres launches a disposable Postgres and returns DSN + stop func
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestActorsRepo_Integration_UpsertAndLookups(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2},
	}, store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	if _, err := st.PG.Exec(ctx, actorsDDL); err != nil {
		t.Fatalf("schema: %v", err)
	}

	repo := NewPG().Bind(st.PG)
	shared := "https://remote.example/inbox"
	d := domain.ActorDescriptor{
		ID:             "https://remote.example/users/bob",
		Handle:         "bob@remote.example",
		InboxURL:       "https://remote.example/users/bob/inbox",
		SharedInboxURL: &shared,
		Source:         domain.SourceRemote,
	}
	if err := repo.Upsert(ctx, d); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok, err := repo.GetByHandle(ctx, "bob@remote.example")
	if err != nil || !ok {
		t.Fatalf("get by handle: ok=%v err=%v", ok, err)
	}
	if got.SharedInboxURL == nil || *got.SharedInboxURL != shared {
		t.Fatalf("shared inbox lost: %+v", got)
	}

	// upsert by id refreshes fields
	name := "Bob"
	d.DisplayName = &name
	if err := repo.Upsert(ctx, d); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, ok, err = repo.GetByID(ctx, d.ID)
	if err != nil || !ok {
		t.Fatalf("get by id: ok=%v err=%v", ok, err)
	}
	if got.DisplayName == nil || *got.DisplayName != name {
		t.Fatalf("display name not refreshed: %+v", got)
	}

	if _, ok, err := repo.GetByHandle(ctx, "nobody@remote.example"); err != nil || ok {
		t.Fatalf("miss should be (false, nil): ok=%v err=%v", ok, err)
	}
}
