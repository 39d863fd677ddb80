package service

import (
	"context"
	"testing"

	"tidepool/internal/core/ap"
	"tidepool/internal/core/fed"
	"tidepool/internal/modkit/repokit"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/services/resolver/domain"
)

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (fakeDB) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (f fakeDB) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error { return fn(f) }

type memRepo struct {
	byHandle map[string]domain.ActorDescriptor
	byID     map[string]domain.ActorDescriptor
}

func newMemRepo() *memRepo {
	return &memRepo{
		byHandle: map[string]domain.ActorDescriptor{},
		byID:     map[string]domain.ActorDescriptor{},
	}
}

func (m *memRepo) GetByHandle(_ context.Context, h string) (domain.ActorDescriptor, bool, error) {
	d, ok := m.byHandle[h]
	return d, ok, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (domain.ActorDescriptor, bool, error) {
	d, ok := m.byID[id]
	return d, ok, nil
}

func (m *memRepo) Upsert(_ context.Context, d domain.ActorDescriptor) error {
	m.byHandle[d.Handle] = d
	m.byID[d.ID] = d
	return nil
}

func (m *memRepo) binder() repokit.Binder[domain.Repo] {
	return repokit.BindFunc[domain.Repo](func(repokit.Queryer) domain.Repo { return m })
}

type fakeFetcher struct {
	wf       ap.WebFingerResponse
	wfErr    error
	actor    ap.Actor
	actorErr error
	calls    int
}

func (f *fakeFetcher) WebFinger(context.Context, string, string) (ap.WebFingerResponse, error) {
	f.calls++
	return f.wf, f.wfErr
}

func (f *fakeFetcher) Actor(context.Context, string) (ap.Actor, error) {
	f.calls++
	return f.actor, f.actorErr
}

func testFed(t *testing.T) fed.Context {
	t.Helper()
	fc, err := fed.New("https://tidepool.example", "https://tidepool.example/actor#main-key")
	if err != nil {
		t.Fatalf("fed: %v", err)
	}
	return fc
}

func TestResolve_LocalHitSkipsNetwork(t *testing.T) {
	repo := newMemRepo()
	local := domain.ActorDescriptor{
		ID:       "https://tidepool.example/alice",
		Handle:   "alice@tidepool.example",
		InboxURL: "https://tidepool.example/alice/inbox",
		Source:   domain.SourceLocal,
	}
	_ = repo.Upsert(context.Background(), local)

	fetch := &fakeFetcher{}
	svc := New(fakeDB{}, repo.binder(), fetch, testFed(t))

	for _, raw := range []string{"alice", "@alice", "alice@tidepool.example", "Alice@Tidepool.Example"} {
		d, err := svc.Resolve(context.Background(), raw)
		if err != nil {
			t.Fatalf("resolve %q: %v", raw, err)
		}
		if d.ID != local.ID {
			t.Fatalf("resolve %q: got %q", raw, d.ID)
		}
	}
	if fetch.calls != 0 {
		t.Fatalf("local resolution touched the network %d times", fetch.calls)
	}
}

func TestResolve_LocalMissIsNotFound(t *testing.T) {
	svc := New(fakeDB{}, newMemRepo().binder(), &fakeFetcher{}, testFed(t))
	_, err := svc.Resolve(context.Background(), "ghost")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestResolve_MalformedHandleFailsBeforeNetwork(t *testing.T) {
	fetch := &fakeFetcher{}
	svc := New(fakeDB{}, newMemRepo().binder(), fetch, testFed(t))
	_, err := svc.Resolve(context.Background(), "not-a-handle!!")
	if !perr.IsCode(err, perr.ErrorCodeMalformedHandle) {
		t.Fatalf("want malformed handle, got %v", err)
	}
	if fetch.calls != 0 {
		t.Fatalf("malformed handle reached the network")
	}
}

func TestResolve_RemoteCacheHitSkipsDiscovery(t *testing.T) {
	repo := newMemRepo()
	remote := domain.ActorDescriptor{
		ID:       "https://remote.example/users/bob",
		Handle:   "bob@remote.example",
		InboxURL: "https://remote.example/users/bob/inbox",
		Source:   domain.SourceRemote,
	}
	_ = repo.Upsert(context.Background(), remote)

	fetch := &fakeFetcher{}
	svc := New(fakeDB{}, repo.binder(), fetch, testFed(t))

	d, err := svc.Resolve(context.Background(), "bob@remote.example")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if d.ID != remote.ID || fetch.calls != 0 {
		t.Fatalf("cache hit misbehaved: id=%q calls=%d", d.ID, fetch.calls)
	}
}

func TestResolve_RemoteDiscovery_CanonicalHandleFromActorID(t *testing.T) {
	fetch := &fakeFetcher{
		wf: ap.WebFingerResponse{
			Subject: "acct:bob@alias.example",
			Links: []ap.WebFingerLink{
				{Rel: "self", Type: "application/activity+json", Href: "https://canonical.example/users/bob"},
			},
		},
		actor: ap.Actor{
			ID:                "https://canonical.example/users/bob",
			PreferredUsername: "bob",
			Inbox:             "https://canonical.example/users/bob/inbox",
			Endpoints:         &ap.Endpoints{SharedInbox: "https://canonical.example/inbox"},
		},
	}
	repo := newMemRepo()
	svc := New(fakeDB{}, repo.binder(), fetch, testFed(t))

	// queried via the alias domain, canonicalized from the actor id host
	d, err := svc.Resolve(context.Background(), "bob@alias.example")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if d.Handle != "bob@canonical.example" {
		t.Fatalf("handle not canonicalized from id host: %q", d.Handle)
	}
	if d.Source != domain.SourceRemote {
		t.Fatalf("source: %q", d.Source)
	}
	if d.DeliveryInbox() != "https://canonical.example/inbox" {
		t.Fatalf("shared inbox not preferred: %q", d.DeliveryInbox())
	}

	// Resolve does not write; caching is the caller's explicit choice
	if len(repo.byID) != 0 {
		t.Fatalf("resolve wrote to the store")
	}
	if err := svc.SaveRemote(context.Background(), d); err != nil {
		t.Fatalf("save remote: %v", err)
	}
	if _, ok := repo.byID[d.ID]; !ok {
		t.Fatalf("save remote did not persist")
	}
}

func TestResolve_WebFingerWithoutProfileLinkIsProtocolError(t *testing.T) {
	fetch := &fakeFetcher{
		wf: ap.WebFingerResponse{Subject: "acct:bob@remote.example"},
	}
	svc := New(fakeDB{}, newMemRepo().binder(), fetch, testFed(t))
	_, err := svc.Resolve(context.Background(), "bob@remote.example")
	if !perr.IsCode(err, perr.ErrorCodeProtocol) {
		t.Fatalf("want protocol error, got %v", err)
	}
}

func TestEnsureLocal_CreatesOnceThenReturnsExisting(t *testing.T) {
	repo := newMemRepo()
	svc := New(fakeDB{}, repo.binder(), &fakeFetcher{}, testFed(t))

	name := "Alice P"
	d, err := svc.EnsureLocal(context.Background(), "alice", &name)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if d.ID != "https://tidepool.example/alice" || d.Handle != "alice@tidepool.example" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	if d.Source != domain.SourceLocal {
		t.Fatalf("source: %q", d.Source)
	}

	again, err := svc.EnsureLocal(context.Background(), "alice", nil)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.DisplayName == nil || *again.DisplayName != name {
		t.Fatalf("second ensure replaced the existing row: %+v", again)
	}
}

func TestEnsureLocal_RejectsRemoteUsername(t *testing.T) {
	svc := New(fakeDB{}, newMemRepo().binder(), &fakeFetcher{}, testFed(t))
	if _, err := svc.EnsureLocal(context.Background(), "bob@remote.example", nil); err == nil {
		t.Fatalf("expected error")
	}
}
