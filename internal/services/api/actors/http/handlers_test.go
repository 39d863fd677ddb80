package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	phttp "tidepool/internal/platform/net/http"
	logdomain "tidepool/internal/services/activitylog/domain"
	fdomain "tidepool/internal/services/follow/domain"
	"tidepool/internal/services/inbox"
	resdomain "tidepool/internal/services/resolver/domain"

	perr "tidepool/internal/platform/errors"
)

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, raw string) (resdomain.ActorDescriptor, error) {
	if raw == "alice" {
		return resdomain.ActorDescriptor{
			ID:       "https://tidepool.example/alice",
			Handle:   "alice@tidepool.example",
			InboxURL: "https://tidepool.example/alice/inbox",
			Source:   resdomain.SourceLocal,
		}, nil
	}
	return resdomain.ActorDescriptor{}, perr.NotFoundf("no actor %q", raw)
}

func (stubResolver) SaveRemote(context.Context, resdomain.ActorDescriptor) error { return nil }

func (stubResolver) EnsureLocal(context.Context, string, *string) (resdomain.ActorDescriptor, error) {
	return resdomain.ActorDescriptor{}, nil
}

type stubEngine struct {
	gotUser   string
	gotTarget string
	gotAction fdomain.Action
}

func (e *stubEngine) Toggle(_ context.Context, user, target string, action fdomain.Action) (fdomain.Outcome, error) {
	e.gotUser, e.gotTarget, e.gotAction = user, target, action
	return fdomain.Outcome{ActivityID: "id-1", Type: "Follow", TargetID: target, Delivered: true}, nil
}

type stubLog struct{ entries []logdomain.Entry }

func (l *stubLog) RecordFollow(context.Context, logdomain.Entry) error { return nil }

func (l *stubLog) FindActiveFollow(context.Context, string, string) (logdomain.Entry, bool, error) {
	return logdomain.Entry{}, false, nil
}

func (l *stubLog) RecordUndo(_ context.Context, _ logdomain.Entry, _, _ string) (logdomain.Entry, error) {
	return logdomain.Entry{}, nil
}

func (l *stubLog) RecordReceived(_ context.Context, e logdomain.Entry) error {
	l.entries = append(l.entries, e)
	return nil
}

func (l *stubLog) ListForActor(context.Context, string, int) ([]logdomain.Entry, error) {
	return l.entries, nil
}

func newTestServer(t *testing.T, alg *stubLog, eng *stubEngine) *httptest.Server {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	r.Route("/actors", func(rr phttp.Router) {
		Register(rr, Ports{
			Resolver: stubResolver{},
			Engine:   eng,
			Log:      alg,
			Inbox:    inbox.New(alg),
		})
	})
	srv := httptest.NewServer(r.Mux())
	t.Cleanup(srv.Close)
	return srv
}

func TestGetActor(t *testing.T) {
	srv := newTestServer(t, &stubLog{}, &stubEngine{})

	resp, err := stdhttp.Get(srv.URL + "/actors/alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	var env struct {
		Data resdomain.ActorDescriptor `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Handle != "alice@tidepool.example" {
		t.Fatalf("handle: %q", env.Data.Handle)
	}
}

func TestGetActor_NotFound(t *testing.T) {
	srv := newTestServer(t, &stubLog{}, &stubEngine{})

	resp, err := stdhttp.Get(srv.URL + "/actors/ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusNotFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestPostActivity_TogglesFollow(t *testing.T) {
	eng := &stubEngine{}
	srv := newTestServer(t, &stubLog{}, eng)

	resp, err := stdhttp.Post(
		srv.URL+"/actors/alice/activity",
		"application/json",
		strings.NewReader(`{"handle":"bob@remote.example","activity":"follow"}`),
	)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if eng.gotUser != "alice" || eng.gotTarget != "bob@remote.example" || eng.gotAction != fdomain.ActionFollow {
		t.Fatalf("engine saw: %q %q %q", eng.gotUser, eng.gotTarget, eng.gotAction)
	}
}

func TestPostActivity_RejectsBadAction(t *testing.T) {
	srv := newTestServer(t, &stubLog{}, &stubEngine{})

	resp, err := stdhttp.Post(
		srv.URL+"/actors/alice/activity",
		"application/json",
		strings.NewReader(`{"handle":"bob@remote.example","activity":"block"}`),
	)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestPostInbox_DispatchesFollow(t *testing.T) {
	alg := &stubLog{}
	srv := newTestServer(t, alg, &stubEngine{})

	resp, err := stdhttp.Post(
		srv.URL+"/actors/alice/inbox",
		"application/activity+json",
		strings.NewReader(`{
			"id": "https://remote.example/act/1",
			"type": "Follow",
			"actor": "https://remote.example/users/bob",
			"object": "https://tidepool.example/alice"
		}`),
	)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusAccepted {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if len(alg.entries) != 1 {
		t.Fatalf("received entries: %d", len(alg.entries))
	}
}

func TestListActivities(t *testing.T) {
	alg := &stubLog{entries: []logdomain.Entry{{ID: "a", Type: "Follow"}}}
	srv := newTestServer(t, alg, &stubEngine{})

	resp, err := stdhttp.Get(srv.URL + "/actors/alice/activities?limit=5")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var env struct {
		Data []logdomain.Entry `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].ID != "a" {
		t.Fatalf("unexpected data: %+v", env.Data)
	}
}
