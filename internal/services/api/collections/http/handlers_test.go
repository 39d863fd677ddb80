package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	perr "tidepool/internal/platform/errors"
	phttp "tidepool/internal/platform/net/http"
	coldomain "tidepool/internal/services/collections/domain"
)

type stubAggregator struct {
	gotHandle string
	gotKind   coldomain.Kind
	gotMax    int
}

func (a *stubAggregator) Aggregate(context.Context, string, int) (coldomain.Aggregated, error) {
	return coldomain.Aggregated{}, nil
}

func (a *stubAggregator) ForHandle(_ context.Context, handle string, kind coldomain.Kind, maxPages int) (coldomain.Aggregated, error) {
	a.gotHandle, a.gotKind, a.gotMax = handle, kind, maxPages
	if handle == "ghost@remote.example" {
		return coldomain.Aggregated{}, perr.NotFoundf("no actor %q", handle)
	}
	return coldomain.Aggregated{
		Items:       []string{"https://remote.example/users/a"},
		TotalItems:  1,
		PagesLoaded: 1,
	}, nil
}

func newTestServer(t *testing.T, agg *stubAggregator) *httptest.Server {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	r.Route("/collections", func(rr phttp.Router) {
		Register(rr, Ports{Aggregator: agg})
	})
	srv := httptest.NewServer(r.Mux())
	t.Cleanup(srv.Close)
	return srv
}

func TestGetCollection(t *testing.T) {
	agg := &stubAggregator{}
	srv := newTestServer(t, agg)

	resp, err := stdhttp.Get(srv.URL + "/collections/followers/bob@remote.example?maxPages=3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	var env struct {
		Data coldomain.Aggregated `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.TotalItems != 1 || len(env.Data.Items) != 1 {
		t.Fatalf("unexpected data: %+v", env.Data)
	}
	if agg.gotHandle != "bob@remote.example" || agg.gotKind != coldomain.KindFollowers || agg.gotMax != 3 {
		t.Fatalf("aggregator saw: %q %q %d", agg.gotHandle, agg.gotKind, agg.gotMax)
	}
}

func TestGetCollection_UnknownType(t *testing.T) {
	srv := newTestServer(t, &stubAggregator{})

	resp, err := stdhttp.Get(srv.URL + "/collections/outbox/bob@remote.example")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestGetCollection_UnknownHandle(t *testing.T) {
	srv := newTestServer(t, &stubAggregator{})

	resp, err := stdhttp.Get(srv.URL + "/collections/following/ghost@remote.example")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusNotFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}
