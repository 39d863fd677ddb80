package fediverse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "tidepool/internal/platform/errors"
)

func TestGetJSON_DecodesAndSendsAccept(t *testing.T) {
	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", AcceptJRD)
		_, _ = w.Write([]byte(`{"subject":"acct:bob@remote.example"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{})
	var out struct {
		Subject string `json:"subject"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, AcceptJRD, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAccept != AcceptJRD {
		t.Fatalf("accept header: %q", gotAccept)
	}
	if out.Subject != "acct:bob@remote.example" {
		t.Fatalf("subject: %q", out.Subject)
	}
}

func TestGetJSON_NonSuccessIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	var out map[string]any
	err := c.GetJSON(context.Background(), srv.URL, AcceptActivityJSON, &out)
	if !perr.IsCode(err, perr.ErrorCodeProtocol) {
		t.Fatalf("want protocol error, got %v", err)
	}
}

func TestGetJSON_ConnectionRefusedIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Options{})
	var out map[string]any
	err := c.GetJSON(context.Background(), url, AcceptActivityJSON, &out)
	if !perr.IsCode(err, perr.ErrorCodeTransport) {
		t.Fatalf("want transport error, got %v", err)
	}
}

func TestGetJSON_CanceledContextSurfacesCtxErr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(Options{})
	var out map[string]any
	if err := c.GetJSON(ctx, srv.URL, AcceptActivityJSON, &out); err != context.Canceled {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

type headerSigner struct{ key, val string }

func (s headerSigner) Sign(req *http.Request) error {
	req.Header.Set(s.key, s.val)
	return nil
}

func TestPostJSON_SignsAndReturnsStatus(t *testing.T) {
	var gotSig, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("Signature")
		gotCT = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	status, err := c.PostJSON(context.Background(), srv.URL, []byte(`{}`), headerSigner{"Signature", "sig"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if status != http.StatusAccepted {
		t.Fatalf("status: %d", status)
	}
	if gotSig != "sig" || gotCT != AcceptActivityJSON {
		t.Fatalf("headers: sig=%q ct=%q", gotSig, gotCT)
	}
}
