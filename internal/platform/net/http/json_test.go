package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tidepool/internal/platform/testkit"
)

type toggleDTO struct {
	Handle string `json:"handle"`
}

func TestJSONHandler_Success(t *testing.T) {
	t.Parallel()

	h := JSONHandler[toggleDTO](func(_ *http.Request, in toggleDTO) (any, error) {
		return map[string]string{"resolved": in.Handle}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(`{"handle":"alice@remote.example"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	testkit.MustContain(t, rr.Body.String(), `"resolved":"alice@remote.example"`)
}

func TestJSONHandler_BindError(t *testing.T) {
	t.Parallel()

	h := JSONHandler[toggleDTO](func(_ *http.Request, _ toggleDTO) (any, error) {
		t.Fatal("handler should not be called on bind error")
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(`{`)) // invalid JSON
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h(rr, req)

	if rr.Code == http.StatusOK {
		t.Fatalf("expected non-200 on bind error, got %d", rr.Code)
	}
	testkit.MustContain(t, rr.Body.String(), "error")
}

func TestJSONHandler_HandlerError(t *testing.T) {
	t.Parallel()

	h := JSONHandler[toggleDTO](func(_ *http.Request, _ toggleDTO) (any, error) {
		return nil, errors.New("boom")
	})

	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(`{"handle":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h(rr, req)

	if rr.Code == http.StatusOK {
		t.Fatalf("expected non-200 on handler error, got %d", rr.Code)
	}
	testkit.MustContain(t, rr.Body.String(), "boom")
}

func TestJSONHandlerNoBody(t *testing.T) {
	t.Parallel()

	h := JSONHandlerNoBody(func(_ *http.Request) (any, error) {
		return map[string]int{"pagesLoaded": 2}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rr := httptest.NewRecorder()

	h(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	testkit.MustContain(t, rr.Body.String(), `"pagesLoaded":2`)
}
