package service

import (
	"context"
	"testing"
	"time"

	"tidepool/internal/core/fed"
	perr "tidepool/internal/platform/errors"
)

type scriptedPoster struct {
	// each entry is either an error or a status code
	statuses []int
	errs     []error
	calls    int
	bodies   [][]byte
}

func (p *scriptedPoster) PostJSON(_ context.Context, _ string, body []byte, _ fed.Signer) (int, error) {
	i := p.calls
	p.calls++
	p.bodies = append(p.bodies, body)
	if i < len(p.errs) && p.errs[i] != nil {
		return 0, p.errs[i]
	}
	if i < len(p.statuses) {
		return p.statuses[i], nil
	}
	return 200, nil
}

func newTestSvc(p *scriptedPoster, maxRetries int) *Svc {
	svc := New(p, Options{MaxRetries: maxRetries, RetryBase: time.Millisecond})
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestDeliver_SucceedsFirstTry(t *testing.T) {
	p := &scriptedPoster{statuses: []int{202}}
	svc := newTestSvc(p, 3)

	res, err := svc.Deliver(context.Background(), "https://remote.example/inbox", []byte(`{}`))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if res.StatusCode != 202 || res.Attempts != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.AttemptID == "" {
		t.Fatalf("missing attempt id")
	}
}

func TestDeliver_RetriesTransportErrorsThenSucceeds(t *testing.T) {
	p := &scriptedPoster{
		errs:     []error{perr.Transportf("reset"), perr.Transportf("reset"), nil},
		statuses: []int{0, 0, 200},
	}
	svc := newTestSvc(p, 3)

	res, err := svc.Deliver(context.Background(), "https://remote.example/inbox", []byte(`{}`))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if res.Attempts != 3 || res.StatusCode != 200 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDeliver_Retries5xxThenGivesUp(t *testing.T) {
	p := &scriptedPoster{statuses: []int{503, 503, 503, 503, 503}}
	svc := newTestSvc(p, 2)

	_, err := svc.Deliver(context.Background(), "https://remote.example/inbox", []byte(`{}`))
	if !perr.IsCode(err, perr.ErrorCodeTransport) {
		t.Fatalf("want transport error, got %v", err)
	}
	// initial attempt plus two retries
	if p.calls != 3 {
		t.Fatalf("posts made: %d", p.calls)
	}
}

func TestDeliver_4xxIsPermanent(t *testing.T) {
	p := &scriptedPoster{statuses: []int{403}}
	svc := newTestSvc(p, 5)

	res, err := svc.Deliver(context.Background(), "https://remote.example/inbox", []byte(`{}`))
	if !perr.IsCode(err, perr.ErrorCodeProtocol) {
		t.Fatalf("want protocol error, got %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("4xx retried: %d posts", p.calls)
	}
	if res.StatusCode != 403 {
		t.Fatalf("status: %d", res.StatusCode)
	}
}

func TestDeliver_CanceledContextStops(t *testing.T) {
	p := &scriptedPoster{}
	svc := newTestSvc(p, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Deliver(ctx, "https://remote.example/inbox", []byte(`{}`)); err != context.Canceled {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("posted after cancel")
	}
}
