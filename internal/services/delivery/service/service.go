// Package service provides the delivery transport implementation
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tidepool/internal/core/fed"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/platform/logger"
	"tidepool/internal/services/delivery/domain"
)

const (
	defaultMaxRetries = 3
	defaultRetryBase  = 500 * time.Millisecond
	backoffCap        = 30 * time.Second
)

// Options configures the delivery service
type Options struct {
	// Signer signs outbound posts; nil sends unsigned (dev mode)
	Signer fed.Signer

	// Retry config for transport errors and 5xx responses
	MaxRetries int
	RetryBase  time.Duration
}

// Svc implements domain.DelivererPort
type Svc struct {
	post  domain.Poster
	opts  Options
	log   logger.Logger
	sleep func(time.Duration)
}

var _ domain.DelivererPort = (*Svc)(nil)

// New constructs the delivery service
func New(post domain.Poster, opts Options) *Svc {
	if post == nil {
		panic("delivery.Service requires a non-nil Poster")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	return &Svc{post: post, opts: opts, log: *logger.Named("delivery"), sleep: time.Sleep}
}

// Deliver posts an activity document to a single inbox URL
//
// Transport errors and 5xx responses retry with exponential backoff up to
// MaxRetries; 4xx responses are permanent and fail immediately
func (s *Svc) Deliver(ctx context.Context, inboxURL string, activity []byte) (domain.Result, error) {
	res := domain.Result{AttemptID: uuid.NewString()}

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		status, err := s.post.PostJSON(ctx, inboxURL, activity, s.opts.Signer)
		res.Attempts++

		switch {
		case err != nil:
			if !s.shouldRetry(res.Attempts) {
				return res, perr.Wrapf(err, perr.ErrorCodeTransport,
					"delivery to %s failed after %d attempts", inboxURL, res.Attempts)
			}
		case status >= 200 && status <= 299:
			res.StatusCode = status
			s.log.Debug().Str("attempt_id", res.AttemptID).Str("inbox", inboxURL).
				Int("status", status).Int("attempts", res.Attempts).Msg("delivered")
			return res, nil
		case status >= 500:
			res.StatusCode = status
			if !s.shouldRetry(res.Attempts) {
				return res, perr.Transportf("inbox %s answered %d after %d attempts", inboxURL, status, res.Attempts)
			}
		default:
			res.StatusCode = status
			return res, perr.Protocolf("inbox %s rejected delivery with status %d", inboxURL, status)
		}

		back := s.backoff(res.Attempts - 1)
		s.log.Warn().Str("attempt_id", res.AttemptID).Str("inbox", inboxURL).
			Dur("retry_in", back).Int("attempt", res.Attempts).Msg("delivery retrying")
		s.sleep(back)
	}
}

func (s *Svc) shouldRetry(attempts int) bool {
	return attempts <= s.opts.MaxRetries
}

func (s *Svc) backoff(attempt int) time.Duration {
	ms := int64(s.opts.RetryBase / time.Millisecond)
	ms = ms << uint(attempt)
	if max := int64(backoffCap / time.Millisecond); ms > max {
		ms = max
	}
	return time.Duration(ms) * time.Millisecond
}
