// Package domain defines the core types and interfaces for delivery
package domain

import (
	"context"

	"tidepool/internal/core/fed"
)

// Result describes one completed delivery
type Result struct {
	// AttemptID tags the delivery for log correlation
	AttemptID string `json:"attempt_id"`

	// StatusCode is the final HTTP status the inbox returned
	StatusCode int `json:"status_code"`

	// Attempts counts posts actually made, retries included
	Attempts int `json:"attempts"`
}

// DelivererPort abstracts activity delivery for other modules
type DelivererPort interface {
	// Deliver posts an activity document to a single inbox URL.
	// Transient failures are retried with backoff inside the call; delivery
	// is at-least-once, so callers never roll back logged state on failure
	Deliver(ctx context.Context, inboxURL string, activity []byte) (Result, error)
}

// Poster abstracts the signed HTTP post delivery rides on
type Poster interface {
	PostJSON(ctx context.Context, url string, body []byte, signer fed.Signer) (int, error)
}
