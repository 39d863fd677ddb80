// Package domain defines the core types and interfaces for the follow engine
package domain

import (
	"context"

	perr "tidepool/internal/platform/errors"
)

// Action selects the direction of a relationship toggle
type Action string

const (
	// ActionFollow establishes the relationship
	ActionFollow Action = "follow"

	// ActionUnfollow tears the relationship down
	ActionUnfollow Action = "unfollow"
)

// ParseAction validates a raw action
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionFollow, ActionUnfollow:
		return Action(raw), nil
	}
	return "", perr.Validationf("unknown action %q", raw)
}

// Outcome describes a completed toggle
//
// Delivered reports whether the remote inbox accepted the activity. The log
// write is the source of truth; a failed delivery leaves the log intact and
// the activity eligible for re-send
type Outcome struct {
	ActivityID     string `json:"activity_id"`
	Type           string `json:"type"`
	TargetID       string `json:"target_id"`
	Delivered      bool   `json:"delivered"`
	DeliveryStatus int    `json:"delivery_status,omitempty"`
}

// EnginePort abstracts follow/unfollow orchestration for the HTTP layer
type EnginePort interface {
	Toggle(ctx context.Context, localUsername, targetHandle string, action Action) (Outcome, error)
}
