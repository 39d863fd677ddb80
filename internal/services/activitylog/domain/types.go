// Package domain defines the core types and interfaces for the activity log
package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Direction records whether an entry was produced here or received on an inbox
type Direction string

const (
	// DirectionOut marks activities this instance authored
	DirectionOut Direction = "out"

	// DirectionIn marks activities received from remote servers
	DirectionIn Direction = "in"
)

// Entry is one logged activity
//
// The id is content-derived, so logically identical activities collapse onto
// one row and re-recording is a no-op rather than a duplicate
type Entry struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	ActorURI  string          `json:"actor_uri"`
	ObjectURI string          `json:"object_uri"`
	Direction Direction       `json:"direction"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// LogPort abstracts the activity log for other modules
type LogPort interface {
	// RecordFollow logs an outbound Follow. Recording the same follow twice
	// is a no-op; the content-derived id keeps at most one active Follow
	// per (actor, object) pair
	RecordFollow(ctx context.Context, e Entry) error

	// FindActiveFollow returns the newest active Follow from actorURI to objectURI
	FindActiveFollow(ctx context.Context, actorURI, objectURI string) (Entry, bool, error)

	// RecordUndo locates the active Follow from actorURI to objectURI,
	// removes it by its own id, and logs the Undo, all in one transaction.
	// It returns the removed Follow so callers can address the Undo at it.
	// With no active Follow it fails with a NoActiveFollow error
	RecordUndo(ctx context.Context, undo Entry, actorURI, objectURI string) (Entry, error)

	// RecordReceived logs an inbound activity, idempotent on its id
	RecordReceived(ctx context.Context, e Entry) error

	// ListForActor returns entries where actorURI is the actor or the object,
	// newest first, at most limit rows
	ListForActor(ctx context.Context, actorURI string, limit int) ([]Entry, error)
}

// Repo abstracts activity persistence
type Repo interface {
	// Insert writes an entry, reporting false when the id already existed
	Insert(ctx context.Context, e Entry) (bool, error)

	DeleteByID(ctx context.Context, id string) (bool, error)
	FindActiveFollow(ctx context.Context, actorURI, objectURI string) (Entry, bool, error)
	ListForActor(ctx context.Context, actorURI string, limit int) ([]Entry, error)
}
