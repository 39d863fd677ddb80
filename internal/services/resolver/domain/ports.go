package domain

import (
	"context"

	"tidepool/internal/core/ap"
)

// ResolverPort abstracts identity resolution for other modules
type ResolverPort interface {
	// Resolve turns a raw handle into a descriptor: local store first, then
	// WebFinger discovery for remote handles. Resolve never writes; callers
	// that want the remote result cached call SaveRemote with it
	Resolve(ctx context.Context, rawHandle string) (ActorDescriptor, error)

	// SaveRemote caches a remotely discovered descriptor
	SaveRemote(ctx context.Context, d ActorDescriptor) error

	// EnsureLocal creates the local actor row if missing and returns it
	EnsureLocal(ctx context.Context, username string, displayName *string) (ActorDescriptor, error)
}

// Fetcher abstracts the federation fetches resolution needs
type Fetcher interface {
	WebFinger(ctx context.Context, username, domain string) (ap.WebFingerResponse, error)
	Actor(ctx context.Context, uri string) (ap.Actor, error)
}

// Repo abstracts actor persistence
type Repo interface {
	GetByHandle(ctx context.Context, handle string) (ActorDescriptor, bool, error)
	GetByID(ctx context.Context, id string) (ActorDescriptor, bool, error)
	Upsert(ctx context.Context, d ActorDescriptor) error
}
