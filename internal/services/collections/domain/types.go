// Package domain defines the core types and interfaces for the collections service
package domain

import (
	"context"

	"tidepool/internal/core/ap"
	perr "tidepool/internal/platform/errors"
)

// Page crawl bounds. Remote collections can be effectively unbounded, so
// every aggregation walks at most MaxPagesCap pages no matter what the
// caller asks for
const (
	DefaultMaxPages = 5
	MaxPagesCap     = 20
)

// Kind names a crawlable actor collection
type Kind string

const (
	// KindFollowers is an actor's followers collection
	KindFollowers Kind = "followers"

	// KindFollowing is an actor's following collection
	KindFollowing Kind = "following"
)

// ParseKind validates a raw collection kind
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindFollowers, KindFollowing:
		return Kind(raw), nil
	}
	return "", perr.Validationf("unknown collection type %q", raw)
}

// Aggregated is the flattened result of a bounded collection crawl
type Aggregated struct {
	// Items are the member URIs gathered across the crawled pages
	Items []string `json:"orderedItems"`

	// TotalItems is the size the root collection advertises; when the root
	// does not say, it falls back to the number of items actually gathered
	TotalItems int `json:"totalItems"`

	// PagesLoaded counts pages actually fetched and consumed. A value equal
	// to the page bound signals the result may be truncated; callers compare
	// it against the bound they asked for to detect truncation
	PagesLoaded int `json:"pagesLoaded"`
}

// AggregatorPort abstracts bounded collection crawling for other modules
type AggregatorPort interface {
	// Aggregate crawls the collection rooted at entryURL across at most
	// maxPages pages (clamped to [1, MaxPagesCap]; <=0 means DefaultMaxPages).
	// A page fetch failure or cancellation ends the crawl and returns what
	// was gathered so far; partial data is a success, not an error
	Aggregate(ctx context.Context, entryURL string, maxPages int) (Aggregated, error)

	// ForHandle resolves a handle, locates its kind collection, and aggregates it
	ForHandle(ctx context.Context, rawHandle string, kind Kind, maxPages int) (Aggregated, error)
}

// Fetcher abstracts the federation fetches aggregation needs
type Fetcher interface {
	Collection(ctx context.Context, uri string) (ap.Collection, error)
	Actor(ctx context.Context, uri string) (ap.Actor, error)
}
