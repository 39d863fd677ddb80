// Package service provides the collections aggregation implementation
package service

import (
	"context"

	"tidepool/internal/core/fed"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/platform/logger"
	"tidepool/internal/services/collections/domain"
	resdomain "tidepool/internal/services/resolver/domain"
)

// Svc implements domain.AggregatorPort
type Svc struct {
	fetch domain.Fetcher
	res   resdomain.ResolverPort
	fed   fed.Context
	log   logger.Logger
}

var _ domain.AggregatorPort = (*Svc)(nil)

// New constructs the collections service
func New(fetch domain.Fetcher, res resdomain.ResolverPort, fc fed.Context) *Svc {
	if fetch == nil {
		panic("collections.Service requires a non-nil Fetcher")
	}
	if res == nil {
		panic("collections.Service requires a non-nil ResolverPort")
	}
	return &Svc{fetch: fetch, res: res, fed: fc, log: *logger.Named("collections")}
}

// Aggregate crawls the collection rooted at entryURL
//
// The root document is not counted as a page when it only links to its first
// page; a root that carries orderedItems itself is the first page. Once the
// root has been consumed, a failure or cancellation on a later page ends the
// crawl and the gathered prefix is returned without error; callers detect
// truncation by comparing pagesLoaded against the bound they asked for
func (s *Svc) Aggregate(ctx context.Context, entryURL string, maxPages int) (domain.Aggregated, error) {
	if maxPages <= 0 {
		maxPages = domain.DefaultMaxPages
	}
	if maxPages > domain.MaxPagesCap {
		maxPages = domain.MaxPagesCap
	}

	var agg domain.Aggregated
	total := -1

	root, err := s.fetch.Collection(ctx, entryURL)
	if err != nil {
		return agg, err
	}
	if root.TotalItems != nil {
		total = *root.TotalItems
	}

	next := root.FirstURL()
	if next == "" {
		// the root is itself a page
		agg.Items = append(agg.Items, root.ItemURIs()...)
		agg.PagesLoaded = 1
		next = root.NextURL()
	}

	for next != "" && agg.PagesLoaded < maxPages {
		if ctx.Err() != nil {
			break
		}
		page, err := s.fetch.Collection(ctx, next)
		if err != nil {
			s.log.Warn().Err(err).Str("url", next).Int("pages_loaded", agg.PagesLoaded).
				Msg("page fetch failed, returning partial aggregation")
			break
		}
		agg.Items = append(agg.Items, page.ItemURIs()...)
		agg.PagesLoaded++
		next = page.NextURL()
	}

	if total >= 0 {
		agg.TotalItems = total
	} else {
		agg.TotalItems = len(agg.Items)
	}
	return agg, nil
}

// ForHandle resolves a handle, locates its kind collection, and aggregates it
func (s *Svc) ForHandle(ctx context.Context, rawHandle string, kind domain.Kind, maxPages int) (domain.Aggregated, error) {
	d, err := s.res.Resolve(ctx, rawHandle)
	if err != nil {
		return domain.Aggregated{}, err
	}

	entry := ""
	if d.Source == resdomain.SourceLocal {
		entry = d.ID + "/" + string(kind)
	} else {
		actor, err := s.fetch.Actor(ctx, d.ID)
		if err != nil {
			return domain.Aggregated{}, err
		}
		switch kind {
		case domain.KindFollowers:
			entry = actor.Followers
		case domain.KindFollowing:
			entry = actor.Following
		}
		if entry == "" {
			return domain.Aggregated{}, perr.Protocolf("actor %s advertises no %s collection", d.ID, kind)
		}
	}
	return s.Aggregate(ctx, entry, maxPages)
}
