package feed

import (
	"context"
	"fmt"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// Page is one source's slice of a feed, ordered newest first.
// Exhausted is true when the source has nothing beyond Occurrences.
type Page struct {
	Occurrences []domain.Occurrence
	Exhausted   bool
}

// Source produces a newest-first, cursor-bounded slice of occurrences from
// one underlying store predicate.
type Source interface {
	// Tag names the source for provenance, logs, and metrics.
	Tag() domain.SourceTag

	// FetchPage returns at most q.Limit occurrences strictly after q.After
	// (from the newest when nil) and created no earlier than q.Since.
	FetchPage(ctx context.Context, q domain.PageQuery) (Page, error)
}

// OwnerQuerier is the occurrence store predicate used by SocialGraphSource.
type OwnerQuerier interface {
	QueryByOwners(ctx context.Context, owners []string, q domain.PageQuery) ([]domain.Occurrence, bool, error)
}

// RadiusQuerier is the occurrence store predicate used by SpatialSource.
type RadiusQuerier interface {
	QueryByRadius(ctx context.Context, center domain.GeoPoint, radiusMeters float64, q domain.PageQuery) ([]domain.Occurrence, bool, error)
}

// ChronologicalQuerier is the occurrence store predicate used by ExploreSource.
type ChronologicalQuerier interface {
	QueryChronological(ctx context.Context, f domain.ExploreFilter, q domain.PageQuery) ([]domain.Occurrence, bool, error)
}

// SocialGraphSource returns occurrences owned by a caller-resolved set of
// followed identities.
type SocialGraphSource struct {
	Store  OwnerQuerier
	Owners []string
}

func (s SocialGraphSource) Tag() domain.SourceTag { return domain.SourceFollowing }

func (s SocialGraphSource) FetchPage(ctx context.Context, q domain.PageQuery) (Page, error) {
	if len(s.Owners) == 0 {
		return Page{Exhausted: true}, nil
	}
	occs, more, err := s.Store.QueryByOwners(ctx, s.Owners, q)
	if err != nil {
		return Page{}, fmt.Errorf("feed.SocialGraphSource.FetchPage: %w", err)
	}
	return Page{Occurrences: occs, Exhausted: !more}, nil
}

// SpatialSource returns occurrences within RadiusMeters of Center.
type SpatialSource struct {
	Store        RadiusQuerier
	Center       domain.GeoPoint
	RadiusMeters float64
}

func (s SpatialSource) Tag() domain.SourceTag { return domain.SourceNearby }

func (s SpatialSource) FetchPage(ctx context.Context, q domain.PageQuery) (Page, error) {
	occs, more, err := s.Store.QueryByRadius(ctx, s.Center, s.RadiusMeters, q)
	if err != nil {
		return Page{}, fmt.Errorf("feed.SpatialSource.FetchPage: %w", err)
	}
	return Page{Occurrences: occs, Exhausted: !more}, nil
}

// ExploreSource returns the public chronological stream, optionally narrowed
// by name prefix and location.
type ExploreSource struct {
	Store  ChronologicalQuerier
	Filter domain.ExploreFilter
}

func (s ExploreSource) Tag() domain.SourceTag { return domain.SourceExplore }

func (s ExploreSource) FetchPage(ctx context.Context, q domain.PageQuery) (Page, error) {
	occs, more, err := s.Store.QueryChronological(ctx, s.Filter, q)
	if err != nil {
		return Page{}, fmt.Errorf("feed.ExploreSource.FetchPage: %w", err)
	}
	return Page{Occurrences: occs, Exhausted: !more}, nil
}
