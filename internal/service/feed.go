package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/feed"
	"github.com/observ-ing/core-sub000/internal/repo"
)

// Feed names. A cursor minted by one feed is rejected by the other.
const (
	FeedHome    = "home"
	FeedExplore = "explore"
)

// HomeFeedRequest asks for one page of a viewer's home feed.
type HomeFeedRequest struct {
	// ViewerDID selects whose follows feed the social source; empty skips it.
	ViewerDID string

	// Location centres the nearby source; nil skips it.
	Location     *domain.GeoPoint
	RadiusMeters float64

	Cursor string
	Limit  int
}

// ExploreFeedRequest asks for one page of the public explore feed.
type ExploreFeedRequest struct {
	Filter domain.ExploreFilter
	Cursor string
	Limit  int
}

// FeedService builds source sets for the home and explore feeds and hands
// them to the composition engine.
type FeedService struct {
	occurrences   repo.OccurrenceRepo
	follows       repo.FollowRepo
	engine        *feed.Engine
	lookback      time.Duration
	defaultRadius float64
	now           func() time.Time
}

// FeedOption configures a FeedService.
type FeedOption func(*FeedService)

// WithLookback bounds a traversal to occurrences newer than now-d, with now
// taken on its first page. Zero leaves history unbounded.
func WithLookback(d time.Duration) FeedOption {
	return func(s *FeedService) { s.lookback = d }
}

// WithDefaultRadius sets the radius used when a request carries none.
func WithDefaultRadius(meters float64) FeedOption {
	return func(s *FeedService) { s.defaultRadius = meters }
}

// WithClock overrides the time source used for the look-back window.
func WithClock(now func() time.Time) FeedOption {
	return func(s *FeedService) { s.now = now }
}

// NewFeedService constructs a FeedService.
func NewFeedService(occurrences repo.OccurrenceRepo, follows repo.FollowRepo, engine *feed.Engine, opts ...FeedOption) *FeedService {
	s := &FeedService{
		occurrences:   occurrences,
		follows:       follows,
		engine:        engine,
		defaultRadius: 25_000,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Home composes the viewer's home feed from the occurrences of the accounts
// they follow and the occurrences near their location. The feed fails open:
// a failing source, including the follow lookup, is dropped from the page.
// With neither follows nor a location the page is empty and has no cursor.
func (s *FeedService) Home(ctx context.Context, req HomeFeedRequest) (domain.FeedPage, error) {
	if req.Location != nil && !req.Location.Valid() {
		return domain.FeedPage{}, fmt.Errorf("%w: location is out of range", domain.ErrValidation)
	}
	if req.RadiusMeters < 0 {
		return domain.FeedPage{}, fmt.Errorf("%w: radius must not be negative", domain.ErrValidation)
	}

	var sources []feed.Source

	if req.ViewerDID != "" {
		owners, err := s.follows.ListFollowed(ctx, req.ViewerDID)
		switch {
		case err != nil && ctx.Err() != nil:
			return domain.FeedPage{}, ctx.Err()
		case err != nil:
			slog.WarnContext(ctx, "feed source dropped", "feed", FeedHome, "source", domain.SourceFollowing, "error", err)
		case len(owners) > 0:
			sources = append(sources, feed.SocialGraphSource{Store: s.occurrences, Owners: owners})
		}
	}

	if req.Location != nil {
		sources = append(sources, feed.SpatialSource{
			Store:        s.occurrences,
			Center:       *req.Location,
			RadiusMeters: s.radius(req.RadiusMeters),
		})
	}

	page, err := s.engine.Compose(ctx, feed.Request{
		Feed:    FeedHome,
		Sources: sources,
		Policy:  feed.FailOpen,
		Cursor:  req.Cursor,
		Limit:   req.Limit,
		Since:   s.since(),
	})
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("service.FeedService.Home: %w", err)
	}
	return page, nil
}

// Explore composes the public chronological feed. It fails closed: any
// store failure returns domain.ErrSourceUnavailable.
func (s *FeedService) Explore(ctx context.Context, req ExploreFeedRequest) (domain.FeedPage, error) {
	filter := req.Filter
	if filter.Near != nil {
		if !filter.Near.Valid() {
			return domain.FeedPage{}, fmt.Errorf("%w: location is out of range", domain.ErrValidation)
		}
		if filter.RadiusMeters < 0 {
			return domain.FeedPage{}, fmt.Errorf("%w: radius must not be negative", domain.ErrValidation)
		}
		filter.RadiusMeters = s.radius(filter.RadiusMeters)
	}

	page, err := s.engine.Compose(ctx, feed.Request{
		Feed:    FeedExplore,
		Sources: []feed.Source{feed.ExploreSource{Store: s.occurrences, Filter: filter}},
		Policy:  feed.FailClosed,
		Cursor:  req.Cursor,
		Limit:   req.Limit,
		Since:   s.since(),
	})
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("service.FeedService.Explore: %w", err)
	}
	return page, nil
}

func (s *FeedService) since() time.Time {
	if s.lookback <= 0 {
		return time.Time{}
	}
	return s.now().Add(-s.lookback)
}

func (s *FeedService) radius(meters float64) float64 {
	if meters == 0 {
		return s.defaultRadius
	}
	return meters
}
