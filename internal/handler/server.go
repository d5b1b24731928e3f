// Package handler implements the HTTP surface of the occurrence core.
// All handlers are methods on Server. Methods are split into
// resource-specific files (health.go, consensus.go, feed.go, etc.) but all
// share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/service"
)

// OccurrenceServicer defines the occurrence reads the handlers depend on.
// Defining the interfaces here, in the consumer package, lets handler tests
// inject mocks without touching the database or service layer.
type OccurrenceServicer interface {
	Get(ctx context.Context, uri string) (domain.Occurrence, error)
	ListInBoundingBox(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Occurrence, error)
}

// ConsensusServicer defines the consensus lookup.
type ConsensusServicer interface {
	GetConsensus(ctx context.Context, occurrenceURI string, subjectIndex int) (domain.ConsensusLabel, error)
}

// IdentificationServicer defines identification submission and history.
type IdentificationServicer interface {
	Submit(ctx context.Context, in service.SubmitIdentification) (domain.Identification, error)
	ListForSubject(ctx context.Context, occurrenceURI string, subjectIndex int) ([]service.HistoryItem, error)
}

// FeedServicer defines the two composed feeds.
type FeedServicer interface {
	Home(ctx context.Context, req service.HomeFeedRequest) (domain.FeedPage, error)
	Explore(ctx context.Context, req service.ExploreFeedRequest) (domain.FeedPage, error)
}

// Server holds the handler dependencies. Any of them may be nil when only a
// subset of routes is exercised, as in tests.
type Server struct {
	occurrences     OccurrenceServicer
	consensus       ConsensusServicer
	identifications IdentificationServicer
	feeds           FeedServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(
	occurrences OccurrenceServicer,
	consensus ConsensusServicer,
	identifications IdentificationServicer,
	feeds FeedServicer,
) *Server {
	return &Server{
		occurrences:     occurrences,
		consensus:       consensus,
		identifications: identifications,
		feeds:           feeds,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Handler returns a chi router with every route registered.
// Cross-cutting middleware is applied by the caller.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Get("/occurrences", s.GetOccurrence)
	r.Get("/occurrences/bbox", s.ListOccurrencesInBoundingBox)

	r.Get("/consensus", s.GetConsensus)
	r.Get("/identifications", s.ListIdentifications)
	r.Post("/identifications", s.SubmitIdentification)

	r.Get("/feeds/home", s.GetHomeFeed)
	r.Get("/feeds/explore", s.GetExploreFeed)
	return r
}
