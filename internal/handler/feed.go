package handler

import (
	"net/http"

	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/service"
)

// GetHomeFeed handles GET /feeds/home.
// The viewer is the caller named by X-Actor-DID; anonymous callers get the
// nearby source only. Supports ?lat=&lng=&radius_m=&cursor=&limit=.
func (s *Server) GetHomeFeed(w http.ResponseWriter, r *http.Request) {
	var (
		pt   pointParams
		page pageParams
	)
	b := bind(r)
	pt.bind(b)
	if err := page.bind(b).err; err != nil {
		badRequest(w, err.Error())
		return
	}
	loc, err := pt.point()
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	result, err := s.feeds.Home(r.Context(), service.HomeFeedRequest{
		ViewerDID:    r.Header.Get(actorHeader),
		Location:     loc,
		RadiusMeters: pt.radius(),
		Cursor:       page.cursor(),
		Limit:        page.limit(),
	})
	if err != nil {
		writeServiceError(w, r, err, "feed not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetExploreFeed handles GET /feeds/explore.
// Supports ?name_prefix=&lat=&lng=&radius_m=&cursor=&limit=.
func (s *Server) GetExploreFeed(w http.ResponseWriter, r *http.Request) {
	var (
		pt     pointParams
		page   pageParams
		prefix *string
	)
	b := bind(r).optional("name_prefix", &prefix)
	pt.bind(b)
	if err := page.bind(b).err; err != nil {
		badRequest(w, err.Error())
		return
	}
	loc, err := pt.point()
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	filter := domain.ExploreFilter{Near: loc, RadiusMeters: pt.radius()}
	if prefix != nil {
		filter.NamePrefix = *prefix
	}

	result, err := s.feeds.Explore(r.Context(), service.ExploreFeedRequest{
		Filter: filter,
		Cursor: page.cursor(),
		Limit:  page.limit(),
	})
	if err != nil {
		writeServiceError(w, r, err, "feed not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
