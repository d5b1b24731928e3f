package handler

import (
	"net/http"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// ListResponse wraps list payloads so they can grow metadata later.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}

// GetOccurrence handles GET /occurrences?uri=.
func (s *Server) GetOccurrence(w http.ResponseWriter, r *http.Request) {
	var uri string
	if err := bind(r).required("uri", &uri).err; err != nil {
		badRequest(w, err.Error())
		return
	}

	occ, err := s.occurrences.Get(r.Context(), uri)
	if err != nil {
		writeServiceError(w, r, err, "occurrence not found")
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

// ListOccurrencesInBoundingBox handles GET /occurrences/bbox.
// Supports ?limit= (default 20, max 100).
func (s *Server) ListOccurrencesInBoundingBox(w http.ResponseWriter, r *http.Request) {
	var (
		box   domain.BoundingBox
		limit *int
	)
	err := bind(r).
		required("min_lat", &box.Min.Latitude).
		required("min_lng", &box.Min.Longitude).
		required("max_lat", &box.Max.Latitude).
		required("max_lng", &box.Max.Longitude).
		optional("limit", &limit).err
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	occs, err := s.occurrences.ListInBoundingBox(r.Context(), box, domain.NewLimit(limit))
	if err != nil {
		writeServiceError(w, r, err, "occurrence not found")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[domain.Occurrence]{Data: occs})
}
