// Package service contains the business logic of the occurrence core.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/repo"
)

// OccurrenceService exposes read access to occurrences.
type OccurrenceService struct {
	occurrences repo.OccurrenceRepo
}

// NewOccurrenceService constructs an OccurrenceService backed by the provided repo.
func NewOccurrenceService(occurrences repo.OccurrenceRepo) *OccurrenceService {
	return &OccurrenceService{occurrences: occurrences}
}

// Get returns a single occurrence by URI.
// Returns domain.ErrNotFound if it does not exist.
func (s *OccurrenceService) Get(ctx context.Context, uri string) (domain.Occurrence, error) {
	if strings.TrimSpace(uri) == "" {
		return domain.Occurrence{}, fmt.Errorf("%w: occurrence uri is required", domain.ErrValidation)
	}
	occ, err := s.occurrences.GetByID(ctx, uri)
	if err != nil {
		return domain.Occurrence{}, fmt.Errorf("service.OccurrenceService.Get: %w", err)
	}
	return occ, nil
}

// ListInBoundingBox returns up to limit occurrences inside box, newest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *OccurrenceService) ListInBoundingBox(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Occurrence, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("%w: bounding box is out of range or inverted", domain.ErrValidation)
	}
	occs, _, err := s.occurrences.QueryBoundingBox(ctx, box, domain.PageQuery{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("service.OccurrenceService.ListInBoundingBox: %w", err)
	}
	if occs == nil {
		return []domain.Occurrence{}, nil
	}
	return occs, nil
}
