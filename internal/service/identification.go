package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/observ-ing/core-sub000/internal/cache"
	"github.com/observ-ing/core-sub000/internal/consensus"
	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/repo"
)

// SubmitIdentification is the input to IdentificationService.Submit.
type SubmitIdentification struct {
	OccurrenceID  string
	SubjectIndex  int
	IdentifierDID string

	// IsAgreement marks an agreement with the subject's current consensus.
	// ScientificName may then be empty; when set it must match the consensus
	// the identifier saw.
	IsAgreement    bool
	ScientificName string
	Comment        string
	Confidence     domain.Confidence
}

// HistoryItem is one identification of a subject's history together with
// whether a later identification by the same identifier superseded it.
type HistoryItem struct {
	domain.Identification
	Superseded bool `json:"superseded"`
}

// IdentificationService appends identifications and lists subject histories.
type IdentificationService struct {
	identifications repo.IdentificationRepo
	consensus       *ConsensusService
}

// NewIdentificationService constructs an IdentificationService. Consensus
// lookups for agreements and memo invalidation go through cs.
func NewIdentificationService(identifications repo.IdentificationRepo, cs *ConsensusService) *IdentificationService {
	return &IdentificationService{identifications: identifications, consensus: cs}
}

// Submit validates and appends an identification.
//
// For an agreement the subject's current consensus name is captured by value
// and stored as the identification's name; it is never re-resolved.
// Returns domain.ErrNotFound if the occurrence or subject does not exist and
// domain.ErrValidation for invalid input or an agreement with no consensus.
func (s *IdentificationService) Submit(ctx context.Context, in SubmitIdentification) (domain.Identification, error) {
	if err := validateSubmit(in); err != nil {
		return domain.Identification{}, err
	}

	ident := domain.Identification{
		OccurrenceID:   in.OccurrenceID,
		SubjectIndex:   in.SubjectIndex,
		IdentifierDID:  strings.TrimSpace(in.IdentifierDID),
		Kind:           domain.KindProposal,
		ScientificName: consensus.NormalizeName(in.ScientificName),
		Comment:        strings.TrimSpace(in.Comment),
		Confidence:     in.Confidence,
	}

	if in.IsAgreement {
		label, err := s.consensus.GetConsensus(ctx, in.OccurrenceID, in.SubjectIndex)
		if err != nil {
			return domain.Identification{}, fmt.Errorf("service.IdentificationService.Submit: %w", err)
		}
		if !label.HasConsensus() {
			return domain.Identification{}, fmt.Errorf("%w: subject has no consensus to agree with", domain.ErrValidation)
		}
		if ident.ScientificName != "" && ident.ScientificName != label.ScientificName {
			return domain.Identification{}, fmt.Errorf("%w: consensus is now %q", domain.ErrValidation, label.ScientificName)
		}
		ident.Kind = domain.KindAgreement
		ident.ScientificName = label.ScientificName
	} else if _, err := s.consensus.subject(ctx, in.OccurrenceID, in.SubjectIndex); err != nil {
		return domain.Identification{}, fmt.Errorf("service.IdentificationService.Submit: %w", err)
	}

	created, err := s.identifications.Append(ctx, ident)
	if err != nil {
		return domain.Identification{}, fmt.Errorf("service.IdentificationService.Submit: %w", err)
	}

	s.consensus.invalidate(ctx, cache.Key{OccurrenceID: created.OccurrenceID, SubjectIndex: created.SubjectIndex})
	return created, nil
}

// ListForSubject returns a subject's identifications oldest first with their
// supersession flags. Always returns a non-nil slice.
// Returns domain.ErrNotFound if the occurrence or subject does not exist.
func (s *IdentificationService) ListForSubject(ctx context.Context, occurrenceURI string, subjectIndex int) ([]HistoryItem, error) {
	occ, err := s.consensus.subject(ctx, occurrenceURI, subjectIndex)
	if err != nil {
		return nil, fmt.Errorf("service.IdentificationService.ListForSubject: %w", err)
	}

	idents, err := s.identifications.ListForSubject(ctx, occ.ID, subjectIndex)
	if err != nil {
		return nil, fmt.Errorf("service.IdentificationService.ListForSubject: %w", err)
	}

	byID := make(map[string]domain.Identification, len(idents))
	for _, i := range idents {
		byID[i.ID] = i
	}

	// Compute orders the history and marks supersession; reuse its view.
	label := consensus.Compute(consensus.Input{OccurrenceID: occ.ID, SubjectIndex: subjectIndex, History: idents})
	items := make([]HistoryItem, 0, len(label.History))
	for _, e := range label.History {
		items = append(items, HistoryItem{Identification: byID[e.IdentificationID], Superseded: e.Superseded})
	}
	return items, nil
}

// validateSubmit enforces the input rules that need no store access.
//   - The identifier must be a DID ("did:<method>:<id>").
//   - A proposal must name a taxon.
//   - Confidence must be unset or a known tier.
func validateSubmit(in SubmitIdentification) error {
	if strings.TrimSpace(in.OccurrenceID) == "" {
		return fmt.Errorf("%w: occurrence is required", domain.ErrValidation)
	}
	if in.SubjectIndex < 0 {
		return fmt.Errorf("%w: subject index must not be negative", domain.ErrValidation)
	}
	if !isDID(strings.TrimSpace(in.IdentifierDID)) {
		return fmt.Errorf("%w: identifier must be a DID", domain.ErrValidation)
	}
	if !in.IsAgreement && consensus.NormalizeName(in.ScientificName) == "" {
		return fmt.Errorf("%w: scientific name is required", domain.ErrValidation)
	}
	if !in.Confidence.Valid() {
		return fmt.Errorf("%w: unknown confidence %q", domain.ErrValidation, in.Confidence)
	}
	return nil
}

// isDID reports whether s has the shape did:<method>:<method-specific-id>.
func isDID(s string) bool {
	rest, ok := strings.CutPrefix(s, "did:")
	if !ok {
		return false
	}
	method, id, ok := strings.Cut(rest, ":")
	return ok && method != "" && id != ""
}
