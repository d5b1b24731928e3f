package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/observ-ing/core-sub000/internal/cache"
	"github.com/observ-ing/core-sub000/internal/consensus"
	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/metrics"
	"github.com/observ-ing/core-sub000/internal/repo"
)

// ConsensusService derives consensus labels, memoising them between
// identification appends. A cache failure degrades to recomputation.
type ConsensusService struct {
	occurrences     repo.OccurrenceRepo
	identifications repo.IdentificationRepo
	cache           cache.ConsensusCache
	metrics         *metrics.Consensus
}

// NewConsensusService constructs a ConsensusService. c and m may be nil.
func NewConsensusService(
	occurrences repo.OccurrenceRepo,
	identifications repo.IdentificationRepo,
	c cache.ConsensusCache,
	m *metrics.Consensus,
) *ConsensusService {
	return &ConsensusService{occurrences: occurrences, identifications: identifications, cache: c, metrics: m}
}

// GetConsensus returns the consensus label for one subject.
// Returns domain.ErrNotFound if the occurrence or the subject index does not
// exist. A subject with no identifications is not an error; its label has
// Source domain.LabelNone (or the observer fallback for subject 0).
func (s *ConsensusService) GetConsensus(ctx context.Context, occurrenceURI string, subjectIndex int) (domain.ConsensusLabel, error) {
	occ, err := s.subject(ctx, occurrenceURI, subjectIndex)
	if err != nil {
		return domain.ConsensusLabel{}, fmt.Errorf("service.ConsensusService.GetConsensus: %w", err)
	}

	// The generation is read before the history so that an append racing
	// with this read makes the memo refuse the result.
	key := cache.Key{OccurrenceID: occ.ID, SubjectIndex: subjectIndex}
	entry, memo := s.cached(ctx, key)
	if entry.Hit {
		return entry.Label, nil
	}

	history, err := s.identifications.ListForSubject(ctx, occ.ID, subjectIndex)
	if err != nil {
		return domain.ConsensusLabel{}, fmt.Errorf("service.ConsensusService.GetConsensus: %w", err)
	}

	label := consensus.Compute(consensus.Input{
		OccurrenceID: occ.ID,
		SubjectIndex: subjectIndex,
		History:      history,
		ObserverName: occ.ScientificName,
	})

	if memo {
		s.store(ctx, key, entry.Generation, label)
	}
	return label, nil
}

// subject loads the occurrence and verifies it has the subject index.
func (s *ConsensusService) subject(ctx context.Context, occurrenceURI string, subjectIndex int) (domain.Occurrence, error) {
	if subjectIndex < 0 {
		return domain.Occurrence{}, fmt.Errorf("%w: subject index must not be negative", domain.ErrValidation)
	}
	occ, err := s.occurrences.GetByID(ctx, occurrenceURI)
	if err != nil {
		return domain.Occurrence{}, err
	}
	if !occ.HasSubject(subjectIndex) {
		return domain.Occurrence{}, fmt.Errorf("subject %d: %w", subjectIndex, domain.ErrNotFound)
	}
	return occ, nil
}

// cached looks the subject up in the memo. memo is false when there is no
// cache or it failed, in which case the result must not be stored.
func (s *ConsensusService) cached(ctx context.Context, key cache.Key) (entry cache.Entry, memo bool) {
	if s.cache == nil {
		return cache.Entry{}, false
	}
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "consensus cache get failed", "key", key.String(), "error", err)
		s.metrics.IncCacheLookup("error")
		return cache.Entry{}, false
	}
	if entry.Hit {
		s.metrics.IncCacheLookup("hit")
	} else {
		s.metrics.IncCacheLookup("miss")
	}
	return entry, true
}

func (s *ConsensusService) store(ctx context.Context, key cache.Key, gen uint64, label domain.ConsensusLabel) {
	stored, err := s.cache.Set(ctx, key, gen, label)
	if err != nil {
		slog.WarnContext(ctx, "consensus cache set failed", "key", key.String(), "error", err)
		return
	}
	if !stored {
		slog.DebugContext(ctx, "consensus cache set skipped: history changed during read", "key", key.String())
	}
}

// invalidate drops the memoised label for a subject after its history grew.
func (s *ConsensusService) invalidate(ctx context.Context, key cache.Key) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		slog.WarnContext(ctx, "consensus cache invalidate failed", "key", key.String(), "error", err)
	}
}
