// Package cache memoises consensus labels between identification appends.
// A cached label is only an optimisation: services must invalidate it
// whenever a subject's history grows, and a miss always falls back to
// recomputing from the store.
//
// Every subject carries a generation that Invalidate advances. A reader
// takes the generation from Get before loading the history and passes it
// back to Set, which refuses to store a label once the generation has
// moved on. A label computed from a history that was appended to
// concurrently is therefore never memoised.
package cache

import (
	"context"
	"strconv"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// Key addresses one subject of one occurrence.
type Key struct {
	OccurrenceID string
	SubjectIndex int
}

func (k Key) String() string {
	return k.OccurrenceID + "#" + strconv.Itoa(k.SubjectIndex)
}

// Entry is the result of a lookup. Generation is reported on hits and misses.
type Entry struct {
	Label      domain.ConsensusLabel
	Hit        bool
	Generation uint64
}

// ConsensusCache stores computed consensus labels keyed by subject.
type ConsensusCache interface {
	// Get returns the cached label, if any, and the subject's generation.
	Get(ctx context.Context, key Key) (Entry, error)

	// Set stores label only while the subject is still at generation gen.
	// It reports whether the label was stored.
	Set(ctx context.Context, key Key, gen uint64, label domain.ConsensusLabel) (bool, error)

	// Invalidate drops the label and advances the subject's generation.
	Invalidate(ctx context.Context, key Key) error
}
