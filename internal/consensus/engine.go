// Package consensus derives the community-accepted label for one subject
// from its identification history.
//
// Compute is a pure function: it performs no I/O, never fails, and returns
// identical output for the same history in any order.
package consensus

import (
	"slices"
	"strings"
	"time"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// Input is the history of one (occurrence, subject) pair.
type Input struct {
	OccurrenceID string
	SubjectIndex int

	// History holds every identification for the subject, in any order.
	History []domain.Identification

	// ObserverName is the occurrence owner's declared name. It is only
	// consulted for subject 0 while History is empty.
	ObserverName string
}

// tally accumulates the active stances naming one scientific name.
type tally struct {
	name    string
	count   int
	firstAt time.Time
	firstID string
}

// Compute returns the consensus label for in.
//
// Each identifier's identifications are ordered by (created_at, id); all but
// the last are superseded. The remaining stances are tallied by normalised
// name and the name with the most stances wins. Ties go to the name whose
// earliest active stance is oldest.
func Compute(in Input) domain.ConsensusLabel {
	label := domain.ConsensusLabel{
		OccurrenceID: in.OccurrenceID,
		SubjectIndex: in.SubjectIndex,
		Source:       domain.LabelNone,
		History:      []domain.HistoryEntry{},
	}

	if len(in.History) == 0 {
		if in.SubjectIndex == 0 {
			if name := NormalizeName(in.ObserverName); name != "" {
				label.Source = domain.LabelObserver
				label.ScientificName = name
			}
		}
		return label
	}

	history := slices.Clone(in.History)
	slices.SortStableFunc(history, compareChronological)

	latest := make(map[string]int, len(history))
	for i, ident := range history {
		latest[ident.IdentifierDID] = i
	}

	tallies := map[string]*tally{}
	for i, ident := range history {
		name := NormalizeName(ident.ScientificName)
		superseded := latest[ident.IdentifierDID] != i
		label.History = append(label.History, domain.HistoryEntry{
			IdentificationID: ident.ID,
			IdentifierDID:    ident.IdentifierDID,
			ScientificName:   name,
			Superseded:       superseded,
		})
		if superseded || name == "" {
			continue
		}
		// History is chronological, so the first stance seen per name is its earliest.
		t, ok := tallies[name]
		if !ok {
			t = &tally{name: name, firstAt: ident.CreatedAt, firstID: ident.ID}
			tallies[name] = t
		}
		t.count++
	}

	var winner *tally
	for _, t := range tallies {
		if winner == nil || beats(t, winner) {
			winner = t
		}
	}
	if winner == nil {
		return label
	}

	label.Source = domain.LabelCommunity
	label.ScientificName = winner.name
	label.AgreementCount = winner.count
	return label
}

// beats reports whether a should win over b.
func beats(a, b *tally) bool {
	if a.count != b.count {
		return a.count > b.count
	}
	if !a.firstAt.Equal(b.firstAt) {
		return a.firstAt.Before(b.firstAt)
	}
	if a.firstID != b.firstID {
		return a.firstID < b.firstID
	}
	return a.name < b.name
}

// compareChronological orders identifications by creation time, then id.
func compareChronological(a, b domain.Identification) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
