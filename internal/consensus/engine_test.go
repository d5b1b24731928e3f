package consensus_test

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/observ-ing/core-sub000/internal/consensus"
	"github.com/observ-ing/core-sub000/internal/domain"
)

const occURI = "at://did:plc:observer/org.observ.ing.occurrence/3kabc"

var t0 = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

// ident builds a proposal created minute minutes after t0.
func ident(id, did, name string, minute int) domain.Identification {
	return domain.Identification{
		ID:             id,
		OccurrenceID:   occURI,
		IdentifierDID:  did,
		Kind:           domain.KindProposal,
		ScientificName: name,
		CreatedAt:      t0.Add(time.Duration(minute) * time.Minute),
	}
}

func agree(id, did, name string, minute int) domain.Identification {
	i := ident(id, did, name, minute)
	i.Kind = domain.KindAgreement
	return i
}

func compute(history ...domain.Identification) domain.ConsensusLabel {
	return consensus.Compute(consensus.Input{OccurrenceID: occURI, History: history})
}

func supersededByID(label domain.ConsensusLabel) map[string]bool {
	out := map[string]bool{}
	for _, e := range label.History {
		out[e.IdentificationID] = e.Superseded
	}
	return out
}

// TestCompute_WorkedExample covers the A/B/A sequence: A's first stance is
// superseded, both names end with one vote, and the older active stance wins.
func TestCompute_WorkedExample(t *testing.T) {
	label := compute(
		ident("a1", "did:plc:a", "Quercus alba", 1),
		ident("b1", "did:plc:b", "Quercus alba", 2),
		ident("a2", "did:plc:a", "Quercus rubra", 3),
	)

	assert.Equal(t, domain.LabelCommunity, label.Source)
	assert.Equal(t, "Quercus alba", label.ScientificName)
	assert.Equal(t, 1, label.AgreementCount)
	assert.Equal(t, map[string]bool{"a1": true, "b1": false, "a2": false}, supersededByID(label))
	assert.Equal(t, 2, label.ActiveCount())
}

func TestCompute_Majority(t *testing.T) {
	label := compute(
		ident("1", "did:plc:a", "Quercus rubra", 1),
		ident("2", "did:plc:b", "Quercus alba", 2),
		agree("3", "did:plc:c", "Quercus alba", 3),
	)

	assert.Equal(t, "Quercus alba", label.ScientificName)
	assert.Equal(t, 2, label.AgreementCount)
}

func TestCompute_Empty_NoConsensus(t *testing.T) {
	label := consensus.Compute(consensus.Input{OccurrenceID: occURI, SubjectIndex: 1, ObserverName: "Quercus alba"})

	assert.False(t, label.HasConsensus())
	assert.Equal(t, domain.LabelNone, label.Source)
	assert.Empty(t, label.ScientificName)
	assert.NotNil(t, label.History, "history should be an empty slice, not nil")
}

func TestCompute_Empty_Subject0_FallsBackToObserver(t *testing.T) {
	label := consensus.Compute(consensus.Input{OccurrenceID: occURI, ObserverName: "  Quercus   alba "})

	assert.Equal(t, domain.LabelObserver, label.Source)
	assert.Equal(t, "Quercus alba", label.ScientificName)
	assert.Zero(t, label.AgreementCount, "observer fallback is never counted as a stance")
	assert.Empty(t, label.History)
}

func TestCompute_Empty_Subject0_NoObserverName(t *testing.T) {
	label := consensus.Compute(consensus.Input{OccurrenceID: occURI})

	assert.Equal(t, domain.LabelNone, label.Source)
}

// TestCompute_ObserverNameIgnoredOnceIdentified verifies the fallback never
// competes with real identifications.
func TestCompute_ObserverNameIgnoredOnceIdentified(t *testing.T) {
	label := consensus.Compute(consensus.Input{
		OccurrenceID: occURI,
		ObserverName: "Quercus alba",
		History:      []domain.Identification{ident("1", "did:plc:a", "Quercus rubra", 1)},
	})

	assert.Equal(t, domain.LabelCommunity, label.Source)
	assert.Equal(t, "Quercus rubra", label.ScientificName)
	assert.Equal(t, 1, label.AgreementCount)
}

// TestCompute_AgreementKeepsCapturedName verifies an agreement counts for the
// name it captured even after the stance it agreed with moved elsewhere.
func TestCompute_AgreementKeepsCapturedName(t *testing.T) {
	label := compute(
		ident("1", "did:plc:a", "Quercus alba", 1),
		agree("2", "did:plc:b", "Quercus alba", 2),
		ident("3", "did:plc:a", "Quercus rubra", 3),
		ident("4", "did:plc:c", "Quercus rubra", 4),
	)

	assert.Equal(t, "Quercus rubra", label.ScientificName)
	assert.Equal(t, 2, label.AgreementCount)

	label = compute(
		ident("1", "did:plc:a", "Quercus alba", 1),
		agree("2", "did:plc:b", "Quercus alba", 2),
		ident("3", "did:plc:a", "Quercus rubra", 3),
	)
	assert.Equal(t, "Quercus alba", label.ScientificName, "b's agreement still names Quercus alba")
}

func TestCompute_NamesAreCaseSensitive(t *testing.T) {
	label := compute(
		ident("1", "did:plc:a", "quercus alba", 1),
		ident("2", "did:plc:b", "Quercus alba", 2),
		ident("3", "did:plc:c", "Quercus alba", 3),
	)

	assert.Equal(t, "Quercus alba", label.ScientificName)
	assert.Equal(t, 2, label.AgreementCount)
}

func TestCompute_WhitespaceNormalised(t *testing.T) {
	label := compute(
		ident("1", "did:plc:a", "Quercus  alba", 1),
		ident("2", "did:plc:b", " Quercus alba", 2),
	)

	assert.Equal(t, "Quercus alba", label.ScientificName)
	assert.Equal(t, 2, label.AgreementCount)
}

// TestCompute_TieOnTimestamp_BrokenByID covers two stances created in the same
// instant: the result must not depend on input order.
func TestCompute_TieOnTimestamp_BrokenByID(t *testing.T) {
	x := ident("x", "did:plc:a", "Quercus rubra", 1)
	y := ident("y", "did:plc:b", "Quercus alba", 1)

	assert.Equal(t, "Quercus rubra", compute(x, y).ScientificName)
	assert.Equal(t, "Quercus rubra", compute(y, x).ScientificName)
}

// TestCompute_Supersession checks that an identifier with N identifications
// has exactly its N-1 earliest superseded.
func TestCompute_Supersession(t *testing.T) {
	var history []domain.Identification
	for i := range 5 {
		history = append(history, ident(fmt.Sprintf("a%d", i), "did:plc:a", "Quercus alba", i*2))
		history = append(history, ident(fmt.Sprintf("b%d", i), "did:plc:b", "Quercus rubra", i*2+1))
	}
	history = append(history, ident("c0", "did:plc:c", "Acer rubrum", 3))

	got := supersededByID(compute(history...))

	for i := range 5 {
		assert.Equal(t, i < 4, got[fmt.Sprintf("a%d", i)], "a%d", i)
		assert.Equal(t, i < 4, got[fmt.Sprintf("b%d", i)], "b%d", i)
	}
	assert.False(t, got["c0"])
}

// TestCompute_Deterministic shuffles the same history repeatedly and expects
// byte-identical JSON every time.
func TestCompute_Deterministic(t *testing.T) {
	history := []domain.Identification{
		ident("1", "did:plc:a", "Quercus alba", 1),
		ident("2", "did:plc:b", "Quercus rubra", 1),
		ident("3", "did:plc:c", "Quercus rubra", 2),
		ident("4", "did:plc:a", "Quercus velutina", 3),
		agree("5", "did:plc:d", "Quercus alba", 3),
		ident("6", "did:plc:e", "Quercus alba", 5),
	}
	want, err := json.Marshal(compute(history...))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		shuffled := append([]domain.Identification(nil), history...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := json.Marshal(compute(shuffled...))
		require.NoError(t, err)
		require.JSONEq(t, string(want), string(got))
		require.Equal(t, want, got)
	}
}

// TestCompute_Monotonic adds one agreement for the current winner from a new
// identifier and from identifiers currently backing other names, and checks
// the winner never changes.
func TestCompute_Monotonic(t *testing.T) {
	base := []domain.Identification{
		ident("1", "did:plc:a", "Quercus alba", 1),
		ident("2", "did:plc:b", "Quercus rubra", 2),
		ident("3", "did:plc:c", "Quercus alba", 3),
		ident("4", "did:plc:d", "Quercus rubra", 4),
		ident("5", "did:plc:e", "Acer rubrum", 5),
	}
	before := compute(base...)
	require.Equal(t, "Quercus alba", before.ScientificName)

	for _, did := range []string{"did:plc:b", "did:plc:d", "did:plc:e", "did:plc:new"} {
		extra := agree("x-"+did, did, before.ScientificName, 10)
		after := compute(append(append([]domain.Identification(nil), base...), extra)...)

		assert.Equal(t, before.ScientificName, after.ScientificName, "agreement from %s", did)
		assert.Equal(t, before.AgreementCount+1, after.AgreementCount)
	}
}

// TestCompute_DoesNotMutateInput verifies the caller's slice order survives.
func TestCompute_DoesNotMutateInput(t *testing.T) {
	history := []domain.Identification{
		ident("2", "did:plc:b", "Quercus alba", 2),
		ident("1", "did:plc:a", "Quercus alba", 1),
	}

	compute(history...)

	assert.Equal(t, "2", history[0].ID)
	assert.Equal(t, "1", history[1].ID)
}

func TestCompute_BlankNamesNeverWin(t *testing.T) {
	label := compute(ident("1", "did:plc:a", "   ", 1))

	assert.Equal(t, domain.LabelNone, label.Source)
	require.Len(t, label.History, 1)
	assert.False(t, label.History[0].Superseded)
}
