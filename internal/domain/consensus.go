package domain

// LabelSource says where a ConsensusLabel's name came from.
type LabelSource string

const (
	// LabelNone means the subject has no identifications and no fallback applies.
	LabelNone LabelSource = "none"

	// LabelCommunity means the name won the tally of active stances.
	LabelCommunity LabelSource = "community"

	// LabelObserver means the observer's declared name for subject 0 was used
	// because nobody has identified the subject yet.
	LabelObserver LabelSource = "observer"
)

// HistoryEntry is one identification of a subject's history with its
// supersession state. Entries are ordered oldest first.
type HistoryEntry struct {
	IdentificationID string `json:"identification_id"`
	IdentifierDID    string `json:"identifier_did"`
	ScientificName   string `json:"scientific_name"`
	Superseded       bool   `json:"superseded"`
}

// ConsensusLabel is the derived community label for one subject.
// It is recomputed from the identification history and never stored as truth.
type ConsensusLabel struct {
	OccurrenceID string      `json:"occurrence_id"`
	SubjectIndex int         `json:"subject_index"`
	Source       LabelSource `json:"source"`

	// ScientificName is empty when Source is LabelNone.
	ScientificName string `json:"scientific_name,omitempty"`

	// AgreementCount is the number of active stances naming ScientificName.
	// The observer fallback never counts as a stance.
	AgreementCount int `json:"agreement_count"`

	History []HistoryEntry `json:"history"`
}

// HasConsensus reports whether the label carries a name.
func (l ConsensusLabel) HasConsensus() bool {
	return l.Source != LabelNone
}

// ActiveCount returns how many history entries are not superseded.
func (l ConsensusLabel) ActiveCount() int {
	n := 0
	for _, e := range l.History {
		if !e.Superseded {
			n++
		}
	}
	return n
}
