package domain

import "time"

// IdentificationKind tags what an identification carries.
type IdentificationKind string

const (
	// KindProposal is an identification naming a taxon directly.
	KindProposal IdentificationKind = "proposal"

	// KindAgreement is an identification agreeing with the subject's consensus.
	// The agreed name is captured by value when the identification is submitted
	// and is never re-resolved afterwards.
	KindAgreement IdentificationKind = "agreement"
)

// Confidence is the identifier's optional self-reported certainty.
type Confidence string

const (
	ConfidenceUnset  Confidence = ""
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid reports whether c is unset or one of the known tiers.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceUnset, ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// Identification is one identifier's proposed name for one subject.
// Identifications are immutable; a later identification by the same
// identifier for the same subject supersedes the earlier ones.
type Identification struct {
	ID            string             `json:"id"`
	OccurrenceID  string             `json:"occurrence_id"`
	SubjectIndex  int                `json:"subject_index"`
	IdentifierDID string             `json:"identifier_did"`
	Kind          IdentificationKind `json:"kind"`

	// ScientificName is the effective proposed name. For agreements it is the
	// name captured at submission time.
	ScientificName string     `json:"scientific_name"`
	Comment        string     `json:"comment,omitempty"`
	Confidence     Confidence `json:"confidence,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsAgreement reports whether the identification agreed with the consensus
// of its time rather than proposing a name.
func (i Identification) IsAgreement() bool {
	return i.Kind == KindAgreement
}
