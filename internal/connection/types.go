package connection

import (
	"time"

	"github.com/google/uuid"
)

// #region kind
// Kind categorizes the relationship a connection encodes. The kind picks the
// default mutability tier at manual creation time.
type Kind string

const (
	KindSemantic   Kind = "semantic"
	KindCausal     Kind = "causal"
	KindTemporal   Kind = "temporal"
	KindSpatial    Kind = "spatial"
	KindFunctional Kind = "functional"
)

// DefaultMutability maps a kind to the tier a manually created connection
// starts in. Proposal-created connections are always Hypothesis regardless
// of kind.
func (k Kind) DefaultMutability() Mutability {
	switch k {
	case KindSemantic:
		return Immutable
	case KindCausal, KindFunctional:
		return Learnable
	default:
		return Hypothesis
	}
}

// #endregion kind

// #region mutability
// Mutability is the three-tier change policy for a connection.
type Mutability string

const (
	// Immutable connections never change: confidence pinned at 1.0,
	// zero learning and decay rates, no outgoing tier transitions.
	Immutable Mutability = "immutable"
	// Learnable connections accept bounded confidence updates and slow decay.
	Learnable Mutability = "learnable"
	// Hypothesis connections learn fast, decay, and are eligible for
	// promotion to Learnable or deletion.
	Hypothesis Mutability = "hypothesis"
)

// Valid reports whether m is a known tier.
func (m Mutability) Valid() bool {
	switch m {
	case Immutable, Learnable, Hypothesis:
		return true
	}
	return false
}

// #endregion mutability

// #region target
// TargetSize is the length of a compressed action target.
const TargetSize = 32

// Target is a compressed action target attached to a connection. The core
// only copies and bounds-checks it; decompression belongs to the state codec.
type Target [TargetSize]int8

// #endregion target

// #region provenance
// Provenance records where a connection came from.
type Provenance struct {
	Manual     bool
	ProposalID uuid.UUID // zero when Manual
}

// ManualProvenance marks a hand-seeded connection.
func ManualProvenance() Provenance {
	return Provenance{Manual: true}
}

// ProposalProvenance links a connection to the Create proposal that made it.
func ProposalProvenance(proposalID uuid.UUID) Provenance {
	return Provenance{ProposalID: proposalID}
}

// #endregion provenance

// #region connection
// Connection is a directed, confidence-weighted relationship between two
// entity identifiers.
type Connection struct {
	ID     uuid.UUID
	Source string
	Target string

	Kind       Kind
	Mutability Mutability

	Confidence    float64 // always in [0,1]; pinned to 1.0 while Immutable
	EvidenceCount uint64  // monotonically non-decreasing

	LearningRate float64
	DecayRate    float64

	// Physical parameters consumed by downstream force computation.
	PullStrength      float64
	PreferredDistance float64
	Rigidity          float64

	TargetRep  Target
	Provenance Provenance

	CreatedAt time.Time
	UpdatedAt time.Time
}

// #endregion connection

// #region tier-rates
// TierRates returns the default learning and decay rates for a tier.
func TierRates(m Mutability) (learningRate, decayRate float64) {
	switch m {
	case Immutable:
		return 0, 0
	case Learnable:
		return 0.05, 0.001
	default: // Hypothesis
		return 0.2, 0.01
	}
}

// #endregion tier-rates
