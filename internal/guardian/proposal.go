package guardian

import (
	"github.com/google/uuid"

	"github.com/dchrnv/neurograph-core/internal/connection"
)

// #region field
// Field names a numeric connection field a Modify proposal may touch.
type Field string

const (
	FieldConfidence        Field = "confidence"
	FieldPullStrength      Field = "pull_strength"
	FieldRigidity          Field = "rigidity"
	FieldPreferredDistance Field = "preferred_distance"
)

// Valid reports whether f names a modifiable field.
func (f Field) Valid() bool {
	switch f {
	case FieldConfidence, FieldPullStrength, FieldRigidity, FieldPreferredDistance:
		return true
	}
	return false
}

// #endregion field

// #region proposal
// Proposal is the closed set of mutation requests the validator accepts.
// Every variant carries enough evidence to be independently auditable.
// Application sites type-switch over the concrete variants; adding a variant
// breaks every switch at compile time.
type Proposal interface {
	ProposalID() uuid.UUID
	proposal()
}

// Create requests a new Hypothesis-tier connection.
type Create struct {
	ID                uuid.UUID
	Source            string
	Target            string
	ConnKind          connection.Kind
	InitialStrength   float64
	InitialConfidence float64
	Justification     string
	Evidence          []string
}

// Modify requests a change to one numeric field of an existing connection.
type Modify struct {
	ID            uuid.UUID
	ConnectionID  uuid.UUID
	Field         Field
	Old           float64
	New           float64
	Justification string
	EvidenceCount uint64
}

// Promote requests a Hypothesis → Learnable tier transition.
type Promote struct {
	ID            uuid.UUID
	ConnectionID  uuid.UUID
	EvidenceCount uint64
	Justification string
}

// Delete requests removal of a connection.
type Delete struct {
	ID           uuid.UUID
	ConnectionID uuid.UUID
	Reason       string
}

func (p Create) ProposalID() uuid.UUID  { return p.ID }
func (p Modify) ProposalID() uuid.UUID  { return p.ID }
func (p Promote) ProposalID() uuid.UUID { return p.ID }
func (p Delete) ProposalID() uuid.UUID  { return p.ID }

func (Create) proposal()  {}
func (Modify) proposal()  {}
func (Promote) proposal() {}
func (Delete) proposal()  {}

// #endregion proposal
