package guardian

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/constitution"
)

// #region reject-reason
// RejectReason categorizes why the validator refused a proposal or a reflex
// candidate.
type RejectReason string

const (
	ReasonImmutable      RejectReason = "immutable_violation"
	ReasonBoundViolation RejectReason = "bound_violation"
	ReasonSelfLoop       RejectReason = "self_loop"
	ReasonNotFound       RejectReason = "not_found"
	ReasonTierIneligible RejectReason = "tier_ineligible"
	ReasonUnknownField   RejectReason = "unknown_field"
)

// #endregion reject-reason

// #region verdict
// Verdict is the validator's output for one proposal. Rejection is a value,
// not an error: the proposal is discarded and the store is untouched.
type Verdict struct {
	ProposalID   uuid.UUID
	ConnectionID uuid.UUID // created, modified, promoted, or deleted connection
	Accepted     bool
	Reason       RejectReason // empty when accepted
	Detail       string
	DecidedAt    time.Time
}

func accept(proposalID, connID uuid.UUID) Verdict {
	return Verdict{ProposalID: proposalID, ConnectionID: connID, Accepted: true, DecidedAt: time.Now().UTC()}
}

func reject(proposalID, connID uuid.UUID, reason RejectReason, detail string) Verdict {
	return Verdict{
		ProposalID:   proposalID,
		ConnectionID: connID,
		Reason:       reason,
		Detail:       detail,
		DecidedAt:    time.Now().UTC(),
	}
}

// #endregion verdict

// #region validator
// Validator enforces the constitutional bounds on every mutation. Apply is
// transactional: pre-validation, mutation of a scratch copy, and
// post-validation form one unit, and any failure leaves the connection in
// its prior observable state.
type Validator struct {
	store  *connection.Store
	bounds *constitution.Holder
}

// NewValidator wires the validator to a store and the active constitution.
func NewValidator(store *connection.Store, bounds *constitution.Holder) *Validator {
	return &Validator{store: store, bounds: bounds}
}

// #endregion validator

// #region apply
// Apply validates and, on acceptance, applies one proposal.
func (v *Validator) Apply(p Proposal) Verdict {
	snap := v.bounds.Current()
	switch prop := p.(type) {
	case Create:
		return v.applyCreate(prop, snap)
	case Modify:
		return v.applyModify(prop, snap)
	case Promote:
		return v.applyPromote(prop, snap)
	case Delete:
		return v.applyDelete(prop)
	default:
		return reject(p.ProposalID(), uuid.Nil, ReasonUnknownField, fmt.Sprintf("unhandled proposal type %T", p))
	}
}

func (v *Validator) applyCreate(p Create, snap constitution.Snapshot) Verdict {
	if p.Source == p.Target {
		return reject(p.ID, uuid.Nil, ReasonSelfLoop, fmt.Sprintf("endpoints %q == %q", p.Source, p.Target))
	}
	if p.InitialConfidence < 0 || p.InitialConfidence > 1 {
		return reject(p.ID, uuid.Nil, ReasonBoundViolation,
			fmt.Sprintf("initial confidence %.4f outside [0,1]", p.InitialConfidence))
	}
	if p.InitialStrength <= 0 || p.InitialStrength > snap.MaxPullStrength {
		return reject(p.ID, uuid.Nil, ReasonBoundViolation,
			fmt.Sprintf("initial strength %.4f outside (0, %.4f]", p.InitialStrength, snap.MaxPullStrength))
	}

	c, err := connection.NewHypothesis(p.Source, p.Target, p.ConnKind, p.InitialStrength, p.InitialConfidence, p.ID)
	if err != nil {
		return reject(p.ID, uuid.Nil, ReasonSelfLoop, err.Error())
	}
	if err := checkBounds(c, snap); err != nil {
		return reject(p.ID, uuid.Nil, ReasonBoundViolation, err.Error())
	}
	v.store.Put(c)
	return accept(p.ID, c.ID)
}

func (v *Validator) applyModify(p Modify, snap constitution.Snapshot) Verdict {
	cur, ok := v.store.Get(p.ConnectionID)
	if !ok {
		return reject(p.ID, p.ConnectionID, ReasonNotFound, "connection not found")
	}
	if cur.Mutability == connection.Immutable {
		return reject(p.ID, p.ConnectionID, ReasonImmutable, "immutable connections reject every proposal")
	}
	if !p.Field.Valid() {
		return reject(p.ID, p.ConnectionID, ReasonUnknownField, fmt.Sprintf("unknown field %q", p.Field))
	}
	if err := checkFieldBound(p.Field, p.New, snap); err != nil {
		return reject(p.ID, p.ConnectionID, ReasonBoundViolation, err.Error())
	}

	err := v.store.Mutate(p.ConnectionID, func(c *connection.Connection) error {
		switch p.Field {
		case FieldConfidence:
			c.Confidence = p.New
		case FieldPullStrength:
			c.PullStrength = p.New
		case FieldRigidity:
			c.Rigidity = p.New
		case FieldPreferredDistance:
			c.PreferredDistance = p.New
		default:
			return fmt.Errorf("unknown field %q", p.Field)
		}
		if p.EvidenceCount > c.EvidenceCount {
			c.EvidenceCount = p.EvidenceCount
		}
		c.UpdatedAt = time.Now().UTC()
		return checkBounds(*c, snap)
	})
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return reject(p.ID, p.ConnectionID, ReasonNotFound, "connection not found")
		}
		return reject(p.ID, p.ConnectionID, ReasonBoundViolation, err.Error())
	}
	return accept(p.ID, p.ConnectionID)
}

func (v *Validator) applyPromote(p Promote, snap constitution.Snapshot) Verdict {
	cur, ok := v.store.Get(p.ConnectionID)
	if !ok {
		return reject(p.ID, p.ConnectionID, ReasonNotFound, "connection not found")
	}
	if cur.Mutability == connection.Immutable {
		return reject(p.ID, p.ConnectionID, ReasonImmutable, "immutable connections reject every proposal")
	}
	if cur.Mutability != connection.Hypothesis {
		return reject(p.ID, p.ConnectionID, ReasonTierIneligible,
			fmt.Sprintf("only hypothesis promotes, connection is %s", cur.Mutability))
	}

	err := v.store.Mutate(p.ConnectionID, func(c *connection.Connection) error {
		if err := c.PromoteToLearnable(); err != nil {
			return err
		}
		if p.EvidenceCount > c.EvidenceCount {
			c.EvidenceCount = p.EvidenceCount
		}
		return checkBounds(*c, snap)
	})
	if err != nil {
		return reject(p.ID, p.ConnectionID, ReasonBoundViolation, err.Error())
	}
	return accept(p.ID, p.ConnectionID)
}

func (v *Validator) applyDelete(p Delete) Verdict {
	cur, ok := v.store.Get(p.ConnectionID)
	if !ok {
		return reject(p.ID, p.ConnectionID, ReasonNotFound, "connection not found")
	}
	if cur.Mutability == connection.Immutable {
		return reject(p.ID, p.ConnectionID, ReasonImmutable, "immutable connections reject every proposal")
	}
	if err := v.store.Delete(p.ConnectionID); err != nil {
		return reject(p.ID, p.ConnectionID, ReasonNotFound, err.Error())
	}
	return accept(p.ID, p.ConnectionID)
}

// #endregion apply

// #region reflex-admission
// AdmitReflex is the constitutional gate on the fast path: the candidate must
// be a production-tier connection whose parameters sit inside the active
// bounds. The caller has already applied the confidence threshold; it is
// re-verified here.
func (v *Validator) AdmitReflex(c connection.Connection) (bool, RejectReason, string) {
	snap := v.bounds.Current()
	if c.Source == c.Target {
		return false, ReasonSelfLoop, fmt.Sprintf("endpoints %q == %q", c.Source, c.Target)
	}
	if c.Confidence < snap.MinReflexConfidence {
		return false, ReasonBoundViolation,
			fmt.Sprintf("confidence %.4f below reflex minimum %.4f", c.Confidence, snap.MinReflexConfidence)
	}
	if c.Mutability == connection.Hypothesis {
		return false, ReasonTierIneligible, "hypothesis connections never fire as production reflexes"
	}
	if c.PullStrength <= 0 || c.PullStrength > snap.MaxPullStrength {
		return false, ReasonBoundViolation,
			fmt.Sprintf("pull strength %.4f outside (0, %.4f]", c.PullStrength, snap.MaxPullStrength)
	}
	if c.Rigidity < snap.MinRigidity {
		return false, ReasonBoundViolation,
			fmt.Sprintf("rigidity %.4f below minimum %.4f", c.Rigidity, snap.MinRigidity)
	}
	return true, "", ""
}

// #endregion reflex-admission

// #region bounds
// checkBounds re-checks the full connection state against the snapshot.
// Used as post-validation after every mutation.
func checkBounds(c connection.Connection, snap constitution.Snapshot) error {
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %.4f outside [0,1]", c.Confidence)
	}
	if c.Mutability == connection.Immutable && c.Confidence != 1.0 {
		return fmt.Errorf("immutable connection confidence %.4f != 1.0", c.Confidence)
	}
	if math.Abs(c.PullStrength) > snap.MaxPullStrength {
		return fmt.Errorf("pull strength %.4f exceeds bound %.4f", c.PullStrength, snap.MaxPullStrength)
	}
	if c.Rigidity < snap.MinRigidity {
		return fmt.Errorf("rigidity %.4f below minimum %.4f", c.Rigidity, snap.MinRigidity)
	}
	if c.PreferredDistance < 0 || c.PreferredDistance > snap.MaxPreferredDistance {
		return fmt.Errorf("preferred distance %.4f outside [0, %.4f]", c.PreferredDistance, snap.MaxPreferredDistance)
	}
	return nil
}

// checkFieldBound pre-validates a single proposed field value before any
// mutation happens.
func checkFieldBound(f Field, val float64, snap constitution.Snapshot) error {
	switch f {
	case FieldConfidence:
		if val < 0 || val > 1 {
			return fmt.Errorf("confidence %.4f outside [0,1]", val)
		}
	case FieldPullStrength:
		if math.Abs(val) > snap.MaxPullStrength {
			return fmt.Errorf("pull strength %.4f exceeds bound %.4f", val, snap.MaxPullStrength)
		}
	case FieldRigidity:
		if val < snap.MinRigidity {
			return fmt.Errorf("rigidity %.4f below minimum %.4f", val, snap.MinRigidity)
		}
	case FieldPreferredDistance:
		if val < 0 || val > snap.MaxPreferredDistance {
			return fmt.Errorf("preferred distance %.4f outside [0, %.4f]", val, snap.MaxPreferredDistance)
		}
	default:
		return fmt.Errorf("unknown field %q", f)
	}
	return nil
}

// #endregion bounds
