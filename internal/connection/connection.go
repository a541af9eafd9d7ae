package connection

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region constructors
// New creates a manually provenanced connection. The tier defaults from the
// kind; pass a non-empty tier to override. Manual creation never yields a
// tier below what the caller asked for, but proposals cannot use this path.
func New(source, target string, kind Kind, tier Mutability) (Connection, error) {
	if source == target {
		return Connection{}, fmt.Errorf("self-referencing connection %q", source)
	}
	if tier == "" {
		tier = kind.DefaultMutability()
	}
	if !tier.Valid() {
		return Connection{}, fmt.Errorf("unknown mutability tier %q", tier)
	}
	lr, dr := TierRates(tier)
	now := time.Now().UTC()
	c := Connection{
		ID:                uuid.New(),
		Source:            source,
		Target:            target,
		Kind:              kind,
		Mutability:        tier,
		Confidence:        0.5,
		LearningRate:      lr,
		DecayRate:         dr,
		PullStrength:      1.0,
		PreferredDistance: 10.0,
		Rigidity:          0.5,
		Provenance:        ManualProvenance(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if tier == Immutable {
		c.Confidence = 1.0
	}
	return c, nil
}

// NewHypothesis creates a proposal-provenanced Hypothesis connection. Used by
// the validator when applying an accepted Create proposal.
func NewHypothesis(source, target string, kind Kind, strength, confidence float64, proposalID uuid.UUID) (Connection, error) {
	if source == target {
		return Connection{}, fmt.Errorf("self-referencing connection %q", source)
	}
	lr, dr := TierRates(Hypothesis)
	now := time.Now().UTC()
	return Connection{
		ID:                uuid.New(),
		Source:            source,
		Target:            target,
		Kind:              kind,
		Mutability:        Hypothesis,
		Confidence:        clamp01(confidence),
		LearningRate:      lr,
		DecayRate:         dr,
		PullStrength:      strength,
		PreferredDistance: 10.0,
		Rigidity:          0.5,
		Provenance:        ProposalProvenance(proposalID),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// #endregion constructors

// #region update-confidence
// UpdateConfidence applies one bounded observation-driven delta. No-op on
// Immutable. The result stays in [0,1].
func (c *Connection) UpdateConfidence(success bool) {
	if c.Mutability == Immutable {
		return
	}
	delta := c.LearningRate
	if !success {
		delta = -delta
	}
	c.Confidence = clamp01(c.Confidence + delta)
	c.EvidenceCount++
	c.UpdatedAt = time.Now().UTC()
}

// #endregion update-confidence

// #region apply-decay
// ApplyDecay moves confidence toward zero by one decay tick. No-op on
// Immutable and on connections with a zero decay rate.
func (c *Connection) ApplyDecay() {
	if c.Mutability == Immutable || c.DecayRate == 0 {
		return
	}
	c.Confidence = clamp01(c.Confidence - c.DecayRate)
	c.UpdatedAt = time.Now().UTC()
}

// #endregion apply-decay

// #region promote
// PromoteToLearnable transitions a Hypothesis to Learnable, re-seeding tier
// rates. The caller (validator) is responsible for having checked
// eligibility; this returns an error rather than silently widening tiers.
func (c *Connection) PromoteToLearnable() error {
	if c.Mutability != Hypothesis {
		return fmt.Errorf("promote: connection %s is %s, only hypothesis promotes", c.ID, c.Mutability)
	}
	c.Mutability = Learnable
	c.LearningRate, c.DecayRate = TierRates(Learnable)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// #endregion promote

// #region helpers
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
