package arbiter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dchrnv/neurograph-core/internal/connection"
)

// #region path
// Path tags which decision path produced a Decision.
type Path string

const (
	PathReflex    Path = "reflex"
	PathReasoning Path = "reasoning"
	PathFailsafe  Path = "failsafe"
)

// #endregion path

// #region decision
// Decision is the per-call output of Decide. Exactly one path is taken;
// ConnectionID is set only for reflex decisions and Reason only for failsafe.
type Decision struct {
	Path       Path
	Confidence float64
	Elapsed    time.Duration

	// Reflex only: the connection that fired.
	ConnectionID uuid.UUID

	// Decompressed action target (reflex) or normalized action weights
	// (reasoning). Empty for failsafe, which is a no-op action.
	Action []float32

	// Failsafe only.
	Reason string
}

// #endregion decision

// #region action-distribution
// ActionDistribution is the policy provider's raw output: non-negative
// weights over the action space.
type ActionDistribution struct {
	Weights []float64
}

// #endregion action-distribution

// #region interfaces
// Lookup resolves a reflex candidate from a state vector. Implementations
// must be deterministic for a given state encoding and must not block on I/O.
type Lookup interface {
	FindReflex(state []float32) (connection.Connection, bool)
}

// PolicyProvider is the external reasoning subsystem. It may block; Decide
// always calls it under a timeout.
type PolicyProvider interface {
	GetPolicy(ctx context.Context, state []float32) (ActionDistribution, error)
}

// Codec translates between raw state vectors, lookup keys, and action
// targets. Opaque to the arbiter beyond these two operations.
type Codec interface {
	StateKey(state []float32) string
	DecompressTarget(t connection.Target) []float32
}

// #endregion interfaces

// #region config
// Config holds the arbiter's routing parameters. The reflex confidence
// threshold itself lives in the constitution snapshot, not here.
type Config struct {
	PolicyTimeout         time.Duration
	ShadowMode            bool
	DisagreementThreshold float64
}

// DefaultConfig returns the arbiter defaults: one second policy budget,
// shadow mode off.
func DefaultConfig() Config {
	return Config{
		PolicyTimeout:         time.Second,
		ShadowMode:            false,
		DisagreementThreshold: 1.0,
	}
}

// #endregion config
