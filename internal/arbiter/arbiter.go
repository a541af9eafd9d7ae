package arbiter

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dchrnv/neurograph-core/internal/constitution"
	"github.com/dchrnv/neurograph-core/internal/guardian"
)

// #region arbiter
// Arbiter is the dual-path decision state machine. The fast path is pure
// computation over resident connections; the slow path queries the external
// policy provider under a timeout; failsafe is the terminal no-op that
// always succeeds. Decide never returns an error.
type Arbiter struct {
	lookup    Lookup
	validator *guardian.Validator
	provider  PolicyProvider
	codec     Codec
	bounds    *constitution.Holder
	config    Config
	stats     *Stats

	// Collapses duplicate in-flight policy queries for the same state key.
	policyGroup singleflight.Group
}

// New wires an arbiter. stats may be shared with a metrics exporter.
func New(
	lookup Lookup,
	validator *guardian.Validator,
	provider PolicyProvider,
	codec Codec,
	bounds *constitution.Holder,
	config Config,
	stats *Stats,
) *Arbiter {
	if stats == nil {
		stats = NewStats()
	}
	return &Arbiter{
		lookup:    lookup,
		validator: validator,
		provider:  provider,
		codec:     codec,
		bounds:    bounds,
		config:    config,
		stats:     stats,
	}
}

// Stats exposes the arbiter's counters.
func (a *Arbiter) Stats() *Stats {
	return a.stats
}

// #endregion arbiter

// #region decide
// Decide routes one state vector to a decision.
//
// The confidence gate precedes the constitutional gate: a candidate below
// the reflex threshold falls through to reasoning without a validator call
// and without touching the rejection counter.
func (a *Arbiter) Decide(ctx context.Context, state []float32) Decision {
	start := time.Now()

	if cand, found := a.lookup.FindReflex(state); found {
		threshold := a.bounds.Current().MinReflexConfidence
		if cand.Confidence < threshold {
			a.stats.recordLowConfidenceFallback()
		} else if ok, reason, detail := a.validator.AdmitReflex(cand); !ok {
			a.stats.recordReflexRejection()
			log.Printf("[ARB] reflex rejected: %s (%s)", reason, detail)
		} else {
			action := a.codec.DecompressTarget(cand.TargetRep)
			d := Decision{
				Path:         PathReflex,
				Confidence:   cand.Confidence,
				Elapsed:      time.Since(start),
				ConnectionID: cand.ID,
				Action:       action,
			}
			a.stats.recordReflex(d.Confidence, d.Elapsed)
			if a.config.ShadowMode {
				go a.shadowCompare(state, action)
			}
			return d
		}
	}

	return a.reason(ctx, state, start)
}

// #endregion decide

// #region slow-path
// reason runs the slow path and degrades to failsafe on any provider
// failure.
func (a *Arbiter) reason(ctx context.Context, state []float32, start time.Time) Decision {
	dist, err := a.queryPolicy(ctx, state)
	if err != nil {
		reason := "policy provider unavailable: " + err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "policy provider timeout"
			a.stats.recordPolicyTimeout()
		}
		d := Decision{
			Path:    PathFailsafe,
			Elapsed: time.Since(start),
			Reason:  reason,
		}
		a.stats.recordFailsafe()
		log.Printf("[ARB] failsafe: %s", reason)
		return d
	}

	conf := ReasoningConfidence(dist)
	d := Decision{
		Path:       PathReasoning,
		Confidence: conf,
		Elapsed:    time.Since(start),
		Action:     normalizedWeights(dist),
	}
	a.stats.recordReasoning(d.Confidence, d.Elapsed)
	return d
}

// queryPolicy calls the provider under the configured timeout, deduplicating
// concurrent queries for the same state key.
func (a *Arbiter) queryPolicy(ctx context.Context, state []float32) (ActionDistribution, error) {
	key := a.codec.StateKey(state)
	v, err, _ := a.policyGroup.Do(key, func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(ctx, a.config.PolicyTimeout)
		defer cancel()
		dist, err := a.provider.GetPolicy(qctx, state)
		if err != nil {
			return nil, err
		}
		if len(dist.Weights) == 0 {
			return nil, errors.New("empty action distribution")
		}
		return dist, nil
	})
	if err != nil {
		return ActionDistribution{}, err
	}
	return v.(ActionDistribution), nil
}

// #endregion slow-path

// #region shadow
// shadowCompare evaluates the slow path for a state that already produced a
// reflex, detached from the caller. The caller's decision is never affected;
// only the disagreement counters move.
func (a *Arbiter) shadowCompare(state []float32, fastAction []float32) {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.PolicyTimeout)
	defer cancel()

	dist, err := a.provider.GetPolicy(ctx, state)
	if err != nil || len(dist.Weights) == 0 {
		a.stats.recordShadow(false)
		return
	}

	slowAction := normalizedWeights(dist)
	disagreement := actionDistance(fastAction, slowAction)
	a.stats.recordShadow(disagreement > a.config.DisagreementThreshold)
}

// actionDistance is the sum of absolute differences over the overlapping
// prefix, plus the magnitude of the non-overlapping tail.
func actionDistance(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	for _, v := range a[n:] {
		sum += math.Abs(float64(v))
	}
	for _, v := range b[n:] {
		sum += math.Abs(float64(v))
	}
	return sum
}

// #endregion shadow

// #region reasoning-confidence
// ReasoningConfidence scores a policy distribution:
// 0.7 * normalized max weight + 0.3 * certainty, where certainty is
// 1 - entropy/maxEntropy.
func ReasoningConfidence(dist ActionDistribution) float64 {
	n := len(dist.Weights)
	if n == 0 {
		return 0
	}

	var sum, max float64
	for _, w := range dist.Weights {
		if w < 0 {
			w = 0
		}
		sum += w
		if w > max {
			max = w
		}
	}
	if sum == 0 {
		return 0
	}

	normalizedMax := max / sum

	certainty := 1.0
	if n > 1 {
		var entropy float64
		for _, w := range dist.Weights {
			if w <= 0 {
				continue
			}
			p := w / sum
			entropy -= p * math.Log(p)
		}
		certainty = 1 - entropy/math.Log(float64(n))
	}

	return 0.7*normalizedMax + 0.3*certainty
}

func normalizedWeights(dist ActionDistribution) []float32 {
	var sum float64
	for _, w := range dist.Weights {
		if w > 0 {
			sum += w
		}
	}
	out := make([]float32, len(dist.Weights))
	if sum == 0 {
		return out
	}
	for i, w := range dist.Weights {
		if w > 0 {
			out[i] = float32(w / sum)
		}
	}
	return out
}

// #endregion reasoning-confidence
