package arbiter

import (
	"sync"
	"sync/atomic"
	"time"
)

// #region stats
// Stats aggregates arbiter counters. Plain counts use atomics; the running
// confidence/timing sums go through one small mutex so concurrent decisions
// never lose increments.
type Stats struct {
	reflexCount    atomic.Uint64
	reasoningCount atomic.Uint64
	failsafeCount  atomic.Uint64

	lowConfidenceFallbacks atomic.Uint64
	reflexRejections       atomic.Uint64
	policyTimeouts         atomic.Uint64

	shadowEvaluations   atomic.Uint64
	shadowDisagreements atomic.Uint64

	mu                     sync.Mutex
	reflexConfidenceSum    float64
	reasoningConfidenceSum float64
	reflexElapsedSum       time.Duration
	reasoningElapsedSum    time.Duration
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{}
}

// #endregion stats

// #region record
func (s *Stats) recordReflex(confidence float64, elapsed time.Duration) {
	s.reflexCount.Add(1)
	s.mu.Lock()
	s.reflexConfidenceSum += confidence
	s.reflexElapsedSum += elapsed
	s.mu.Unlock()
}

func (s *Stats) recordReasoning(confidence float64, elapsed time.Duration) {
	s.reasoningCount.Add(1)
	s.mu.Lock()
	s.reasoningConfidenceSum += confidence
	s.reasoningElapsedSum += elapsed
	s.mu.Unlock()
}

func (s *Stats) recordFailsafe() {
	s.failsafeCount.Add(1)
}

func (s *Stats) recordLowConfidenceFallback() {
	s.lowConfidenceFallbacks.Add(1)
}

func (s *Stats) recordReflexRejection() {
	s.reflexRejections.Add(1)
}

func (s *Stats) recordPolicyTimeout() {
	s.policyTimeouts.Add(1)
}

func (s *Stats) recordShadow(disagreed bool) {
	s.shadowEvaluations.Add(1)
	if disagreed {
		s.shadowDisagreements.Add(1)
	}
}

// #endregion record

// #region snapshot
// Snapshot is a point-in-time copy of all counters plus derived metrics.
type Snapshot struct {
	ReflexCount    uint64
	ReasoningCount uint64
	FailsafeCount  uint64

	LowConfidenceFallbacks uint64
	ReflexRejections       uint64
	PolicyTimeouts         uint64

	ShadowEvaluations   uint64
	ShadowDisagreements uint64

	AvgReflexConfidence    float64
	AvgReasoningConfidence float64
	AvgReflexTime          time.Duration
	AvgReasoningTime       time.Duration

	ReflexUsagePercent float64
	SpeedupFactor      float64
}

// Snapshot copies the counters and computes the derived metrics.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		ReflexCount:            s.reflexCount.Load(),
		ReasoningCount:         s.reasoningCount.Load(),
		FailsafeCount:          s.failsafeCount.Load(),
		LowConfidenceFallbacks: s.lowConfidenceFallbacks.Load(),
		ReflexRejections:       s.reflexRejections.Load(),
		PolicyTimeouts:         s.policyTimeouts.Load(),
		ShadowEvaluations:      s.shadowEvaluations.Load(),
		ShadowDisagreements:    s.shadowDisagreements.Load(),
	}

	s.mu.Lock()
	reflexConfSum := s.reflexConfidenceSum
	reasoningConfSum := s.reasoningConfidenceSum
	reflexElapsed := s.reflexElapsedSum
	reasoningElapsed := s.reasoningElapsedSum
	s.mu.Unlock()

	if snap.ReflexCount > 0 {
		snap.AvgReflexConfidence = reflexConfSum / float64(snap.ReflexCount)
		snap.AvgReflexTime = reflexElapsed / time.Duration(snap.ReflexCount)
	}
	if snap.ReasoningCount > 0 {
		snap.AvgReasoningConfidence = reasoningConfSum / float64(snap.ReasoningCount)
		snap.AvgReasoningTime = reasoningElapsed / time.Duration(snap.ReasoningCount)
	}

	total := snap.ReflexCount + snap.ReasoningCount + snap.FailsafeCount
	if total > 0 {
		snap.ReflexUsagePercent = 100 * float64(snap.ReflexCount) / float64(total)
	}
	if snap.AvgReflexTime > 0 && snap.AvgReasoningTime > 0 {
		snap.SpeedupFactor = float64(snap.AvgReasoningTime) / float64(snap.AvgReflexTime)
	}
	return snap
}

// #endregion snapshot
