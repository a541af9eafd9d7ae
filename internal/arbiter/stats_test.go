package arbiter

import (
	"math"
	"testing"
	"time"
)

func TestSnapshotAverages(t *testing.T) {
	s := NewStats()
	s.recordReflex(0.8, 1*time.Millisecond)
	s.recordReflex(0.9, 3*time.Millisecond)
	s.recordReasoning(0.6, 100*time.Millisecond)

	snap := s.Snapshot()
	if snap.ReflexCount != 2 || snap.ReasoningCount != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", snap.ReflexCount, snap.ReasoningCount)
	}
	if math.Abs(snap.AvgReflexConfidence-0.85) > 1e-9 {
		t.Fatalf("avg reflex confidence = %v, want 0.85", snap.AvgReflexConfidence)
	}
	if snap.AvgReflexTime != 2*time.Millisecond {
		t.Fatalf("avg reflex time = %v, want 2ms", snap.AvgReflexTime)
	}
	if snap.AvgReasoningTime != 100*time.Millisecond {
		t.Fatalf("avg reasoning time = %v, want 100ms", snap.AvgReasoningTime)
	}
}

func TestSnapshotUsageAndSpeedup(t *testing.T) {
	s := NewStats()
	s.recordReflex(0.9, 2*time.Millisecond)
	s.recordReflex(0.9, 2*time.Millisecond)
	s.recordReflex(0.9, 2*time.Millisecond)
	s.recordReasoning(0.5, 200*time.Millisecond)
	s.recordFailsafe()

	snap := s.Snapshot()
	if math.Abs(snap.ReflexUsagePercent-60.0) > 1e-9 {
		t.Fatalf("reflex usage = %v%%, want 60%%", snap.ReflexUsagePercent)
	}
	if math.Abs(snap.SpeedupFactor-100.0) > 1e-9 {
		t.Fatalf("speedup = %v, want 100", snap.SpeedupFactor)
	}
}

func TestSnapshotZeroState(t *testing.T) {
	snap := NewStats().Snapshot()
	if snap.ReflexUsagePercent != 0 || snap.SpeedupFactor != 0 {
		t.Fatalf("zero stats derived metrics = %v%%, %vx; want zeros", snap.ReflexUsagePercent, snap.SpeedupFactor)
	}
	if snap.AvgReflexConfidence != 0 || snap.AvgReasoningTime != 0 {
		t.Fatal("zero stats averages not zero")
	}
}

func TestShadowCounters(t *testing.T) {
	s := NewStats()
	s.recordShadow(false)
	s.recordShadow(true)
	s.recordShadow(false)

	snap := s.Snapshot()
	if snap.ShadowEvaluations != 3 {
		t.Fatalf("shadow evaluations = %d, want 3", snap.ShadowEvaluations)
	}
	if snap.ShadowDisagreements != 1 {
		t.Fatalf("shadow disagreements = %d, want 1", snap.ShadowDisagreements)
	}
}
