package connection

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewDefaultsTierFromKind(t *testing.T) {
	cases := []struct {
		kind Kind
		want Mutability
	}{
		{KindSemantic, Immutable},
		{KindCausal, Learnable},
		{KindFunctional, Learnable},
		{KindTemporal, Hypothesis},
		{KindSpatial, Hypothesis},
	}
	for _, tc := range cases {
		c, err := New("a", "b", tc.kind, "")
		if err != nil {
			t.Fatalf("New(%s): %v", tc.kind, err)
		}
		if c.Mutability != tc.want {
			t.Fatalf("kind %s: got tier %s, want %s", tc.kind, c.Mutability, tc.want)
		}
	}
}

func TestNewRejectsSelfLoop(t *testing.T) {
	if _, err := New("a", "a", KindCausal, ""); err == nil {
		t.Fatal("expected error for self-referencing connection")
	}
}

func TestImmutableConfidencePinned(t *testing.T) {
	c, err := New("a", "b", KindSemantic, Immutable)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Confidence != 1.0 {
		t.Fatalf("immutable confidence = %v, want 1.0", c.Confidence)
	}
	if c.LearningRate != 0 || c.DecayRate != 0 {
		t.Fatalf("immutable rates = (%v, %v), want (0, 0)", c.LearningRate, c.DecayRate)
	}

	before := c
	c.UpdateConfidence(true)
	c.UpdateConfidence(false)
	c.ApplyDecay()
	if c.Confidence != 1.0 {
		t.Fatalf("immutable confidence moved to %v", c.Confidence)
	}
	if c.EvidenceCount != before.EvidenceCount {
		t.Fatalf("immutable evidence count moved to %d", c.EvidenceCount)
	}
}

func TestUpdateConfidenceBoundedAndClamped(t *testing.T) {
	c, err := New("a", "b", KindCausal, Learnable)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Confidence = 0.5

	c.UpdateConfidence(true)
	if got, want := c.Confidence, 0.5+c.LearningRate; got != want {
		t.Fatalf("confidence after success = %v, want %v", got, want)
	}
	if c.EvidenceCount != 1 {
		t.Fatalf("evidence count = %d, want 1", c.EvidenceCount)
	}

	c.Confidence = 0.999
	for i := 0; i < 10; i++ {
		c.UpdateConfidence(true)
	}
	if c.Confidence > 1.0 {
		t.Fatalf("confidence exceeded 1.0: %v", c.Confidence)
	}

	c.Confidence = 0.001
	for i := 0; i < 10; i++ {
		c.UpdateConfidence(false)
	}
	if c.Confidence < 0 {
		t.Fatalf("confidence went below 0: %v", c.Confidence)
	}
}

func TestApplyDecayFlooredAtZero(t *testing.T) {
	c, err := New("a", "b", KindTemporal, Hypothesis)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Confidence = 0.025
	for i := 0; i < 10; i++ {
		c.ApplyDecay()
	}
	if c.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", c.Confidence)
	}
}

func TestApplyDecayNoOpOnZeroRate(t *testing.T) {
	c, err := New("a", "b", KindCausal, Learnable)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.DecayRate = 0
	c.Confidence = 0.7
	c.ApplyDecay()
	if c.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want 0.7", c.Confidence)
	}
}

func TestPromoteToLearnable(t *testing.T) {
	c, err := NewHypothesis("a", "b", KindTemporal, 0.5, 0.9, uuid.New())
	if err != nil {
		t.Fatalf("NewHypothesis: %v", err)
	}
	if c.Mutability != Hypothesis {
		t.Fatalf("tier = %s, want hypothesis", c.Mutability)
	}

	if err := c.PromoteToLearnable(); err != nil {
		t.Fatalf("PromoteToLearnable: %v", err)
	}
	if c.Mutability != Learnable {
		t.Fatalf("tier = %s, want learnable", c.Mutability)
	}
	lr, dr := TierRates(Learnable)
	if c.LearningRate != lr || c.DecayRate != dr {
		t.Fatalf("rates = (%v, %v), want (%v, %v)", c.LearningRate, c.DecayRate, lr, dr)
	}

	if err := c.PromoteToLearnable(); err == nil {
		t.Fatal("expected error promoting a learnable connection")
	}
}

func TestNewHypothesisClampsConfidence(t *testing.T) {
	c, err := NewHypothesis("a", "b", KindTemporal, 0.5, 1.7, uuid.New())
	if err != nil {
		t.Fatalf("NewHypothesis: %v", err)
	}
	if c.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want clamped 1.0", c.Confidence)
	}
}
