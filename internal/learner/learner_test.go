package learner

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/constitution"
	"github.com/dchrnv/neurograph-core/internal/guardian"
	"github.com/dchrnv/neurograph-core/internal/learnstats"
	"github.com/dchrnv/neurograph-core/internal/temporal"
)

func newLearner(t *testing.T, cfg Config) (*Learner, *connection.Store) {
	t.Helper()
	h, err := constitution.NewHolder(constitution.DefaultSnapshot())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	store := connection.NewStore()
	tracker := learnstats.NewTracker(store)
	detector := temporal.NewDetector(store, cfg.CoOccurrenceMin)
	validator := guardian.NewValidator(store, h)
	return New(store, tracker, detector, validator, nil, cfg), store
}

func seedLearnable(t *testing.T, store *connection.Store) connection.Connection {
	t.Helper()
	c, err := connection.New("stove", "burn", connection.KindCausal, connection.Learnable)
	if err != nil {
		t.Fatalf("connection: %v", err)
	}
	store.Put(c)
	return c
}

func TestObserveOutcomeUpdatesConfidenceAndTracker(t *testing.T) {
	l, store := newLearner(t, DefaultConfig())
	c := seedLearnable(t, store) // confidence 0.5, learning rate 0.05

	l.ObserveOutcome(c.ID, true)

	got, _ := store.Get(c.ID)
	if got.Confidence != 0.55 {
		t.Fatalf("confidence = %v, want 0.55 after one success", got.Confidence)
	}
	if got.EvidenceCount != 1 {
		t.Fatalf("evidence count = %d, want 1", got.EvidenceCount)
	}
	if n := l.Tracker().Observations(c.ID); n != 1 {
		t.Fatalf("tracked observations = %d, want 1", n)
	}
}

func TestObserveOutcomeUnknownConnectionForgets(t *testing.T) {
	l, _ := newLearner(t, DefaultConfig())
	id := uuid.New()

	l.Tracker().RecordOutcome(id, true)
	l.ObserveOutcome(id, true) // connection never existed

	if n := l.Tracker().Observations(id); n != 0 {
		t.Fatalf("stale counters survived: %d observations", n)
	}
}

func TestObserveCoOccurrenceCreatesHypothesis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoOccurrenceMin = 3
	l, store := newLearner(t, cfg)

	var verdict *guardian.Verdict
	for i := 0; i < 3; i++ {
		verdict = l.ObserveCoOccurrence(temporal.Observation{
			A: "door_open", B: "draft", Delta: 100 * time.Millisecond,
		})
	}
	if verdict == nil {
		t.Fatal("no verdict at the co-occurrence threshold")
	}
	if !verdict.Accepted {
		t.Fatalf("create rejected: %s (%s)", verdict.Reason, verdict.Detail)
	}

	c, ok := store.Get(verdict.ConnectionID)
	if !ok {
		t.Fatal("created connection missing from store")
	}
	if c.Mutability != connection.Hypothesis || c.Kind != connection.KindTemporal {
		t.Fatalf("created connection tier=%s kind=%s", c.Mutability, c.Kind)
	}
}

func TestObserveCoOccurrenceBelowThresholdIsSilent(t *testing.T) {
	l, store := newLearner(t, DefaultConfig()) // threshold 5

	if v := l.ObserveCoOccurrence(temporal.Observation{A: "a", B: "b", Delta: time.Second}); v != nil {
		t.Fatalf("verdict below threshold: %+v", v)
	}
	if store.Len() != 0 {
		t.Fatalf("store has %d connections, want 0", store.Len())
	}
}

func TestSweepPromotesProvenHypothesis(t *testing.T) {
	cfg := DefaultConfig()
	l, store := newLearner(t, cfg)

	c, err := connection.NewHypothesis("a", "b", connection.KindTemporal, 0.5, 0.9, uuid.New())
	if err != nil {
		t.Fatalf("NewHypothesis: %v", err)
	}
	store.Put(c)

	for i := 0; i < 25; i++ {
		l.ObserveOutcome(c.ID, true)
	}
	report := l.Sweep()
	if report.Accepted == 0 {
		t.Fatalf("sweep accepted nothing: %+v", report)
	}

	got, _ := store.Get(c.ID)
	if got.Mutability != connection.Learnable {
		t.Fatalf("tier = %s, want learnable after promotion sweep", got.Mutability)
	}
}

func TestSweepDeletesFailingConnection(t *testing.T) {
	l, store := newLearner(t, DefaultConfig())

	c, err := connection.NewHypothesis("a", "b", connection.KindTemporal, 0.5, 0.5, uuid.New())
	if err != nil {
		t.Fatalf("NewHypothesis: %v", err)
	}
	store.Put(c)

	for i := 0; i < 25; i++ {
		l.ObserveOutcome(c.ID, false)
	}
	report := l.Sweep()
	if report.Accepted == 0 {
		t.Fatalf("sweep accepted nothing: %+v", report)
	}

	if _, ok := store.Get(c.ID); ok {
		t.Fatal("failing connection survived the sweep")
	}
	if n := l.Tracker().Observations(c.ID); n != 0 {
		t.Fatalf("deleted connection still tracked with %d observations", n)
	}
}

func TestSweepAlignsConfidenceWithSuccessRate(t *testing.T) {
	l, store := newLearner(t, DefaultConfig())
	c := seedLearnable(t, store)

	// 12 successes push confidence to 1.0 via the bounded update, while the
	// tracked rate is also 1.0: no divergence, so the sweep must stay quiet.
	for i := 0; i < 12; i++ {
		l.ObserveOutcome(c.ID, true)
	}
	report := l.Sweep()
	if report.Proposals != 0 {
		t.Fatalf("sweep proposed %d changes with no divergence", report.Proposals)
	}

	// Now drag the stored confidence away from the observed record.
	if err := store.Mutate(c.ID, func(cc *connection.Connection) error {
		cc.Confidence = 0.3
		return nil
	}); err != nil {
		t.Fatalf("mutate: %v", err)
	}

	report = l.Sweep()
	if report.Accepted == 0 {
		t.Fatalf("sweep did not realign confidence: %+v", report)
	}
	got, _ := store.Get(c.ID)
	if got.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0 (observed rate)", got.Confidence)
	}
}

func TestTickAppliesDecay(t *testing.T) {
	l, store := newLearner(t, DefaultConfig())
	c := seedLearnable(t, store) // decay rate 0.001

	changed := l.Tick()
	if changed != 1 {
		t.Fatalf("decay touched %d connections, want 1", changed)
	}
	got, _ := store.Get(c.ID)
	if got.Confidence >= c.Confidence {
		t.Fatalf("confidence = %v, want below %v after decay", got.Confidence, c.Confidence)
	}
}
