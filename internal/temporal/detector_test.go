package temporal

import (
	"testing"
	"time"

	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/guardian"
)

func observeSeries(d *Detector, a, b string, deltas []time.Duration) []*guardian.Create {
	var out []*guardian.Create
	for _, dt := range deltas {
		if p := d.Observe(Observation{A: a, B: b, Delta: dt}); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func TestObserveEmitsAtThreshold(t *testing.T) {
	store := connection.NewStore()
	d := NewDetector(store, 5)

	deltas := []time.Duration{
		100 * time.Millisecond,
		120 * time.Millisecond,
		90 * time.Millisecond,
		110 * time.Millisecond,
		105 * time.Millisecond,
	}
	proposals := observeSeries(d, "door_open", "draft", deltas)
	if len(proposals) != 1 {
		t.Fatalf("got %d proposals, want exactly 1", len(proposals))
	}

	p := proposals[0]
	if p.Source != "door_open" || p.Target != "draft" {
		t.Fatalf("proposal endpoints %q -> %q", p.Source, p.Target)
	}
	if p.ConnKind != connection.KindTemporal {
		t.Fatalf("kind = %s, want temporal", p.ConnKind)
	}
	if p.InitialConfidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0 at threshold", p.InitialConfidence)
	}
	if p.InitialStrength != 0.5 {
		t.Fatalf("strength = %v, want 0.5 (scale * confidence)", p.InitialStrength)
	}
	if len(p.Evidence) != 5 {
		t.Fatalf("evidence entries = %d, want 5", len(p.Evidence))
	}
}

func TestObserveAveragesDeltas(t *testing.T) {
	store := connection.NewStore()
	d := NewDetector(store, 5)

	observeSeries(d, "a", "b", []time.Duration{
		100 * time.Millisecond,
		120 * time.Millisecond,
		90 * time.Millisecond,
		110 * time.Millisecond,
		105 * time.Millisecond,
	})

	pats := d.Patterns()
	if len(pats) != 1 {
		t.Fatalf("got %d patterns, want 1", len(pats))
	}
	if pats[0].AvgDelta != 105*time.Millisecond {
		t.Fatalf("avg delta = %v, want 105ms", pats[0].AvgDelta)
	}
	if pats[0].Count != 5 {
		t.Fatalf("count = %d, want 5", pats[0].Count)
	}
}

func TestObserveEmitsOnlyOnce(t *testing.T) {
	store := connection.NewStore()
	d := NewDetector(store, 3)

	deltas := make([]time.Duration, 10)
	for i := range deltas {
		deltas[i] = time.Second
	}
	proposals := observeSeries(d, "a", "b", deltas)
	if len(proposals) != 1 {
		t.Fatalf("got %d proposals across 10 observations, want 1", len(proposals))
	}
}

func TestObserveSkipsExistingConnection(t *testing.T) {
	store := connection.NewStore()
	c, err := connection.New("a", "b", connection.KindTemporal, connection.Hypothesis)
	if err != nil {
		t.Fatalf("connection: %v", err)
	}
	store.Put(c)

	d := NewDetector(store, 2)
	proposals := observeSeries(d, "a", "b", []time.Duration{time.Second, time.Second, time.Second})
	if len(proposals) != 0 {
		t.Fatalf("got %d proposals for an already-known relation, want 0", len(proposals))
	}
}

func TestObserveDropsSelfPairs(t *testing.T) {
	store := connection.NewStore()
	d := NewDetector(store, 1)

	if p := d.Observe(Observation{A: "x", B: "x", Delta: time.Second}); p != nil {
		t.Fatalf("self pair produced proposal: %+v", p)
	}
	if len(d.Patterns()) != 0 {
		t.Fatal("self pair was tracked")
	}
}

func TestDirectionMatters(t *testing.T) {
	store := connection.NewStore()
	d := NewDetector(store, 2)

	d.Observe(Observation{A: "a", B: "b", Delta: time.Second})
	d.Observe(Observation{A: "b", B: "a", Delta: time.Second})

	// Neither direction has crossed the threshold.
	pats := d.Patterns()
	if len(pats) != 2 {
		t.Fatalf("got %d patterns, want 2 (one per direction)", len(pats))
	}
	for _, pat := range pats {
		if pat.Count != 1 {
			t.Fatalf("pattern %s->%s count = %d, want 1", pat.A, pat.B, pat.Count)
		}
	}
}

func TestPartialConfidenceBelowThreshold(t *testing.T) {
	store := connection.NewStore()
	d := NewDetector(store, 4)

	observeSeries(d, "a", "b", []time.Duration{time.Second, time.Second})
	pats := d.Patterns()
	if len(pats) != 1 {
		t.Fatalf("got %d patterns, want 1", len(pats))
	}
	if pats[0].Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5 at 2/4 occurrences", pats[0].Confidence)
	}
}

func TestResetClearsBuckets(t *testing.T) {
	store := connection.NewStore()
	d := NewDetector(store, 3)

	observeSeries(d, "a", "b", []time.Duration{time.Second, time.Second})
	d.Reset()
	if len(d.Patterns()) != 0 {
		t.Fatal("patterns survived reset")
	}
}
