package temporal

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/guardian"
)

// #region types
// Observation is one co-occurrence: entity B observed Delta after entity A.
type Observation struct {
	A     string
	B     string
	Delta time.Duration
}

// Pattern is an aggregated (A, B) co-occurrence bucket.
type Pattern struct {
	A            string
	B            string
	Count        int
	AvgDelta     time.Duration
	Confidence   float64
	LastObserved time.Time
}

type pairKey struct {
	a string
	b string
}

type bucket struct {
	deltas  []time.Duration
	emitted bool
	last    time.Time
}

// #endregion types

// #region detector
// Detector turns a co-occurrence stream into Create proposals for temporal
// "after" relations. It reads the store only to avoid re-proposing relations
// that already exist; it never mutates anything.
type Detector struct {
	mu             sync.Mutex
	store          *connection.Store
	minOccurrences int
	pairs          map[pairKey]*bucket

	// InitialStrengthScale converts pattern confidence into the proposed
	// connection's initial pull strength.
	strengthScale float64
}

// NewDetector creates a detector that emits once a pair has been seen
// minOccurrences times.
func NewDetector(store *connection.Store, minOccurrences int) *Detector {
	if minOccurrences < 1 {
		minOccurrences = 1
	}
	return &Detector{
		store:          store,
		minOccurrences: minOccurrences,
		pairs:          make(map[pairKey]*bucket),
		strengthScale:  0.5,
	}
}

// #endregion detector

// #region observe
// Observe records one co-occurrence and returns a Create proposal when the
// pair crosses the occurrence threshold for the first time. Self
// co-occurrences are dropped at the door; the validator would reject them
// anyway.
func (d *Detector) Observe(obs Observation) *guardian.Create {
	if obs.A == obs.B {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := pairKey{a: obs.A, b: obs.B}
	bk, ok := d.pairs[key]
	if !ok {
		bk = &bucket{}
		d.pairs[key] = bk
	}
	bk.deltas = append(bk.deltas, obs.Delta)
	bk.last = time.Now().UTC()

	if bk.emitted || len(bk.deltas) < d.minOccurrences {
		return nil
	}
	if _, exists := d.store.FindByEndpoints(obs.A, obs.B, connection.KindTemporal); exists {
		bk.emitted = true
		return nil
	}

	bk.emitted = true
	pat := d.patternLocked(key, bk)
	return &guardian.Create{
		ID:                uuid.New(),
		Source:            obs.A,
		Target:            obs.B,
		ConnKind:          connection.KindTemporal,
		InitialStrength:   d.strengthScale * pat.Confidence,
		InitialConfidence: pat.Confidence,
		Justification: fmt.Sprintf("%q follows %q in %d co-occurrences, avg delta %v",
			obs.B, obs.A, pat.Count, pat.AvgDelta),
		Evidence: deltaStrings(bk.deltas),
	}
}

// #endregion observe

// #region patterns
// Patterns returns the current aggregate for every tracked pair.
func (d *Detector) Patterns() []Pattern {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Pattern, 0, len(d.pairs))
	for key, bk := range d.pairs {
		out = append(out, d.patternLocked(key, bk))
	}
	return out
}

// Reset clears all buckets.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pairs = make(map[pairKey]*bucket)
}

func (d *Detector) patternLocked(key pairKey, bk *bucket) Pattern {
	var sum time.Duration
	for _, dt := range bk.deltas {
		sum += dt
	}
	count := len(bk.deltas)
	avg := time.Duration(0)
	if count > 0 {
		avg = sum / time.Duration(count)
	}
	conf := float64(count) / float64(d.minOccurrences)
	if conf > 1 {
		conf = 1
	}
	return Pattern{
		A:            key.a,
		B:            key.b,
		Count:        count,
		AvgDelta:     avg,
		Confidence:   conf,
		LastObserved: bk.last,
	}
}

// #endregion patterns

// #region helpers
func deltaStrings(deltas []time.Duration) []string {
	out := make([]string, len(deltas))
	for i, dt := range deltas {
		out[i] = dt.String()
	}
	return out
}

// #endregion helpers
