package learnstats

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/guardian"
)

// #region record
type record struct {
	success uint64
	failure uint64
}

func (r record) total() uint64 {
	return r.success + r.failure
}

func (r record) rate() float64 {
	n := r.total()
	if n == 0 {
		return 0
	}
	return float64(r.success) / float64(n)
}

// #endregion record

// #region tracker
// Tracker keeps per-connection success/failure counters and synthesizes
// proposals from them. It never mutates connections itself; every change it
// wants goes out as a proposal.
type Tracker struct {
	mu      sync.Mutex
	store   *connection.Store
	records map[uuid.UUID]*record
}

// NewTracker wires the tracker to the store it reads confidence from.
func NewTracker(store *connection.Store) *Tracker {
	return &Tracker{store: store, records: make(map[uuid.UUID]*record)}
}

// RecordOutcome adds one success or failure observation for a connection.
func (t *Tracker) RecordOutcome(id uuid.UUID, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[id]
	if !ok {
		r = &record{}
		t.records[id] = r
	}
	if success {
		r.success++
	} else {
		r.failure++
	}
}

// Observations returns how many outcomes have been recorded for a connection.
func (t *Tracker) Observations(id uuid.UUID) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[id]
	if !ok {
		return 0
	}
	return r.total()
}

// SuccessRate returns success/(success+failure), and false when nothing has
// been observed yet.
func (t *Tracker) SuccessRate(id uuid.UUID) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[id]
	if !ok || r.total() == 0 {
		return 0, false
	}
	return r.rate(), true
}

// Forget drops the counters for a connection, used after deletion.
func (t *Tracker) Forget(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, id)
}

// TrackedIDs returns every connection with at least one recorded outcome.
func (t *Tracker) TrackedIDs() []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(t.records))
	for id := range t.records {
		ids = append(ids, id)
	}
	return ids
}

// #endregion tracker

// #region confidence-proposal
// ConfidenceProposal returns a Modify{confidence} proposal when the observed
// success rate has diverged from the stored confidence by more than
// tolerance, over at least minObservations outcomes. Returns nil otherwise,
// so noise never churns the store.
func (t *Tracker) ConfidenceProposal(id uuid.UUID, minObservations uint64, tolerance float64) *guardian.Modify {
	cur, ok := t.store.Get(id)
	if !ok {
		return nil
	}

	t.mu.Lock()
	r, tracked := t.records[id]
	if !tracked {
		t.mu.Unlock()
		return nil
	}
	n := r.total()
	rate := r.rate()
	t.mu.Unlock()

	if n < minObservations {
		return nil
	}
	if math.Abs(rate-cur.Confidence) <= tolerance {
		return nil
	}
	return &guardian.Modify{
		ID:           uuid.New(),
		ConnectionID: id,
		Field:        guardian.FieldConfidence,
		Old:          cur.Confidence,
		New:          rate,
		Justification: fmt.Sprintf("observed success rate %.4f diverges from confidence %.4f over %d outcomes",
			rate, cur.Confidence, n),
		EvidenceCount: n,
	}
}

// #endregion confidence-proposal

// #region promote-proposal
// PromoteProposal returns a Promote proposal when a connection has proven
// itself: at least minObservations outcomes with a success rate of at least
// minRate. Returns nil otherwise.
func (t *Tracker) PromoteProposal(id uuid.UUID, minObservations uint64, minRate float64) *guardian.Promote {
	t.mu.Lock()
	r, tracked := t.records[id]
	if !tracked {
		t.mu.Unlock()
		return nil
	}
	n := r.total()
	rate := r.rate()
	t.mu.Unlock()

	if n < minObservations || rate < minRate {
		return nil
	}
	return &guardian.Promote{
		ID:            uuid.New(),
		ConnectionID:  id,
		EvidenceCount: n,
		Justification: fmt.Sprintf("success rate %.4f over %d outcomes meets promotion floor %.4f", rate, n, minRate),
	}
}

// #endregion promote-proposal

// #region delete-proposal
// DeleteProposal returns a Delete proposal when a connection has failed
// consistently: at least minObservations outcomes with a success rate at or
// below maxRate. Returns nil otherwise.
func (t *Tracker) DeleteProposal(id uuid.UUID, minObservations uint64, maxRate float64) *guardian.Delete {
	t.mu.Lock()
	r, tracked := t.records[id]
	if !tracked {
		t.mu.Unlock()
		return nil
	}
	n := r.total()
	rate := r.rate()
	t.mu.Unlock()

	if n < minObservations || rate > maxRate {
		return nil
	}
	return &guardian.Delete{
		ID:           uuid.New(),
		ConnectionID: id,
		Reason:       fmt.Sprintf("success rate %.4f over %d outcomes at or below deletion ceiling %.4f", rate, n, maxRate),
	}
}

// #endregion delete-proposal
