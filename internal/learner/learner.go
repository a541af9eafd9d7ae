package learner

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dchrnv/neurograph-core/internal/audit"
	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/guardian"
	"github.com/dchrnv/neurograph-core/internal/learnstats"
	"github.com/dchrnv/neurograph-core/internal/temporal"
)

// #region learner
// Learner owns the observation-to-mutation pipeline: outcomes feed the
// statistics tracker and bounded confidence updates, co-occurrences feed the
// temporal detector, and every synthesized proposal goes through the
// validator. All store mutations funnel through this one component, which is
// the single-writer discipline the store expects.
type Learner struct {
	store     *connection.Store
	tracker   *learnstats.Tracker
	detector  *temporal.Detector
	validator *guardian.Validator
	audit     *audit.Logger // nil disables audit rows
	config    Config
}

// New wires a learner. audit may be nil.
func New(
	store *connection.Store,
	tracker *learnstats.Tracker,
	detector *temporal.Detector,
	validator *guardian.Validator,
	auditLog *audit.Logger,
	config Config,
) *Learner {
	return &Learner{
		store:     store,
		tracker:   tracker,
		detector:  detector,
		validator: validator,
		audit:     auditLog,
		config:    config,
	}
}

// Tracker exposes the statistics tracker for inspection.
func (l *Learner) Tracker() *learnstats.Tracker {
	return l.tracker
}

// Detector exposes the temporal detector for inspection.
func (l *Learner) Detector() *temporal.Detector {
	return l.detector
}

// #endregion learner

// #region observe
// ObserveOutcome ingests one success/failure result for a connection: the
// bounded confidence update plus the statistics counter. Unknown connections
// drop their stale counters.
func (l *Learner) ObserveOutcome(id uuid.UUID, success bool) {
	err := l.store.Mutate(id, func(c *connection.Connection) error {
		c.UpdateConfidence(success)
		return nil
	})
	if errors.Is(err, connection.ErrNotFound) {
		l.tracker.Forget(id)
		return
	}
	l.tracker.RecordOutcome(id, success)
}

// ObserveCoOccurrence ingests one temporal co-occurrence. A pattern that
// crosses its threshold turns into a Create proposal and goes through the
// validator immediately.
func (l *Learner) ObserveCoOccurrence(obs temporal.Observation) *guardian.Verdict {
	p := l.detector.Observe(obs)
	if p == nil {
		return nil
	}
	v := l.apply(*p)
	return &v
}

// #endregion observe

// #region sweep
// Sweep runs the statistics generators over every tracked connection and
// applies whatever they propose. Deletion is checked first so a failing
// connection is not promoted or re-tuned on the same pass.
func (l *Learner) Sweep() SweepReport {
	ids := l.tracker.TrackedIDs()
	report := SweepReport{Tracked: len(ids)}

	for _, id := range ids {
		if p := l.tracker.DeleteProposal(id, l.config.DeleteMinObservations, l.config.DeleteMaxRate); p != nil {
			report.Proposals++
			if l.apply(*p).Accepted {
				report.Accepted++
				continue
			}
			report.Rejected++
		}
		if p := l.tracker.PromoteProposal(id, l.config.PromoteMinObservations, l.config.PromoteMinRate); p != nil {
			report.Proposals++
			if l.apply(*p).Accepted {
				report.Accepted++
			} else {
				report.Rejected++
			}
		}
		if p := l.tracker.ConfidenceProposal(id, l.config.ConfidenceMinObservations, l.config.ConfidenceTolerance); p != nil {
			report.Proposals++
			if l.apply(*p).Accepted {
				report.Accepted++
			} else {
				report.Rejected++
			}
		}
	}

	if report.Proposals > 0 {
		log.Printf("[LEARN] sweep: tracked=%d proposals=%d accepted=%d rejected=%d",
			report.Tracked, report.Proposals, report.Accepted, report.Rejected)
	}
	return report
}

// #endregion sweep

// #region tick
// Tick applies one decay pass over the population and returns how many
// connections changed.
func (l *Learner) Tick() int {
	return l.store.ApplyDecayAll()
}

// #endregion tick

// #region run
// Run drives periodic sweeps and decay ticks until ctx is done. Observations
// still arrive through the Observe methods from other goroutines; Run only
// owns the timers.
func (l *Learner) Run(ctx context.Context) {
	sweep := time.NewTicker(l.config.SweepInterval)
	defer sweep.Stop()
	decay := time.NewTicker(l.config.DecayInterval)
	defer decay.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			l.Sweep()
		case <-decay.C:
			if n := l.Tick(); n > 0 {
				log.Printf("[LEARN] decay tick touched %d connections", n)
			}
		}
	}
}

// #endregion run

// #region apply
// apply routes one proposal through the validator and records the verdict.
func (l *Learner) apply(p guardian.Proposal) guardian.Verdict {
	v := l.validator.Apply(p)

	if _, isDelete := p.(guardian.Delete); isDelete && v.Accepted {
		l.tracker.Forget(v.ConnectionID)
	}

	if !v.Accepted {
		log.Printf("[LEARN] proposal %s rejected: %s (%s)", v.ProposalID, v.Reason, v.Detail)
	}

	if l.audit != nil {
		connID := ""
		if v.ConnectionID != uuid.Nil {
			connID = v.ConnectionID.String()
		}
		rec := audit.ProposalRecord{
			ProposalID:    v.ProposalID.String(),
			ConnectionID:  connID,
			ProposalType:  proposalType(p),
			Accepted:      v.Accepted,
			Reason:        string(v.Reason),
			Detail:        v.Detail,
			Justification: justification(p),
			CreatedAt:     v.DecidedAt,
		}
		if err := l.audit.LogProposal(rec); err != nil {
			log.Printf("[LEARN] audit write failed: %v", err)
		}
	}
	return v
}

func proposalType(p guardian.Proposal) string {
	switch p.(type) {
	case guardian.Create:
		return "create"
	case guardian.Modify:
		return "modify"
	case guardian.Promote:
		return "promote"
	case guardian.Delete:
		return "delete"
	default:
		return "unknown"
	}
}

func justification(p guardian.Proposal) string {
	switch prop := p.(type) {
	case guardian.Create:
		return prop.Justification
	case guardian.Modify:
		return prop.Justification
	case guardian.Promote:
		return prop.Justification
	case guardian.Delete:
		return prop.Reason
	default:
		return ""
	}
}

// #endregion apply
