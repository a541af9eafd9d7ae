package replay

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/constitution"
	"github.com/dchrnv/neurograph-core/internal/guardian"
	"github.com/dchrnv/neurograph-core/internal/learner"
	"github.com/dchrnv/neurograph-core/internal/learnstats"
	"github.com/dchrnv/neurograph-core/internal/temporal"
)

// #region result
// Result aggregates one replay run.
type Result struct {
	Events        int
	Outcomes      int
	CoOccurrences int
	Sweeps        int
	DecayTicks    int

	Proposals int
	Accepted  int
	Rejected  int

	Population int
	Store      *connection.Store
}

// Matches reports whether the result satisfies the fixture's expectations.
func (r Result) Matches(exp *FixtureExpected) error {
	if exp == nil {
		return nil
	}
	if r.Population != exp.Population {
		return fmt.Errorf("population %d, expected %d", r.Population, exp.Population)
	}
	if r.Proposals != exp.Proposals {
		return fmt.Errorf("proposals %d, expected %d", r.Proposals, exp.Proposals)
	}
	if r.Accepted != exp.Accepted {
		return fmt.Errorf("accepted %d, expected %d", r.Accepted, exp.Accepted)
	}
	if r.Rejected != exp.Rejected {
		return fmt.Errorf("rejected %d, expected %d", r.Rejected, exp.Rejected)
	}
	return nil
}

// #endregion result

// #region run
// Run replays the fixture's event stream through a fresh in-memory learning
// pipeline: outcomes and co-occurrences in, validated proposals out.
// Deterministic for a given fixture.
func Run(f Fixture) (Result, error) {
	holder, err := constitution.NewHolder(f.Constitution.snapshot())
	if err != nil {
		return Result{}, fmt.Errorf("fixture constitution: %w", err)
	}

	store := connection.NewStore()
	byName := make(map[string]uuid.UUID, len(f.Connections))
	for _, fc := range f.Connections {
		c, err := fc.connection()
		if err != nil {
			return Result{}, err
		}
		store.Put(c)
		byName[fc.Name] = c.ID
	}

	cfg := f.Learner.config()
	tracker := learnstats.NewTracker(store)
	detector := temporal.NewDetector(store, cfg.CoOccurrenceMin)
	validator := guardian.NewValidator(store, holder)
	loop := learner.New(store, tracker, detector, validator, nil, cfg)

	res := Result{Events: len(f.Events)}
	for i, ev := range f.Events {
		switch ev.Type {
		case "outcome":
			id, ok := byName[ev.Connection]
			if !ok {
				return Result{}, fmt.Errorf("event %d: unknown connection %q", i, ev.Connection)
			}
			loop.ObserveOutcome(id, ev.Success)
			res.Outcomes++

		case "cooccurrence":
			v := loop.ObserveCoOccurrence(temporal.Observation{
				A:     ev.A,
				B:     ev.B,
				Delta: time.Duration(ev.DeltaMs) * time.Millisecond,
			})
			res.CoOccurrences++
			if v != nil {
				res.Proposals++
				if v.Accepted {
					res.Accepted++
				} else {
					res.Rejected++
				}
			}

		case "sweep":
			report := loop.Sweep()
			res.Sweeps++
			res.Proposals += report.Proposals
			res.Accepted += report.Accepted
			res.Rejected += report.Rejected

		case "decay":
			loop.Tick()
			res.DecayTicks++
		}
	}

	res.Population = store.Len()
	res.Store = store
	return res, nil
}

// #endregion run
