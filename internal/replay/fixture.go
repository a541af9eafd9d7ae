package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/constitution"
	"github.com/dchrnv/neurograph-core/internal/learner"
)

// #region fixture-types
// Fixture is the top-level JSON structure for a replay run: a seeded
// connection population plus an ordered observation/event stream.
type Fixture struct {
	Description  string              `json:"description"`
	Constitution *FixtureBounds      `json:"constitution,omitempty"`
	Learner      FixtureLearner      `json:"learner"`
	Connections  []FixtureConnection `json:"connections"`
	Events       []FixtureEvent      `json:"events"`
	Expected     *FixtureExpected    `json:"expected,omitempty"`
}

// FixtureBounds mirrors constitution.Snapshot with JSON tags.
type FixtureBounds struct {
	Version              int     `json:"version"`
	MaxPullStrength      float64 `json:"max_pull_strength"`
	MinRigidity          float64 `json:"min_rigidity"`
	MinReflexConfidence  float64 `json:"min_reflex_confidence"`
	MaxPreferredDistance float64 `json:"max_preferred_distance"`
}

// FixtureLearner carries the learning thresholds for the run. Zero values
// fall back to learner defaults.
type FixtureLearner struct {
	ConfidenceMinObservations uint64  `json:"confidence_min_observations"`
	ConfidenceTolerance       float64 `json:"confidence_tolerance"`
	PromoteMinObservations    uint64  `json:"promote_min_observations"`
	PromoteMinRate            float64 `json:"promote_min_rate"`
	DeleteMinObservations     uint64  `json:"delete_min_observations"`
	DeleteMaxRate             float64 `json:"delete_max_rate"`
	CoOccurrenceMin           int     `json:"co_occurrence_min"`
}

// FixtureConnection seeds one connection, addressable from events by name.
type FixtureConnection struct {
	Name         string  `json:"name"`
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Kind         string  `json:"kind"`
	Mutability   string  `json:"mutability"`
	Confidence   float64 `json:"confidence"`
	PullStrength float64 `json:"pull_strength"`
	Rigidity     float64 `json:"rigidity"`
}

// FixtureEvent is one step of the stream. Type selects which fields matter:
// "outcome" uses Connection+Success, "cooccurrence" uses A/B/DeltaMs,
// "sweep" and "decay" take no arguments.
type FixtureEvent struct {
	Type       string `json:"type"`
	Connection string `json:"connection,omitempty"`
	Success    bool   `json:"success,omitempty"`
	A          string `json:"a,omitempty"`
	B          string `json:"b,omitempty"`
	DeltaMs    int64  `json:"delta_ms,omitempty"`
}

// FixtureExpected captures the asserted end state of a run.
type FixtureExpected struct {
	Population int `json:"population"`
	Proposals  int `json:"proposals"`
	Accepted   int `json:"accepted"`
	Rejected   int `json:"rejected"`
}

// #endregion fixture-types

// #region load
// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	for i, ev := range f.Events {
		switch ev.Type {
		case "outcome", "cooccurrence", "sweep", "decay":
		default:
			return Fixture{}, fmt.Errorf("event %d: unknown type %q", i, ev.Type)
		}
	}
	return f, nil
}

// #endregion load

// #region conversions
func (b *FixtureBounds) snapshot() constitution.Snapshot {
	if b == nil {
		return constitution.DefaultSnapshot()
	}
	return constitution.Snapshot{
		Version:              b.Version,
		MaxPullStrength:      b.MaxPullStrength,
		MinRigidity:          b.MinRigidity,
		MinReflexConfidence:  b.MinReflexConfidence,
		MaxPreferredDistance: b.MaxPreferredDistance,
	}
}

func (fl FixtureLearner) config() learner.Config {
	cfg := learner.DefaultConfig()
	if fl.ConfidenceMinObservations > 0 {
		cfg.ConfidenceMinObservations = fl.ConfidenceMinObservations
	}
	if fl.ConfidenceTolerance > 0 {
		cfg.ConfidenceTolerance = fl.ConfidenceTolerance
	}
	if fl.PromoteMinObservations > 0 {
		cfg.PromoteMinObservations = fl.PromoteMinObservations
	}
	if fl.PromoteMinRate > 0 {
		cfg.PromoteMinRate = fl.PromoteMinRate
	}
	if fl.DeleteMinObservations > 0 {
		cfg.DeleteMinObservations = fl.DeleteMinObservations
	}
	if fl.DeleteMaxRate > 0 {
		cfg.DeleteMaxRate = fl.DeleteMaxRate
	}
	if fl.CoOccurrenceMin > 0 {
		cfg.CoOccurrenceMin = fl.CoOccurrenceMin
	}
	return cfg
}

func (fc FixtureConnection) connection() (connection.Connection, error) {
	tier := connection.Mutability(fc.Mutability)
	c, err := connection.New(fc.Source, fc.Target, connection.Kind(fc.Kind), tier)
	if err != nil {
		return connection.Connection{}, fmt.Errorf("fixture connection %q: %w", fc.Name, err)
	}
	if c.Mutability != connection.Immutable && fc.Confidence > 0 {
		c.Confidence = fc.Confidence
	}
	if fc.PullStrength > 0 {
		c.PullStrength = fc.PullStrength
	}
	if fc.Rigidity > 0 {
		c.Rigidity = fc.Rigidity
	}
	return c, nil
}

// #endregion conversions
