package learner

import "time"

// #region config
// Config carries the learning-loop thresholds. These are free parameters of
// the statistics call sites, deliberately outside the constitution snapshot.
type Config struct {
	ConfidenceMinObservations uint64  `yaml:"confidence_min_observations"`
	ConfidenceTolerance       float64 `yaml:"confidence_tolerance"`

	PromoteMinObservations uint64  `yaml:"promote_min_observations"`
	PromoteMinRate         float64 `yaml:"promote_min_rate"`

	DeleteMinObservations uint64  `yaml:"delete_min_observations"`
	DeleteMaxRate         float64 `yaml:"delete_max_rate"`

	CoOccurrenceMin int `yaml:"co_occurrence_min"`

	SweepInterval time.Duration `yaml:"sweep_interval"`
	DecayInterval time.Duration `yaml:"decay_interval"`
}

// DefaultConfig returns the thresholds the runtime boots with.
func DefaultConfig() Config {
	return Config{
		ConfidenceMinObservations: 10,
		ConfidenceTolerance:       0.15,
		PromoteMinObservations:    20,
		PromoteMinRate:            0.8,
		DeleteMinObservations:     20,
		DeleteMaxRate:             0.2,
		CoOccurrenceMin:           5,
		SweepInterval:             30 * time.Second,
		DecayInterval:             time.Minute,
	}
}

// #endregion config

// #region sweep-report
// SweepReport summarizes one pass of proposal generation and application.
type SweepReport struct {
	Tracked   int
	Proposals int
	Accepted  int
	Rejected  int
}

// #endregion sweep-report
