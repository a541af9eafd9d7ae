package constitution

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// #region snapshot
// Snapshot is an immutable set of constitutional bounds. A Snapshot is never
// mutated after construction; publishing new bounds means publishing a new
// Snapshot with a higher version.
type Snapshot struct {
	Version              int     `yaml:"version"`
	MaxPullStrength      float64 `yaml:"max_pull_strength"`
	MinRigidity          float64 `yaml:"min_rigidity"`
	MinReflexConfidence  float64 `yaml:"min_reflex_confidence"`
	MaxPreferredDistance float64 `yaml:"max_preferred_distance"`
}

// DefaultSnapshot returns the bounds the runtime boots with when no
// constitution file is supplied.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Version:              1,
		MaxPullStrength:      10.0,
		MinRigidity:          0.1,
		MinReflexConfidence:  0.78,
		MaxPreferredDistance: 100.0,
	}
}

// Validate checks internal consistency of the bounds themselves.
func (s Snapshot) Validate() error {
	if s.Version <= 0 {
		return fmt.Errorf("snapshot version must be positive, got %d", s.Version)
	}
	if s.MaxPullStrength <= 0 {
		return fmt.Errorf("max_pull_strength must be positive, got %v", s.MaxPullStrength)
	}
	if s.MinRigidity < 0 {
		return fmt.Errorf("min_rigidity must be non-negative, got %v", s.MinRigidity)
	}
	if s.MinReflexConfidence < 0 || s.MinReflexConfidence > 1 {
		return fmt.Errorf("min_reflex_confidence must be in [0,1], got %v", s.MinReflexConfidence)
	}
	if s.MaxPreferredDistance <= 0 {
		return fmt.Errorf("max_preferred_distance must be positive, got %v", s.MaxPreferredDistance)
	}
	return nil
}

// #endregion snapshot

// #region holder
// Holder publishes the active Snapshot. Readers get a consistent value with a
// single atomic load; writers swap in a whole new Snapshot. Rolling back is
// publishing a previously held Snapshot again.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates a Holder with an initial snapshot.
func NewHolder(s Snapshot) (*Holder, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}
	h := &Holder{}
	h.current.Store(&s)
	return h, nil
}

// Current returns the active snapshot by value.
func (h *Holder) Current() Snapshot {
	return *h.current.Load()
}

// Publish atomically swaps the active snapshot.
func (h *Holder) Publish(s Snapshot) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	h.current.Store(&s)
	return nil
}

// #endregion holder

// #region load
// LoadFile reads a Snapshot from a YAML file.
func LoadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read constitution: %w", err)
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parse constitution: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// #endregion load
