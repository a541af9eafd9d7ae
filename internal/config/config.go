package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dchrnv/neurograph-core/internal/arbiter"
	"github.com/dchrnv/neurograph-core/internal/constitution"
	"github.com/dchrnv/neurograph-core/internal/learner"
)

// #region config
// Config is the full runtime configuration. A YAML file overlays the
// defaults; absent keys keep their default values.
type Config struct {
	DBPath      string `yaml:"db_path"`
	PolicyAddr  string `yaml:"policy_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	PolicyTimeout         time.Duration `yaml:"policy_timeout"`
	ShadowMode            bool          `yaml:"shadow_mode"`
	DisagreementThreshold float64       `yaml:"disagreement_threshold"`

	Constitution constitution.Snapshot `yaml:"constitution"`
	Learner      learner.Config        `yaml:"learner"`
}

// Default returns the configuration the runtime boots with when no file is
// supplied.
func Default() Config {
	return Config{
		DBPath:                "neurograph.db",
		PolicyAddr:            "localhost:50051",
		MetricsAddr:           ":9290",
		PolicyTimeout:         time.Second,
		ShadowMode:            false,
		DisagreementThreshold: 1.0,
		Constitution:          constitution.DefaultSnapshot(),
		Learner:               learner.DefaultConfig(),
	}
}

// #endregion config

// #region load
// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Constitution.Validate(); err != nil {
		return Config{}, fmt.Errorf("config constitution: %w", err)
	}
	return cfg, nil
}

// #endregion load

// #region arbiter-config
// ArbiterConfig projects the arbiter's slice of the runtime configuration.
func (c Config) ArbiterConfig() arbiter.Config {
	return arbiter.Config{
		PolicyTimeout:         c.PolicyTimeout,
		ShadowMode:            c.ShadowMode,
		DisagreementThreshold: c.DisagreementThreshold,
	}
}

// #endregion arbiter-config
