package config

import (
	"os"

	"github.com/san-kum/aeromodal/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultNumModes        = 20
	DefaultFrequencyCutoff = 0.0
	DefaultNumEvals        = 200
	DefaultMaxRotationDeg  = 15.0
	DefaultMaxDisplacement = 0.15
	DefaultSysID           = "aeroelastic"
	DefaultOutputDir       = "runs"
)

type Config struct {
	Case      string          `yaml:"case"`
	Solvers   []string        `yaml:"solvers"`
	Modal     ModalConfig     `yaml:"modal"`
	Stability StabilityConfig `yaml:"stability"`
	Scaling   ScalingConfig   `yaml:"scaling"`
	Logging   LoggingConfig   `yaml:"logging"`
	OutputDir string          `yaml:"output_dir"`
}

type ModalConfig struct {
	UseUndampedModes      bool    `yaml:"use_undamped_modes"`
	NumModes              int     `yaml:"num_modes"`
	RigidBodyModes        bool    `yaml:"rigid_body_modes"`
	ContinuousEigenvalues bool    `yaml:"continuous_eigenvalues"`
	Dt                    float64 `yaml:"dt"`
	KeepLinearMatrices    bool    `yaml:"keep_linear_matrices"`
	WriteModes            bool    `yaml:"write_modes"`
}

type StabilityConfig struct {
	SysID string `yaml:"sys_id"`
	// FrequencyCutoff in rad/s; 0 keeps every eigenvalue.
	FrequencyCutoff float64 `yaml:"frequency_cutoff"`
	NumEvals        int     `yaml:"num_evals"`
	WriteModes      bool    `yaml:"write_modes"`
}

type ScalingConfig struct {
	MaxRotationDeg float64 `yaml:"max_rotation_deg"`
	// MaxDisplacement is a fraction of the largest reference node distance.
	MaxDisplacement float64 `yaml:"max_displacement"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Solvers: []string{"modal"},
		Modal: ModalConfig{
			UseUndampedModes:   true,
			NumModes:           DefaultNumModes,
			KeepLinearMatrices: true,
		},
		Stability: StabilityConfig{
			SysID:           DefaultSysID,
			FrequencyCutoff: DefaultFrequencyCutoff,
			NumEvals:        DefaultNumEvals,
		},
		Scaling: ScalingConfig{
			MaxRotationDeg:  DefaultMaxRotationDeg,
			MaxDisplacement: DefaultMaxDisplacement,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		OutputDir: DefaultOutputDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	invalid := func(field, format string, args ...interface{}) error {
		return dynamo.Errorf(dynamo.ErrInvalidInput, "config", field, format, args...)
	}
	switch {
	case c.Modal.NumModes <= 0:
		return invalid("modal.num_modes", "must be positive, got %d", c.Modal.NumModes)
	case c.Modal.Dt < 0:
		return invalid("modal.dt", "must be non-negative, got %g", c.Modal.Dt)
	case c.Stability.FrequencyCutoff < 0:
		return invalid("stability.frequency_cutoff", "must be non-negative, got %g", c.Stability.FrequencyCutoff)
	case c.Stability.NumEvals < 0:
		return invalid("stability.num_evals", "must be non-negative, got %d", c.Stability.NumEvals)
	case c.Scaling.MaxRotationDeg <= 0:
		return invalid("scaling.max_rotation_deg", "must be positive, got %g", c.Scaling.MaxRotationDeg)
	case c.Scaling.MaxDisplacement <= 0 || c.Scaling.MaxDisplacement > 1:
		return invalid("scaling.max_displacement", "must lie in (0, 1], got %g", c.Scaling.MaxDisplacement)
	}
	for _, s := range c.Solvers {
		if s != "modal" && s != "stability" {
			return invalid("solvers", "unknown solver %q", s)
		}
	}
	return nil
}
