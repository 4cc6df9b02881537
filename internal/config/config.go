package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/shatter/internal/bond"
	"github.com/san-kum/shatter/internal/world"
)

const (
	DefaultStepDt   = 1.0 / 60.0
	DefaultDuration = 10.0
	DefaultGravity  = -9.81
)

type Config struct {
	Scenario string  `yaml:"scenario"`
	Seed     int64   `yaml:"seed"`
	StepDt   float64 `yaml:"step_dt"`
	Duration float64 `yaml:"duration"`

	Gravity       float64 `yaml:"gravity"`
	Restitution   float64 `yaml:"restitution"`
	Friction      float64 `yaml:"friction"`
	RestSpeed     float64 `yaml:"rest_speed"`
	RestingPolicy string  `yaml:"resting_policy"` // "track" or "damped"

	Bond BondConfig `yaml:"bond"`
}

type BondConfig struct {
	Stiffness          float64 `yaml:"stiffness"`
	Damping            float64 `yaml:"damping"`
	BreakThreshold     float64 `yaml:"break_threshold"`
	EnergyTransferRate float64 `yaml:"energy_transfer_rate"`
}

func DefaultConfig() *Config {
	wc := world.DefaultConfig()
	return &Config{
		Scenario:      "tower",
		Seed:          42,
		StepDt:        DefaultStepDt,
		Duration:      DefaultDuration,
		Gravity:       DefaultGravity,
		Restitution:   wc.Restitution,
		Friction:      wc.Friction,
		RestSpeed:     wc.RestSpeed,
		RestingPolicy: "track",
		Bond: BondConfig{
			Stiffness:          wc.Bond.Stiffness,
			Damping:            wc.Bond.Damping,
			BreakThreshold:     wc.Bond.BreakThreshold,
			EnergyTransferRate: wc.Bond.EnergyTransferRate,
		},
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
	if c.StepDt <= 0 {
		return fmt.Errorf("step_dt must be positive, got %f", c.StepDt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if c.Bond.Stiffness <= 0 {
		return fmt.Errorf("bond stiffness must be positive, got %f", c.Bond.Stiffness)
	}
	if c.Bond.BreakThreshold <= 0 {
		return fmt.Errorf("bond break_threshold must be positive, got %f", c.Bond.BreakThreshold)
	}
	if c.Bond.EnergyTransferRate < 0 || c.Bond.EnergyTransferRate > 1 {
		return fmt.Errorf("bond energy_transfer_rate must be in [0,1], got %f", c.Bond.EnergyTransferRate)
	}
	switch c.RestingPolicy {
	case "track", "damped":
	default:
		return fmt.Errorf("resting_policy must be %q or %q, got %q", "track", "damped", c.RestingPolicy)
	}
	return nil
}

// WorldConfig translates the file representation into the engine's
// config, on top of the engine defaults.
func (c *Config) WorldConfig() world.Config {
	wc := world.DefaultConfig()
	wc.StepDt = c.StepDt
	wc.Gravity = mgl64.Vec3{0, c.Gravity, 0}
	wc.Restitution = c.Restitution
	wc.Friction = c.Friction
	wc.RestSpeed = c.RestSpeed
	if c.RestingPolicy == "damped" {
		wc.RestingPolicy = world.RestingDamped
	}
	wc.Bond = bond.Params{
		Stiffness:          c.Bond.Stiffness,
		Damping:            c.Bond.Damping,
		BreakThreshold:     c.Bond.BreakThreshold,
		EnergyTransferRate: c.Bond.EnergyTransferRate,
	}
	return wc
}
