package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/shatter/internal/world"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero step_dt", func(c *Config) { c.StepDt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"zero stiffness", func(c *Config) { c.Bond.Stiffness = 0 }},
		{"zero break threshold", func(c *Config) { c.Bond.BreakThreshold = 0 }},
		{"transfer rate above one", func(c *Config) { c.Bond.EnergyTransferRate = 1.2 }},
		{"unknown resting policy", func(c *Config) { c.RestingPolicy = "sleepy" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")

	cfg := DefaultConfig()
	cfg.Scenario = "wall"
	cfg.Seed = 7
	cfg.Bond.Stiffness = 1800
	cfg.RestingPolicy = "damped"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Scenario != "wall" || loaded.Seed != 7 {
		t.Errorf("loaded %q seed %d, want wall/7", loaded.Scenario, loaded.Seed)
	}
	if loaded.Bond.Stiffness != 1800 {
		t.Errorf("stiffness = %g, want 1800", loaded.Bond.Stiffness)
	}
	if loaded.RestingPolicy != "damped" {
		t.Errorf("resting policy = %q, want damped", loaded.RestingPolicy)
	}
}

// A partial file overrides only the keys it names; everything else
// keeps its default.
func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("scenario: drop\nbond:\n  stiffness: 500\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scenario != "drop" {
		t.Errorf("scenario = %q, want drop", cfg.Scenario)
	}
	if cfg.Bond.Stiffness != 500 {
		t.Errorf("stiffness = %g, want 500", cfg.Bond.Stiffness)
	}
	def := DefaultConfig()
	if cfg.Bond.BreakThreshold != def.Bond.BreakThreshold {
		t.Errorf("break threshold = %g, want default %g", cfg.Bond.BreakThreshold, def.Bond.BreakThreshold)
	}
	if cfg.StepDt != def.StepDt {
		t.Errorf("step_dt = %g, want default %g", cfg.StepDt, def.StepDt)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWorldConfigTranslation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = -3.7
	cfg.RestingPolicy = "damped"
	cfg.Bond.Stiffness = 999

	wc := cfg.WorldConfig()

	if wc.Gravity.Y() != -3.7 {
		t.Errorf("gravity = %v, want y = -3.7", wc.Gravity)
	}
	if wc.RestingPolicy != world.RestingDamped {
		t.Errorf("resting policy = %v, want damped", wc.RestingPolicy)
	}
	if wc.Bond.Stiffness != 999 {
		t.Errorf("bond stiffness = %g, want 999", wc.Bond.Stiffness)
	}
}

func TestPresetsKnownAndUnknown(t *testing.T) {
	cfg := GetPreset("tower", "brittle")
	if cfg == nil {
		t.Fatal("tower/brittle preset missing")
	}
	if cfg.Scenario != "tower" {
		t.Errorf("preset scenario = %q, want tower", cfg.Scenario)
	}
	if cfg.Bond.BreakThreshold != 0.12 {
		t.Errorf("brittle threshold = %g, want 0.12", cfg.Bond.BreakThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset config invalid: %v", err)
	}

	if GetPreset("tower", "nonsense") != nil {
		t.Error("unknown preset should return nil")
	}
	if GetPreset("nonsense", "stable") != nil {
		t.Error("unknown scenario should return nil")
	}
}

func TestListPresetsSorted(t *testing.T) {
	names := ListPresets("wall")
	if len(names) != 2 || names[0] != "brittle" || names[1] != "tough" {
		t.Errorf("wall presets = %v, want [brittle tough]", names)
	}
	if got := ListPresets("nonsense"); len(got) != 0 {
		t.Errorf("unknown scenario presets = %v, want empty", got)
	}
}
