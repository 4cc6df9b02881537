package config

import "sort"

// presets are named parameter sets per scenario, applied before config
// files and CLI flags.
var presets = map[string]map[string]func(*Config){
	"tower": {
		"stable": func(c *Config) {
			c.Bond.Stiffness = 2500
			c.Bond.BreakThreshold = 0.6
		},
		"brittle": func(c *Config) {
			c.Bond.Stiffness = 800
			c.Bond.BreakThreshold = 0.12
			c.Bond.EnergyTransferRate = 0.95
		},
	},
	"wall": {
		"brittle": func(c *Config) {
			c.Bond.BreakThreshold = 0.1
			c.Bond.EnergyTransferRate = 0.9
		},
		"tough": func(c *Config) {
			c.Bond.Stiffness = 4000
			c.Bond.Damping = 25
			c.Bond.BreakThreshold = 0.8
		},
	},
	"drop": {
		"bouncy": func(c *Config) {
			c.Restitution = 0.6
			c.Friction = 0.2
		},
		"sticky": func(c *Config) {
			c.Restitution = 0
			c.Friction = 1.5
			c.RestSpeed = 0.3
		},
	},
}

// GetPreset returns a config for the named preset, or nil if unknown.
func GetPreset(scenario, name string) *Config {
	apply, ok := presets[scenario][name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Scenario = scenario
	apply(cfg)
	return cfg
}

// ListPresets returns the preset names available for a scenario.
func ListPresets(scenario string) []string {
	names := make([]string, 0, len(presets[scenario]))
	for name := range presets[scenario] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
