package config

import "sort"

func preset(apply func(*Config)) *Config {
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// Presets are complete configurations for the standard scenarios, keyed by
// scenario group then variant. Every entry starts from DefaultConfig, so a
// preset never carries an unusable zero field.
var Presets = map[string]map[string]*Config{
	"equilibrium": {
		"hydrogen": preset(func(c *Config) {
			c.Species = "h"
			c.Te = 50
			c.Ne = 1e19
		}),
		"carbon": preset(func(c *Config) {
			c.Species = "c"
			c.Te = 50
			c.Ne = 1e19
		}),
		"nitrogen": preset(func(c *Config) {
			c.Species = "n"
			c.Te = 50
			c.Ne = 1e19
		}),
		"cold": preset(func(c *Config) {
			c.Species = "h"
			c.Te = 1.294
			c.Ne = 1e14
		}),
	},
	// Refuelling rates follow r = Ne/(Ne*tau) at Ne = 1e19 m^-3 for
	// Ne*tau of 1e21, 1e19, 1e17 and 1e15 m^-3 s.
	"refuelling": {
		"weak": preset(func(c *Config) {
			c.Species = "c"
			c.Te = 50
			c.Ne = 1e19
			c.RefuelRate = 1e-2
			c.Density = 1e19
		}),
		"moderate": preset(func(c *Config) {
			c.Species = "c"
			c.Te = 50
			c.Ne = 1e19
			c.RefuelRate = 1
			c.Density = 1e19
		}),
		"strong": preset(func(c *Config) {
			c.Species = "c"
			c.Te = 50
			c.Ne = 1e19
			c.RefuelRate = 1e2
			c.Density = 1e19
		}),
		"extreme": preset(func(c *Config) {
			c.Species = "c"
			c.Te = 50
			c.Ne = 1e19
			c.RefuelRate = 1e4
			c.Density = 1e19
		}),
	},
	"ensemble": {
		"quick": preset(func(c *Config) {
			c.Te = 50
			c.Ne = 1e19
			c.Ensemble.Samples = 10
		}),
		"full": preset(func(c *Config) {
			c.Te = 50
			c.Ne = 1e19
		}),
		"deep": preset(func(c *Config) {
			c.Te = 50
			c.Ne = 1e19
			c.Ensemble.Samples = 200
		}),
	},
}

func GetPreset(group, name string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetGroups returns the scenario group names in sorted order.
func PresetGroups() []string {
	groups := make([]string, 0, len(Presets))
	for group := range Presets {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups
}
