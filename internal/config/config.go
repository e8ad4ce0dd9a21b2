package config

import (
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"coronal/internal/plasma"
)

const (
	DefaultSpecies   = "h"
	DefaultMethod    = "rosenbrock"
	DefaultTolerance = 1e-6
	DefaultMaxEvals  = 200000
	DefaultTe        = 1.294
	DefaultNe        = 1e14
	DefaultDensity   = 1e20
	DefaultGridStart = 1e-6
	DefaultGridEnd   = 1e2
	DefaultGridCount = 200
	DefaultSamples   = 50
)

type Config struct {
	Species    string         `yaml:"species"`
	Method     string         `yaml:"method"`
	Tolerance  float64        `yaml:"tolerance"`
	MaxEvals   int            `yaml:"max_evals"`
	Te         float64        `yaml:"te"`
	Ne         float64        `yaml:"ne"`
	RefuelRate float64        `yaml:"refuel_rate"`
	Density    float64        `yaml:"density"`
	Channels   []string       `yaml:"channels"`
	Grid       GridConfig     `yaml:"grid"`
	Store      StoreConfig    `yaml:"store"`
	Cache      CacheConfig    `yaml:"cache"`
	Ensemble   EnsembleConfig `yaml:"ensemble"`
}

type GridConfig struct {
	Start  float64 `yaml:"start"`
	End    float64 `yaml:"end"`
	Points int     `yaml:"points"`
}

type StoreConfig struct {
	Dir string `yaml:"dir"`
}

type CacheConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type EnsembleConfig struct {
	Samples int   `yaml:"samples"`
	Workers int   `yaml:"workers"`
	Seed    int64 `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Species:   DefaultSpecies,
		Method:    DefaultMethod,
		Tolerance: DefaultTolerance,
		MaxEvals:  DefaultMaxEvals,
		Te:        DefaultTe,
		Ne:        DefaultNe,
		Density:   DefaultDensity,
		Channels:  append([]string(nil), plasma.DefaultChannels...),
		Grid: GridConfig{
			Start:  DefaultGridStart,
			End:    DefaultGridEnd,
			Points: DefaultGridCount,
		},
		Store: StoreConfig{Dir: "runs"},
		Cache: CacheConfig{Backend: "sqlite"},
		Ensemble: EnsembleConfig{
			Samples: DefaultSamples,
			Seed:    1,
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

// Times expands the grid section into a log-spaced output grid.
func (c *Config) Times() []float64 {
	return floats.LogSpan(make([]float64, c.Grid.Points), c.Grid.Start, c.Grid.End)
}

// InitialState builds the starting population for a model with the given
// stage count: everything in the ground state at the configured density.
func (c *Config) InitialState(stages int) plasma.State {
	return plasma.GroundState(stages, c.Density)
}

// Conditions assembles the fixed plasma background for a single run.
func (c *Config) Conditions() plasma.Conditions {
	return plasma.Conditions{
		Te:         c.Te,
		Ne:         c.Ne,
		RefuelRate: c.RefuelRate,
	}
}
