package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Species != "h" {
		t.Errorf("expected species h, got %s", cfg.Species)
	}
	if cfg.Method != "rosenbrock" {
		t.Errorf("expected method rosenbrock, got %s", cfg.Method)
	}
	if cfg.Tolerance <= 0 {
		t.Error("tolerance should be positive")
	}
	if cfg.Grid.Points != 200 {
		t.Errorf("expected 200 grid points, got %d", cfg.Grid.Points)
	}
	if len(cfg.Channels) == 0 {
		t.Error("expected default channels")
	}
}

func TestTimes(t *testing.T) {
	cfg := DefaultConfig()
	times := cfg.Times()

	if len(times) != cfg.Grid.Points {
		t.Fatalf("expected %d times, got %d", cfg.Grid.Points, len(times))
	}
	if rel := math.Abs(times[0]-cfg.Grid.Start) / cfg.Grid.Start; rel > 1e-12 {
		t.Errorf("times[0] = %g, want %g", times[0], cfg.Grid.Start)
	}
	if rel := math.Abs(times[len(times)-1]-cfg.Grid.End) / cfg.Grid.End; rel > 1e-12 {
		t.Errorf("times[last] = %g, want %g", times[len(times)-1], cfg.Grid.End)
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			t.Fatalf("times not strictly increasing at %d", i)
		}
	}
}

func TestInitialState(t *testing.T) {
	cfg := DefaultConfig()
	state := cfg.InitialState(7)

	if len(state) != 7 {
		t.Fatalf("expected 7 stages, got %d", len(state))
	}
	if state[0] != cfg.Density {
		t.Errorf("ground state = %g, want %g", state[0], cfg.Density)
	}
	for k := 1; k < len(state); k++ {
		if state[k] != 0 {
			t.Errorf("stage %d = %g, want 0", k, state[k])
		}
	}
}

func TestConditions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Te = 50
	cfg.Ne = 1e19
	cfg.RefuelRate = 2.5

	cond := cfg.Conditions()
	if cond.Te != 50 || cond.Ne != 1e19 || cond.RefuelRate != 2.5 {
		t.Errorf("conditions = %+v, want te=50 ne=1e19 refuel=2.5", cond)
	}
	if err := cond.Validate(); err != nil {
		t.Errorf("default-derived conditions invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := []byte("species: c\nte: 50\ngrid:\n  points: 50\n")
	if err := os.WriteFile(path, doc, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Species != "c" {
		t.Errorf("expected species c, got %s", cfg.Species)
	}
	if cfg.Te != 50 {
		t.Errorf("expected te 50, got %g", cfg.Te)
	}
	if cfg.Grid.Points != 50 {
		t.Errorf("expected 50 grid points, got %d", cfg.Grid.Points)
	}
	if cfg.Ne != DefaultNe {
		t.Errorf("unset field should keep default, got ne=%g", cfg.Ne)
	}
	if cfg.Grid.Start != DefaultGridStart || cfg.Grid.End != DefaultGridEnd {
		t.Errorf("unset grid bounds should keep defaults, got [%g, %g]",
			cfg.Grid.Start, cfg.Grid.End)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := GetPreset("refuelling", "moderate")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Species != cfg.Species || loaded.RefuelRate != cfg.RefuelRate {
		t.Errorf("round trip changed config: got %+v", loaded)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("refuelling", "moderate")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Species != "c" {
		t.Errorf("expected species c, got %s", cfg.Species)
	}
	if cfg.RefuelRate != 1 {
		t.Errorf("expected refuel rate 1, got %g", cfg.RefuelRate)
	}
	if cfg.Grid.Points != DefaultGridCount {
		t.Errorf("preset should carry full grid, got %d points", cfg.Grid.Points)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("refuelling", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "weak")
	if cfg != nil {
		t.Error("expected nil for nonexistent group")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("equilibrium")
	if len(presets) == 0 {
		t.Error("expected presets for equilibrium")
	}
	for i := 1; i < len(presets); i++ {
		if presets[i] < presets[i-1] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent group")
	}
}

func TestPresetGroups(t *testing.T) {
	groups := PresetGroups()
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %v", groups)
	}
	if groups[0] != "ensemble" || groups[1] != "equilibrium" || groups[2] != "refuelling" {
		t.Errorf("unexpected group order: %v", groups)
	}
}
