package species

import (
	"errors"
	"sort"
	"testing"

	"coronal/internal/plasma"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		symbol string
		z      int
		stages int
	}{
		{"h", 1, 2},
		{"he", 2, 3},
		{"li", 3, 4},
		{"c", 6, 7},
		{"n", 7, 8},
		{"o", 8, 9},
	}
	for _, tt := range tests {
		sp, err := Lookup(tt.symbol)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tt.symbol, err)
		}
		if sp.Z != tt.z {
			t.Errorf("Lookup(%q).Z = %d, want %d", tt.symbol, sp.Z, tt.z)
		}
		if got := sp.Stages(); got != tt.stages {
			t.Errorf("Lookup(%q).Stages() = %d, want %d", tt.symbol, got, tt.stages)
		}
		if len(sp.Ionization) != sp.Z {
			t.Errorf("Lookup(%q): %d ionization entries, want %d", tt.symbol, len(sp.Ionization), sp.Z)
		}
	}
}

func TestLookupNormalizesSymbol(t *testing.T) {
	for _, symbol := range []string{"C", " c ", "c"} {
		sp, err := Lookup(symbol)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", symbol, err)
		}
		if sp.Symbol != "c" {
			t.Errorf("Lookup(%q).Symbol = %q, want %q", symbol, sp.Symbol, "c")
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("unobtainium")
	if !errors.Is(err, plasma.ErrUnknownSpecies) {
		t.Fatalf("Lookup(unknown) error = %v, want ErrUnknownSpecies", err)
	}
}

func TestIonizationDataSane(t *testing.T) {
	for _, sym := range Symbols() {
		sp, err := Lookup(sym)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", sym, err)
		}
		prev := 0.0
		for k, st := range sp.Ionization {
			if st.PotentialEV <= prev {
				t.Errorf("%s stage %d: potential %g eV not above previous %g", sym, k, st.PotentialEV, prev)
			}
			prev = st.PotentialEV
			if st.A <= 0 {
				t.Errorf("%s stage %d: non-positive fit amplitude %g", sym, k, st.A)
			}
			if st.P != 0 && st.P != 1 {
				t.Errorf("%s stage %d: P = %g, want 0 or 1", sym, k, st.P)
			}
		}
	}
}

func TestSymbolsSorted(t *testing.T) {
	syms := Symbols()
	if len(syms) == 0 {
		t.Fatal("Symbols() returned no entries")
	}
	if !sort.StringsAreSorted(syms) {
		t.Errorf("Symbols() not sorted: %v", syms)
	}
}
