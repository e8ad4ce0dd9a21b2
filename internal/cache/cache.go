// Package cache persists computed sweep and probe results keyed by the
// parameters that produced them, so repeated invocations with the same
// configuration can skip hours of re-integration.
//
// The cache stores encoded payloads opaquely. Entries whose schema version
// no longer matches are reported as misses, which makes a stale cache
// self-healing: the caller recomputes and overwrites.
package cache

import (
	"context"
	"fmt"
	"time"
)

// CurrentSchemaVersion stamps new entries. Bump it when the encoded payload
// layout changes incompatibly.
const CurrentSchemaVersion = 1

// Key identifies one cached result by everything that determines it.
type Key struct {
	// Kind names the sweep or probe that produced the payload, for
	// example "scan-te" or "spread".
	Kind string

	// Species is the impurity species symbol.
	Species string

	// Method and Tolerance pin the stepper the payload was computed with.
	Method    string
	Tolerance float64

	Te         float64
	Ne         float64
	RefuelRate float64

	// TeMin/TeMax and NeMin/NeMax are the swept axis bounds; zero when
	// that parameter is fixed rather than swept.
	TeMin float64
	TeMax float64
	NeMin float64
	NeMax float64

	// TStart, TEnd and TPoints describe the per-run output time grid.
	TStart  float64
	TEnd    float64
	TPoints int

	// Density is the initial ground-state density, Carry the terminal
	// carry-over policy of a temperature sweep, Seed the ensemble random
	// seed.
	Density float64
	Carry   bool
	Seed    int64

	// Points is the sweep axis or sample resolution. Inner is the second
	// axis resolution of a nested sweep and zero otherwise.
	Points int
	Inner  int
}

// String renders the key in a stable form usable as a primary key. Floats
// are rendered round-trip exact, so two keys collide only when every
// parameter is bit-identical.
func (k Key) String() string {
	res := fmt.Sprintf("%d", k.Points)
	if k.Inner > 0 {
		res = fmt.Sprintf("%dx%d", k.Points, k.Inner)
	}
	return fmt.Sprintf("%s(%s)(%s,tol=%.17g)(te=%.17g,ne=%.17g,r=%.17g)"+
		"(te-axis=%.17g:%.17g,ne-axis=%.17g:%.17g)(t=%.17g:%.17g:%d)"+
		"(n0=%.17g,carry=%t,seed=%d)(res=%s)",
		k.Kind, k.Species, k.Method, k.Tolerance,
		k.Te, k.Ne, k.RefuelRate,
		k.TeMin, k.TeMax, k.NeMin, k.NeMax,
		k.TStart, k.TEnd, k.TPoints,
		k.Density, k.Carry, k.Seed, res)
}

// Entry is one cached payload with its provenance.
type Entry struct {
	SchemaVersion int
	CreatedAt     time.Time
	Payload       []byte
}

// Store is a keyed result cache. Get reports a miss, not an error, for
// absent keys and for entries written under a different schema version.
type Store interface {
	Init(ctx context.Context) error
	Put(ctx context.Context, key Key, entry Entry) error
	Get(ctx context.Context, key Key) (Entry, bool, error)
}

// NewStore builds a Store backend by name. An empty kind selects the
// in-memory backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", kind)
	}
}

// CloseIfSupported closes backends that hold external resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
