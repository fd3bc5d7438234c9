// Package seeders fills an empty store with demo data.
//
// Usage (define a seeder in any file in this package):
//
//	func init() {
//	    seeders.Register("products", SeedProducts)
//	}
//
// Then run via CLI: pdv seed
package seeders

import (
	"fmt"
	"sync"

	"github.com/mercadobetel/pdv/app/repositories"
	"github.com/mercadobetel/pdv/pkg/logger"
)

// SeederFunc seeds db and reports how many records it created.
type SeederFunc func(db *repositories.Database) (int, error)

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Result is how many records one seeder created.
type Result struct {
	Name    string
	Created int
}

// RunAll executes every registered seeder in registration order.
// It stops on the first error.
func RunAll(db *repositories.Database) ([]Result, error) {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	out := make([]Result, 0, len(current))
	for _, e := range current {
		n, err := e.fn(db)
		if err != nil {
			return out, fmt.Errorf("seeder %q: %w", e.name, err)
		}
		logger.Info("seed: done", "seeder", e.name, "created", n)
		out = append(out, Result{Name: e.name, Created: n})
	}
	return out, nil
}
