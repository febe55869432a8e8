package migrate

import (
	"context"
	"fmt"
	"sync"
)

// MigrationFunc is one direction of a migration. A nil func is a recorded
// no-op for that direction.
type MigrationFunc func(ctx context.Context, m *Migrator) error

// Migration pairs the upgrade and downgrade handlers registered under one
// migration name.
type Migration struct {
	Name string
	Up   MigrationFunc
	Down MigrationFunc
}

// Registry maps migration names to their compiled-in handlers. Migration
// files register themselves in init; the repository resolves the handler for
// each on-disk file through the registry at run time.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Migration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Migration)}
}

// Add registers handlers under a name. A duplicate name is a programmer error
// (two files claiming the same identity) and panics at init time.
func (r *Registry) Add(name string, up, down MigrationFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("migrate: duplicate registration of migration %q", name))
	}
	r.entries[name] = &Migration{Name: name, Up: up, Down: down}
}

// Find returns the handlers registered under name.
func (r *Registry) Find(name string) (*Migration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	return entry, ok
}

var defaultRegistry = NewRegistry()

// Register adds a migration to the default registry. Generated migration
// files call this from init.
func Register(name string, up, down MigrationFunc) {
	defaultRegistry.Add(name, up, down)
}

// DefaultRegistry returns the registry generated migration files feed.
func DefaultRegistry() *Registry { return defaultRegistry }
