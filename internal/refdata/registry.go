package refdata

import (
	"sync"

	"github.com/rendis/triago/pkg/schema"
)

// Registry holds the current reference data snapshot and supports atomic
// replacement. Readers always see a complete, validated Set; a failed
// reload keeps the last good snapshot.
type Registry struct {
	dir string

	mu  sync.RWMutex
	set *Set
}

// NewRegistry loads the reference tables from dir and returns a Registry
// serving that snapshot. Load failures are returned to the caller and are
// fatal at startup.
func NewRegistry(dir string) (*Registry, error) {
	set, err := Load(dir)
	if err != nil {
		return nil, err
	}
	return &Registry{dir: dir, set: set}, nil
}

// NewStaticRegistry wraps a pre-built Set. Reload is a no-op; used by tests.
func NewStaticRegistry(set *Set) *Registry {
	return &Registry{set: set}
}

// Current returns the active snapshot.
func (r *Registry) Current() *Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set
}

// Reload re-reads and re-validates the tables, swapping the snapshot only
// on success.
func (r *Registry) Reload() error {
	if r.dir == "" {
		return nil
	}
	set, err := Load(r.dir)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.set = set
	r.mu.Unlock()
	return nil
}

// Registry satisfies Provider by delegating to the current snapshot, so
// long-lived consumers observe reloads without re-wiring.

// Rules returns the keyword rules in file order.
func (r *Registry) Rules() []KeywordRule { return r.Current().Rules() }

// OrderByID returns the order with the given ID, exact match only.
func (r *Registry) OrderByID(orderID string) (schema.Order, bool) {
	return r.Current().OrderByID(orderID)
}

// Orders returns all orders in file order.
func (r *Registry) Orders() []schema.Order { return r.Current().Orders() }

// Template returns the reply template for an issue type.
func (r *Registry) Template(issue schema.IssueType) (string, bool) {
	return r.Current().Template(issue)
}
