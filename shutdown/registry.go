// Package shutdown stops the service in order: HTTP listener first, then
// the usage writer, then the database, then stray output files.
package shutdown

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Func is a cleanup hook. It should return promptly once ctx is done.
type Func func(ctx context.Context) error

// Priorities used by the serve command. Lower values run first.
const (
	PriorityServer   = 10
	PriorityWorkers  = 20
	PriorityDatabase = 30
	PriorityFiles    = 40
	PriorityLogs     = 90
)

type hook struct {
	name     string
	priority int
	fn       Func
}

// Registry holds cleanup hooks and runs each of them at most once.
type Registry struct {
	mu     sync.Mutex
	hooks  []hook
	closed bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds fn. Hooks with equal priority run in registration order.
// Registering after Run has started is a no-op.
func (r *Registry) Register(name string, priority int, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.hooks = append(r.hooks, hook{name: name, priority: priority, fn: fn})
}

func (r *Registry) sorted() []hook {
	out := make([]hook, len(r.hooks))
	copy(out, r.hooks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].priority < out[j].priority
	})
	return out
}

// Run calls every hook in priority order, continuing past failures. Each
// error is wrapped with the hook's name. A second call returns nil.
func (r *Registry) Run(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	hooks := r.sorted()
	r.mu.Unlock()

	var errs []error
	for _, h := range hooks {
		if err := h.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return errs
}

// Names returns hook names in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	hooks := r.sorted()
	names := make([]string, len(hooks))
	for i, h := range hooks {
		names[i] = h.name
	}
	return names
}
