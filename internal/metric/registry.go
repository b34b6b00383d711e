package metric

import "sync"

// Registry holds named metrics with independent enable flags. Registration
// order defines dispatch order, so analysis results are deterministic for
// a fixed registration sequence.
//
// Lookups during analysis take a read lock and copy metric handles out, so
// metric execution never runs while holding the registry lock.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

type entry struct {
	metric  Metric
	enabled bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register inserts m with enabled=true. It returns false, leaving the
// registry unchanged, if a metric with the same name already exists.
func (r *Registry) Register(m Metric) bool {
	if m == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	if _, exists := r.entries[name]; exists {
		return false
	}
	r.entries[name] = &entry{metric: m, enabled: true}
	r.order = append(r.order, name)
	return true
}

// Enable sets the enabled flag for the named metric. Unknown names are a
// no-op.
func (r *Registry) Enable(name string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		e.enabled = enabled
	}
}

// Enabled returns the names of currently enabled metrics in registration
// order.
func (r *Registry) Enabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.entries[name].enabled {
			names = append(names, name)
		}
	}
	return names
}

// Names returns all registered metric names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Get returns the named metric and whether it exists.
func (r *Registry) Get(name string) (Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.metric, true
}

// Resolve copies out the metric handle for each requested name under one
// read lock. Missing names yield a nil slot, reported at dispatch time as
// a failed result rather than dropped silently.
func (r *Registry) Resolve(names []string) []Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Metric, len(names))
	for i, name := range names {
		if e, ok := r.entries[name]; ok {
			out[i] = e.metric
		}
	}
	return out
}
