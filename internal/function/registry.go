package function

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps function names to overloads. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	overloads map[string]Overload
}

func NewRegistry() *Registry {
	return &Registry{overloads: make(map[string]Overload)}
}

// Register adds o under its own name. Registering a name twice is an error.
func (r *Registry) Register(o Overload) error {
	if o == nil || o.Name() == "" {
		return fmt.Errorf("function name required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.overloads[o.Name()]; ok {
		return fmt.Errorf("function %s already registered", o.Name())
	}
	r.overloads[o.Name()] = o
	return nil
}

func (r *Registry) Resolve(name string) (Overload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.overloads[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return o, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.overloads))
	for name := range r.overloads {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
