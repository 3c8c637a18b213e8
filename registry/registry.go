// Package registry provides an explicit factory of algorithms. Networks
// described by name, like pipeline files, are built through a registry.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"pipelined.dev/stream"
	"pipelined.dev/stream/param"
)

var (
	// ErrUnknown is returned when algorithm is not registered.
	ErrUnknown = errors.New("unknown algorithm")
	// ErrDuplicate is returned when algorithm is registered twice.
	ErrDuplicate = errors.New("algorithm already registered")
	// ErrClosed is returned when registry is used after close.
	ErrClosed = errors.New("registry is closed")
)

// Constructor creates a new unconfigured algorithm instance.
type Constructor func() stream.Algorithm

// Entry is a registered algorithm.
type Entry struct {
	Name        string
	Description string
	New         Constructor
}

// Port describes a declared port.
type Port struct {
	Name        string
	Type        string
	Description string
}

// Info describes the interface of registered algorithm.
type Info struct {
	Name        string
	Description string
	Inputs      []Port
	Outputs     []Port
	Parameters  param.Schema
}

// Registry maps algorithm names to constructors. It's safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	closed  bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds a constructor under the name.
func (r *Registry) Register(name, description string, c Constructor) error {
	if name == "" || c == nil {
		return fmt.Errorf("register %q: empty name or constructor", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.entries[name] = Entry{Name: name, Description: description, New: c}
	return nil
}

// Lookup returns the entry registered under the name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns sorted names of registered algorithms.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create returns a new instance of the algorithm configured with the
// parameters. Missing parameters take default values.
func (r *Registry) Create(name string, params param.Map) (stream.Algorithm, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	alg := e.New()
	if err := alg.Configure(params); err != nil {
		return nil, err
	}
	return alg, nil
}

// Describe returns the interface of the algorithm, it creates a
// throwaway instance to inspect declared ports.
func (r *Registry) Describe(name string) (Info, error) {
	e, ok := r.Lookup(name)
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	alg := e.New()
	info := Info{
		Name:        e.Name,
		Description: e.Description,
		Parameters:  alg.Parameters(),
	}
	for _, p := range alg.Inputs() {
		info.Inputs = append(info.Inputs, Port{Name: p.Name(), Type: p.TokenType().String(), Description: p.Description()})
	}
	for _, p := range alg.Outputs() {
		info.Outputs = append(info.Outputs, Port{Name: p.Name(), Type: p.TokenType().String(), Description: p.Description()})
	}
	return info, nil
}

// Close releases all registered entries. Closed registry cannot create
// algorithms.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.entries = make(map[string]Entry)
}
