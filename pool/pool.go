/*
Package pool provides the result storage of stream networks.

Pool maps hierarchical keys, like "lowlevel.spectrum", to values. Keys
are split by dots when the pool is serialized, so related descriptors end
up grouped together:

    lowlevel:
        rms: [0.12, 0.10]
        spectrum: [[...], [...]]

Values are stored either as a sequence (Add) or as a single value (Set).
A key holds only one of them.
*/
package pool

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidKey is returned for empty keys and keys with empty parts.
	ErrInvalidKey = errors.New("invalid key")
	// ErrKeyConflict is returned when a key is used both as a value and
	// as a parent of other keys, or both with Add and Set.
	ErrKeyConflict = errors.New("key conflict")
)

// Pool is a concurrency-safe storage of named values.
type Pool struct {
	sync.Mutex
	added  map[string][]interface{}
	single map[string]interface{}
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{
		added:  make(map[string][]interface{}),
		single: make(map[string]interface{}),
	}
}

// Add appends the value to the sequence stored under the key.
func (p *Pool) Add(key string, v interface{}) error {
	if err := validKey(key); err != nil {
		return err
	}
	p.Lock()
	defer p.Unlock()
	if _, ok := p.single[key]; ok {
		return fmt.Errorf("%w: %q already set as single value", ErrKeyConflict, key)
	}
	p.added[key] = append(p.added[key], v)
	return nil
}

// Set stores a single value under the key, replacing the previous one.
func (p *Pool) Set(key string, v interface{}) error {
	if err := validKey(key); err != nil {
		return err
	}
	p.Lock()
	defer p.Unlock()
	if _, ok := p.added[key]; ok {
		return fmt.Errorf("%w: %q already holds a sequence", ErrKeyConflict, key)
	}
	p.single[key] = v
	return nil
}

// Get returns the sequence stored under the key.
func (p *Pool) Get(key string) ([]interface{}, bool) {
	p.Lock()
	defer p.Unlock()
	values, ok := p.added[key]
	return values, ok
}

// Value returns the single value stored under the key.
func (p *Pool) Value(key string) (interface{}, bool) {
	p.Lock()
	defer p.Unlock()
	v, ok := p.single[key]
	return v, ok
}

// Contains returns true if any value is stored under the key.
func (p *Pool) Contains(key string) bool {
	p.Lock()
	defer p.Unlock()
	_, added := p.added[key]
	_, single := p.single[key]
	return added || single
}

// Remove deletes the key.
func (p *Pool) Remove(key string) {
	p.Lock()
	defer p.Unlock()
	delete(p.added, key)
	delete(p.single, key)
}

// Clear deletes all keys.
func (p *Pool) Clear() {
	p.Lock()
	defer p.Unlock()
	p.added = make(map[string][]interface{})
	p.single = make(map[string]interface{})
}

// Keys returns all keys in sorted order.
func (p *Pool) Keys() []string {
	p.Lock()
	defer p.Unlock()
	keys := make([]string, 0, len(p.added)+len(p.single))
	for k := range p.added {
		keys = append(keys, k)
	}
	for k := range p.single {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tree returns values nested by key parts.
func (p *Pool) Tree() (map[string]interface{}, error) {
	p.Lock()
	defer p.Unlock()
	tree := make(map[string]interface{})
	for k, v := range p.added {
		if err := insert(tree, k, v); err != nil {
			return nil, err
		}
	}
	for k, v := range p.single {
		if err := insert(tree, k, v); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// MarshalYAML implements yaml.Marshaler.
func (p *Pool) MarshalYAML() (interface{}, error) {
	return p.Tree()
}

// WriteYAML serializes the pool.
func (p *Pool) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(4)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode pool: %w", err)
	}
	return enc.Close()
}

func insert(tree map[string]interface{}, key string, v interface{}) error {
	parts := strings.Split(key, ".")
	node := tree
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part]
		if !ok {
			next := make(map[string]interface{})
			node[part] = next
			node = next
			continue
		}
		next, ok := child.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: %q has a value at %q", ErrKeyConflict, key, part)
		}
		node = next
	}
	last := parts[len(parts)-1]
	if _, ok := node[last]; ok {
		return fmt.Errorf("%w: %q is a parent of other keys", ErrKeyConflict, key)
	}
	node[last] = v
	return nil
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	for _, part := range strings.Split(key, ".") {
		if part == "" {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
