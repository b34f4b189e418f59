package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDialectRequired is returned when a dialect is required but not provided.
var ErrDialectRequired = errors.New("dialect is required")

// ErrUnknownDialect is returned when a registry has no dialect of the requested name.
var ErrUnknownDialect = errors.New("unknown dialect")

// Registry is an immutable, name-keyed set of dialects. It is built once
// and passed explicitly; there is no process-wide registry.
type Registry struct {
	byName map[string]*Dialect
	names  []string // sorted
}

// NewRegistry creates a registry. A later dialect replaces an earlier one
// of the same name.
func NewRegistry(ds ...*Dialect) *Registry {
	r := &Registry{byName: make(map[string]*Dialect, len(ds))}
	for _, d := range ds {
		r.byName[strings.ToLower(d.Name)] = d
	}
	r.names = make([]string, 0, len(r.byName))
	for name := range r.byName {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// With returns a new registry that also contains ds, replacing dialects of
// the same name. r is unchanged.
func (r *Registry) With(ds ...*Dialect) *Registry {
	return NewRegistry(append(r.All(), ds...)...)
}

// Get returns a dialect by name.
func (r *Registry) Get(name string) (*Dialect, bool) {
	d, ok := r.byName[strings.ToLower(name)]
	return d, ok
}

// Lookup returns a dialect by name or an error wrapping ErrUnknownDialect.
func (r *Registry) Lookup(name string) (*Dialect, error) {
	if name == "" {
		return nil, ErrDialectRequired
	}
	d, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownDialect, name, strings.Join(r.names, ", "))
	}
	return d, nil
}

// List returns all dialect names (sorted).
func (r *Registry) List() []string {
	return append([]string(nil), r.names...)
}

// All returns all dialects ordered by name.
func (r *Registry) All() []*Dialect {
	out := make([]*Dialect, len(r.names))
	for i, name := range r.names {
		out[i] = r.byName[name]
	}
	return out
}
