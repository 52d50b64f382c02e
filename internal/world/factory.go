package world

import (
	"log/slog"
	"slices"
	"strings"
)

// Constructor builds the behavior for a new entity of one class.
type Constructor func() Behavior

// Factory maps classnames to constructors. Classnames are case-insensitive.
type Factory struct {
	ctors     map[string]Constructor
	precached []string
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{ctors: make(map[string]Constructor)}
}

// Register links classname to ctor. A second registration replaces the first.
func (f *Factory) Register(classname string, ctor Constructor) {
	key := strings.ToLower(classname)
	if _, dup := f.ctors[key]; dup {
		slog.Warn("entity class registered twice", "classname", classname)
	}
	f.ctors[key] = ctor
}

// PrecacheOnLoad marks classname to be precached with every level, for
// classes that are created at runtime rather than placed in maps.
func (f *Factory) PrecacheOnLoad(classname string) {
	key := strings.ToLower(classname)
	if !slices.Contains(f.precached, key) {
		f.precached = append(f.precached, key)
	}
}

// PrecacheClasses returns the classes marked with PrecacheOnLoad.
func (f *Factory) PrecacheClasses() []string {
	return slices.Clone(f.precached)
}

// Has reports whether classname is registered.
func (f *Factory) Has(classname string) bool {
	_, ok := f.ctors[strings.ToLower(classname)]
	return ok
}

// Classnames returns all registered classnames, sorted.
func (f *Factory) Classnames() []string {
	names := make([]string, 0, len(f.ctors))
	for name := range f.ctors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (f *Factory) create(classname string) (Behavior, bool) {
	ctor, ok := f.ctors[strings.ToLower(classname)]
	if !ok {
		return nil, false
	}
	return ctor(), true
}
