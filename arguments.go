package loom

import (
	"fmt"
	"sort"
)

// Arguments is the argument bag passed into template rendering and function
// invocation. Lookup is by name; insertion order is preserved only for debug
// dumps.
//
// Arguments is read-only from the renderer's point of view: rendering never
// writes into the bag. Callers may write results back between render passes.
//
// Not safe for concurrent mutation. Register everything before rendering.
type Arguments struct {
	values map[string]any
	order  []string
}

// NewArguments creates an argument bag, optionally seeded from a map.
// Seeded keys are recorded in sorted order so debug dumps are deterministic.
func NewArguments(seed map[string]any) *Arguments {
	a := &Arguments{
		values: make(map[string]any, len(seed)),
		order:  make([]string, 0, len(seed)),
	}
	keys := make([]string, 0, len(seed))
	for k := range seed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.values[k] = seed[k]
		a.order = append(a.order, k)
	}
	return a
}

// Set stores a value under name, replacing any previous value.
// Returns the bag for chaining.
func (a *Arguments) Set(name string, value any) *Arguments {
	if _, exists := a.values[name]; !exists {
		a.order = append(a.order, name)
	}
	a.values[name] = value
	return a
}

// Get returns the value for name and whether it was present.
func (a *Arguments) Get(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[name]
	return v, ok
}

// GetString returns the value for name coerced to a string.
// Missing keys return "" - the template dialect treats unknown variables
// as empty, not as errors.
func (a *Arguments) GetString(name string) string {
	v, ok := a.Get(name)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Len returns the number of entries in the bag.
func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.values)
}

// Names returns the argument names in insertion order.
func (a *Arguments) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Clone returns a shallow copy. Values are shared; the key set is not.
func (a *Arguments) Clone() *Arguments {
	clone := &Arguments{
		values: make(map[string]any, len(a.values)),
		order:  make([]string, len(a.order)),
	}
	for k, v := range a.values {
		clone.values[k] = v
	}
	copy(clone.order, a.order)
	return clone
}

// Stringify coerces a function result or argument value to text content.
// nil becomes the empty string; strings pass through; everything else goes
// through fmt.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
