package extension

import "sort"

// Extensible is the type-erased attribute bag attached to a directory
// record. Slots are keyed by the owning Item's key; the stored value's
// concrete type is whatever that Item put there. Callers never touch the
// bag directly - all typed access goes through an Item.
//
// Not safe for concurrent use. The bag is mutated only on the node's
// single event-processing goroutine.
type Extensible struct {
	slots map[string]any
}

// NewExtensible returns an empty attribute bag.
func NewExtensible() *Extensible {
	return &Extensible{slots: make(map[string]any)}
}

func (e *Extensible) get(key string) (any, bool) {
	v, ok := e.slots[key]
	return v, ok
}

func (e *Extensible) set(key string, v any) {
	e.slots[key] = v
}

func (e *Extensible) unset(key string) {
	delete(e.slots, key)
}

// Keys returns the keys of all populated slots in sorted order.
// Sorted so that dumps and persistence sweeps are deterministic.
func (e *Extensible) Keys() []string {
	keys := make([]string, 0, len(e.slots))
	for k := range e.slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of populated slots.
func (e *Extensible) Len() int {
	return len(e.slots)
}
