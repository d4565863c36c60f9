package extension

import "fmt"

// Registry holds the attribute kinds known to this node, keyed by slot
// name. Kinds are registered once at startup; the replication codec and
// the persistence layer look them up by key to apply updates generically.
//
// Registration order is preserved so that full-record sweeps (bursts,
// persistence) emit fields in a stable order on every node.
type Registry struct {
	order []Item
	byKey map[string]Item
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Item)}
}

// Register adds an attribute kind. Registering a second kind under the
// same key is a configuration error.
func (r *Registry) Register(item Item) error {
	key := item.Key()
	if _, exists := r.byKey[key]; exists {
		return fmt.Errorf("attribute %q already registered", key)
	}
	r.byKey[key] = item
	r.order = append(r.order, item)
	return nil
}

// MustRegister is Register for startup wiring, where a duplicate key is a
// programming error.
func (r *Registry) MustRegister(item Item) {
	if err := r.Register(item); err != nil {
		panic(err)
	}
}

// Lookup returns the kind registered under key.
func (r *Registry) Lookup(key string) (Item, bool) {
	item, ok := r.byKey[key]
	return item, ok
}

// Items returns all registered kinds in registration order.
func (r *Registry) Items() []Item {
	return r.order
}

// SerializeAll renders every populated slot of the container in the given
// format, in registration order. Unset slots are skipped.
func (r *Registry) SerializeAll(format Format, c *Extensible) []SerializedField {
	var fields []SerializedField
	for _, item := range r.order {
		text := item.Serialize(format, c)
		if text == "" {
			continue
		}
		fields = append(fields, SerializedField{Key: item.Key(), Text: text})
	}
	return fields
}

// Unserialize merges one serialized field into the container. Returns
// false when no kind is registered under key; unknown fields are skipped
// by callers so that nodes with differing attribute sets can still link.
func (r *Registry) Unserialize(key string, format Format, c *Extensible, value string) bool {
	item, ok := r.byKey[key]
	if !ok {
		return false
	}
	item.Unserialize(format, c, value)
	return true
}

// SerializedField is one rendered attribute slot.
type SerializedField struct {
	Key  string
	Text string
}
