// Package extension implements timestamped attribute slots for directory
// records.
//
// Each attribute kind is an Item: a registered (key, serialize, merge)
// triple bound to a value type. Records carry a type-erased Extensible bag;
// an Item reads and writes its own slot in any bag it is handed. Kinds are
// registered once at startup in a Registry and looked up by key when
// applying updates received from peer nodes or loaded from disk.
//
// Every slot is a per-field last-writer-wins register. An incoming update
// carries a timestamp; the stored value is replaced only when the incoming
// timestamp is strictly greater than the stored one. Ties and older values
// are discarded. This makes merging commutative, associative, and
// idempotent: the same set of updates applied in any order, any number of
// times, converges to the value with the maximum timestamp.
//
// A timestamp that fails to parse degrades to 0 rather than erroring.
// This bias is deliberate: corrupt or legacy local data always loses to
// any validly-timestamped remote value.
package extension
