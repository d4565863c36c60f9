package extension

import (
	"strconv"
	"strings"
)

// Item is one registered attribute kind. An Item owns the slot named by
// its key in every bag it is handed: it knows how to render the slot for
// the wire or for storage, and how to merge an incoming serialized value
// into the slot under last-writer-wins rules.
type Item interface {
	// Key identifies the slot this item owns.
	Key() string

	// Serialize renders the slot's current value in the given format.
	// Returns "" when the slot has never been set.
	Serialize(format Format, container *Extensible) string

	// Unserialize merges serialized text into the slot. The stored value
	// is replaced only when the incoming timestamp is strictly greater
	// than the stored one (or nothing is stored yet).
	Unserialize(format Format, container *Extensible, value string)

	// Unset clears the slot.
	Unset(container *Extensible)
}

// ParseTimestamp parses a serialized timestamp. Malformed or negative
// text parses as 0, so it loses to any validly-timestamped value.
func ParseTimestamp(s string) int64 {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ts < 0 {
		return 0
	}
	return ts
}

// Split splits serialized text into timestamp and payload on the
// first space. hasPayload is false when the text holds only a timestamp;
// the caller substitutes the kind's default in that case. For the wire
// format the ":" payload marker is stripped before the payload is
// returned.
func Split(format Format, value string) (ts int64, payload string, hasPayload bool) {
	idx := strings.IndexByte(value, ' ')
	if idx < 0 {
		return ParseTimestamp(value), "", false
	}
	ts = ParseTimestamp(value[:idx])
	payload = value[idx+1:]
	if format == FormatWire {
		payload = strings.TrimPrefix(payload, ":")
	}
	return ts, payload, true
}
