package extension

import "strconv"

// TSItem stores a bare timestamp: the value and its conflict-resolution
// stamp are the same number. Used for "when did this last happen"
// attributes such as a last-login time.
type TSItem struct {
	key string
}

// NewTSItem creates a timestamp-only attribute kind.
func NewTSItem(key string) *TSItem {
	return &TSItem{key: key}
}

func (i *TSItem) Key() string { return i.key }

// Get returns the stored timestamp. ok is false when the slot is unset.
func (i *TSItem) Get(c *Extensible) (ts int64, ok bool) {
	v, ok := c.get(i.key)
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

// Set merges a locally-produced timestamp into the slot.
// Older or equal timestamps are discarded.
func (i *TSItem) Set(c *Extensible, ts int64) bool {
	if cur, ok := i.Get(c); ok && ts <= cur {
		return false
	}
	c.set(i.key, ts)
	return true
}

func (i *TSItem) Serialize(format Format, c *Extensible) string {
	ts, ok := i.Get(c)
	if !ok {
		// Unset, not "set to zero".
		return ""
	}
	return strconv.FormatInt(ts, 10)
}

func (i *TSItem) Unserialize(format Format, c *Extensible, value string) {
	theirs := ParseTimestamp(value)
	if cur, ok := i.Get(c); !ok || theirs > cur {
		c.set(i.key, theirs)
	}
}

func (i *TSItem) Unset(c *Extensible) { c.unset(i.key) }

// TSBool is a timestamped boolean value.
type TSBool struct {
	TS    int64
	Value bool
}

// TSBoolItem stores a timestamped boolean. A payload beginning with '1'
// reads as true; an absent payload defaults to false.
type TSBoolItem struct {
	key string
}

// NewTSBoolItem creates a timestamp+boolean attribute kind.
func NewTSBoolItem(key string) *TSBoolItem {
	return &TSBoolItem{key: key}
}

func (i *TSBoolItem) Key() string { return i.key }

// Get returns the stored pair. ok is false when the slot is unset.
func (i *TSBoolItem) Get(c *Extensible) (TSBool, bool) {
	v, ok := c.get(i.key)
	if !ok {
		return TSBool{}, false
	}
	return v.(TSBool), true
}

// Set merges a locally-produced pair into the slot.
func (i *TSBoolItem) Set(c *Extensible, ts int64, value bool) bool {
	if cur, ok := i.Get(c); ok && ts <= cur.TS {
		return false
	}
	c.set(i.key, TSBool{TS: ts, Value: value})
	return true
}

func (i *TSBoolItem) Serialize(format Format, c *Extensible) string {
	p, ok := i.Get(c)
	if !ok {
		return ""
	}
	payload := "0"
	if p.Value {
		payload = "1"
	}
	return strconv.FormatInt(p.TS, 10) + format.delimiter() + payload
}

func (i *TSBoolItem) Unserialize(format Format, c *Extensible, value string) {
	ts, payload, hasPayload := Split(format, value)
	val := hasPayload && len(payload) > 0 && payload[0] == '1'
	if cur, ok := i.Get(c); !ok || ts > cur.TS {
		c.set(i.key, TSBool{TS: ts, Value: val})
	}
}

func (i *TSBoolItem) Unset(c *Extensible) { c.unset(i.key) }

// TSInt is a timestamped integer value.
type TSInt struct {
	TS    int64
	Value int
}

// TSIntItem stores a timestamped integer. An absent payload falls back to
// the default configured at registration, not to zero.
type TSIntItem struct {
	key          string
	defaultValue int
}

// NewTSIntItem creates a timestamp+integer attribute kind with the given
// absent-payload default.
func NewTSIntItem(key string, defaultValue int) *TSIntItem {
	return &TSIntItem{key: key, defaultValue: defaultValue}
}

func (i *TSIntItem) Key() string { return i.key }

// Default returns the configured absent-payload default.
func (i *TSIntItem) Default() int { return i.defaultValue }

// Get returns the stored pair. ok is false when the slot is unset.
func (i *TSIntItem) Get(c *Extensible) (TSInt, bool) {
	v, ok := c.get(i.key)
	if !ok {
		return TSInt{}, false
	}
	return v.(TSInt), true
}

// Set merges a locally-produced pair into the slot.
func (i *TSIntItem) Set(c *Extensible, ts int64, value int) bool {
	if cur, ok := i.Get(c); ok && ts <= cur.TS {
		return false
	}
	c.set(i.key, TSInt{TS: ts, Value: value})
	return true
}

func (i *TSIntItem) Serialize(format Format, c *Extensible) string {
	p, ok := i.Get(c)
	if !ok {
		return ""
	}
	return strconv.FormatInt(p.TS, 10) + format.delimiter() + strconv.Itoa(p.Value)
}

func (i *TSIntItem) Unserialize(format Format, c *Extensible, value string) {
	ts, payload, hasPayload := Split(format, value)
	val := i.defaultValue
	if hasPayload {
		// Malformed integers read as 0, mirroring the timestamp bias.
		val, _ = strconv.Atoi(payload)
	}
	if cur, ok := i.Get(c); !ok || ts > cur.TS {
		c.set(i.key, TSInt{TS: ts, Value: val})
	}
}

func (i *TSIntItem) Unset(c *Extensible) { c.unset(i.key) }

// TSString is a timestamped string value.
type TSString struct {
	TS    int64
	Value string
}

// TSStringItem stores timestamped free text. The payload may contain
// spaces; the wire format's ":" marker keeps it intact through
// re-tokenizing. An absent payload reads as the empty string.
type TSStringItem struct {
	key string
}

// NewTSStringItem creates a timestamp+string attribute kind.
func NewTSStringItem(key string) *TSStringItem {
	return &TSStringItem{key: key}
}

func (i *TSStringItem) Key() string { return i.key }

// Get returns the stored pair. ok is false when the slot is unset.
func (i *TSStringItem) Get(c *Extensible) (TSString, bool) {
	v, ok := c.get(i.key)
	if !ok {
		return TSString{}, false
	}
	return v.(TSString), true
}

// Set merges a locally-produced pair into the slot.
func (i *TSStringItem) Set(c *Extensible, ts int64, value string) bool {
	if cur, ok := i.Get(c); ok && ts <= cur.TS {
		return false
	}
	c.set(i.key, TSString{TS: ts, Value: value})
	return true
}

func (i *TSStringItem) Serialize(format Format, c *Extensible) string {
	p, ok := i.Get(c)
	if !ok {
		return ""
	}
	return strconv.FormatInt(p.TS, 10) + format.delimiter() + p.Value
}

func (i *TSStringItem) Unserialize(format Format, c *Extensible, value string) {
	ts, payload, _ := Split(format, value)
	if cur, ok := i.Get(c); !ok || ts > cur.TS {
		c.set(i.key, TSString{TS: ts, Value: payload})
	}
}

func (i *TSStringItem) Unset(c *Extensible) { c.unset(i.key) }
