package node

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kestrelchat/kestreld/internal/account"
	"github.com/kestrelchat/kestreld/internal/directory"
	"github.com/kestrelchat/kestreld/internal/extension"
)

// Replication commands. One frame per line, fields space-separated.
//
//	ACCTADD <name> <created>
//	ACCTSET <name> <created> <field> <fieldts> [:]<payload>
//	ACCTDEL <name> <created>
//	ACCTBURST BEGIN | ACCTBURST END
//
// <created> is the record's creation timestamp and doubles as its
// identity: an ACCTSET or ACCTDEL whose <created> does not match the
// local record refers to a different incarnation of the name and is
// dropped. Everything after <field> is the field's wire serialization,
// with the ":" marker protecting payloads that contain spaces.
const (
	cmdAdd   = "ACCTADD"
	cmdSet   = "ACCTSET"
	cmdDel   = "ACCTDEL"
	cmdBurst = "ACCTBURST"

	burstBegin = "BEGIN"
	burstEnd   = "END"
)

// Built-in field names as they appear in ACCTSET frames. Extension
// attributes use their registry key.
const (
	FieldCredentials  = "credentials"
	FieldConnectClass = "connectclass"
)

// Codec translates between directory state and replication frames. It
// must only be driven from the node's Run goroutine: applies mutate the
// directory without locking.
//
// Applies are silent. A frame reflects state the sender already has, so
// nothing a frame causes locally is re-broadcast; the only outbound
// traffic an apply produces is the explicit counter-frames it returns.
type Codec struct {
	dir *directory.Directory
}

// NewCodec creates a codec bound to a directory.
func NewCodec(dir *directory.Directory) *Codec {
	return &Codec{dir: dir}
}

// EncodeAccount renders a full record: one ACCTADD followed by an
// ACCTSET per populated field.
func (c *Codec) EncodeAccount(rec *account.Record) []string {
	lines := []string{fmt.Sprintf("%s %s %d", cmdAdd, rec.Name(), rec.TS())}
	for _, field := range []string{FieldCredentials, FieldConnectClass} {
		if line := c.EncodeUpdate(rec, field); line != "" {
			lines = append(lines, line)
		}
	}
	for _, f := range c.dir.Registry().SerializeAll(extension.FormatWire, rec.Ext) {
		lines = append(lines, c.setLine(rec, f.Key, f.Text))
	}
	return lines
}

// EncodeUpdate renders a single-field ACCTSET. Returns "" when the
// field is unset, which callers treat as nothing to send.
func (c *Codec) EncodeUpdate(rec *account.Record, field string) string {
	switch field {
	case FieldCredentials:
		if rec.CredentialTS() == 0 {
			return ""
		}
		text := strconv.FormatInt(rec.CredentialTS(), 10) + " :" +
			rec.CredentialHash() + " " + rec.CredentialAlgorithm()
		return c.setLine(rec, field, text)
	case FieldConnectClass:
		if rec.ConnectClassTS() == 0 {
			return ""
		}
		text := strconv.FormatInt(rec.ConnectClassTS(), 10) + " :" + rec.ConnectClass()
		return c.setLine(rec, field, text)
	default:
		item, ok := c.dir.Registry().Lookup(field)
		if !ok {
			return ""
		}
		text := item.Serialize(extension.FormatWire, rec.Ext)
		if text == "" {
			return ""
		}
		return c.setLine(rec, field, text)
	}
}

// EncodeRemoval renders an ACCTDEL.
func (c *Codec) EncodeRemoval(name string, ts int64) string {
	return fmt.Sprintf("%s %s %d", cmdDel, name, ts)
}

// EncodeSnapshot renders the whole directory in name order, bracketed
// by burst markers so the receiver reconciles it as one unit.
func (c *Codec) EncodeSnapshot() []string {
	snap := c.dir.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{cmdBurst + " " + burstBegin}
	for _, name := range names {
		lines = append(lines, c.EncodeAccount(snap[name])...)
	}
	return append(lines, cmdBurst+" "+burstEnd)
}

func (c *Codec) setLine(rec *account.Record, field, wireText string) string {
	return fmt.Sprintf("%s %s %d %s %s", cmdSet, rec.Name(), rec.TS(), field, wireText)
}

// Apply merges one frame into the directory. The returned lines are
// counter-frames the caller must send, currently only the removal that
// answers a create losing a name collision. Malformed frames and
// unknown commands return an error; stale or unknown references apply
// as no-ops, which is what makes replay and reordering safe.
func (c *Codec) Apply(line string) ([]string, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case cmdAdd:
		return c.applyAdd(rest)
	case cmdSet:
		return nil, c.applySet(rest)
	case cmdDel:
		return nil, c.applyDel(rest)
	default:
		return nil, fmt.Errorf("unknown replication command %q", cmd)
	}
}

// applyAdd handles a remote create. A collision between two creations
// of the same name resolves toward the smaller creation timestamp, so
// both sides independently keep the same record; the loser is removed
// and, when the remote side held it, a counter-removal is sent back.
func (c *Codec) applyAdd(rest string) ([]string, error) {
	name, tsStr, ok := strings.Cut(rest, " ")
	if !ok {
		return nil, fmt.Errorf("malformed %s frame %q", cmdAdd, rest)
	}
	ts := extension.ParseTimestamp(tsStr)

	existing := c.dir.GetAccount(name, false)
	switch {
	case existing == nil:
		c.dir.AddAccount(false, name, ts, "", "", 0, "", 0)
	case existing.TS() == ts:
		// Same identity, already known.
	case ts < existing.TS():
		// The remote copy is older: drop ours and adopt theirs.
		c.dir.RemoveAccount(true, existing)
		c.dir.AddAccount(false, name, ts, "", "", 0, "", 0)
	default:
		// Ours is older: tell the remote side to drop its copy.
		return []string{c.EncodeRemoval(name, ts)}, nil
	}
	return nil, nil
}

func (c *Codec) applySet(rest string) error {
	// <name> <created> <field> <wiretext>
	parts := strings.SplitN(rest, " ", 4)
	if len(parts) < 4 {
		return fmt.Errorf("malformed %s frame %q", cmdSet, rest)
	}
	name, tsStr, field, text := parts[0], parts[1], parts[2], parts[3]

	rec := c.dir.GetAccount(name, false)
	if rec == nil || rec.TS() != extension.ParseTimestamp(tsStr) {
		// Unknown or superseded incarnation of the name.
		return nil
	}

	switch field {
	case FieldCredentials:
		fieldTS, payload, _ := extension.Split(extension.FormatWire, text)
		hash, alg, _ := strings.Cut(payload, " ")
		rec.SetCredentials(hash, alg, fieldTS)
	case FieldConnectClass:
		fieldTS, payload, _ := extension.Split(extension.FormatWire, text)
		rec.SetConnectClass(payload, fieldTS)
	default:
		// Unknown attribute kinds are skipped: nodes with differing
		// plugin sets still link.
		c.dir.Registry().Unserialize(field, extension.FormatWire, rec.Ext, text)
	}
	return nil
}

func (c *Codec) applyDel(rest string) error {
	name, tsStr, ok := strings.Cut(rest, " ")
	if !ok {
		return fmt.Errorf("malformed %s frame %q", cmdDel, rest)
	}
	rec := c.dir.GetAccount(name, false)
	if rec == nil || rec.TS() != extension.ParseTimestamp(tsStr) {
		return nil
	}
	c.dir.RemoveAccount(false, rec)
	return nil
}

// ApplyBurst merges a full remote snapshot, the lines between the burst
// markers. The frames build a staging directory which is then
// reconciled into the live one, so collision decisions are made
// record-against-record rather than frame by frame.
func (c *Codec) ApplyBurst(lines []string) error {
	staging := directory.New(c.dir.Registry())
	sc := NewCodec(staging)
	for _, line := range lines {
		if _, err := sc.Apply(line); err != nil {
			return fmt.Errorf("burst: %w", err)
		}
	}
	c.dir.Reconcile(staging.Snapshot())
	return nil
}
