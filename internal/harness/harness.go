package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrelchat/kestreld/internal/directory"
	"github.com/kestrelchat/kestreld/internal/extension"
	"github.com/kestrelchat/kestreld/internal/node"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when both replicas converged and every assertion held.
	Pass bool

	// Converged reports whether the two replay orders reached identical
	// directories.
	Converged bool

	// Dump is the converged directory rendered as replication frames,
	// accounts in name order. Used for golden comparison.
	Dump []string

	// Errors lists convergence and assertion failures. Empty when Pass.
	Errors []string
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario: the operation stream is replayed against two
// fresh replicas, updates in scenario order on one and reversed on the
// other, and the resulting directories are compared frame for frame.
func Run(scenario *Scenario) (*Result, error) {
	forward, err := replay(scenario, false)
	if err != nil {
		return nil, fmt.Errorf("forward replay: %w", err)
	}
	reversed, err := replay(scenario, true)
	if err != nil {
		return nil, fmt.Errorf("reversed replay: %w", err)
	}

	result := &Result{Pass: true}
	dumpA := dump(forward)
	dumpB := dump(reversed)
	result.Dump = dumpA
	result.Converged = strings.Join(dumpA, "\n") == strings.Join(dumpB, "\n")
	if !result.Converged {
		result.AddError("replicas diverged:\nforward:\n%s\nreversed:\n%s",
			strings.Join(dumpA, "\n"), strings.Join(dumpB, "\n"))
	}

	for _, msg := range EvaluateAssertions(forward, scenario.Assertions) {
		result.AddError("%s", msg)
	}
	return result, nil
}

// replay builds one replica from the scenario's operation stream.
// Creations come first, then updates (optionally reversed), then
// removals; reversing creations or removals against the updates would
// test ordering the live protocol never produces.
func replay(scenario *Scenario, reverse bool) (*directory.Directory, error) {
	d := directory.New(node.DefaultRegistry())

	for i, a := range scenario.Accounts {
		if d.AddAccount(false, a.Name, a.TS, "", "", 0, "", 0) == nil {
			return nil, fmt.Errorf("accounts[%d]: duplicate name %q", i, a.Name)
		}
	}

	updates := scenario.Updates
	if reverse {
		updates = make([]UpdateStep, len(scenario.Updates))
		for i, u := range scenario.Updates {
			updates[len(updates)-1-i] = u
		}
	}
	for i, u := range updates {
		if err := applyUpdate(d, u); err != nil {
			return nil, fmt.Errorf("updates[%d]: %w", i, err)
		}
	}

	for _, r := range scenario.Removals {
		rec := d.GetAccount(r.Account, false)
		if rec != nil && rec.TS() == r.TS {
			d.RemoveAccount(false, rec)
		}
	}
	return d, nil
}

func applyUpdate(d *directory.Directory, u UpdateStep) error {
	rec := d.GetAccount(u.Account, false)
	if rec == nil {
		return fmt.Errorf("no such account %q", u.Account)
	}

	switch u.Field {
	case node.FieldCredentials:
		hash, alg, _ := strings.Cut(u.Value, " ")
		rec.SetCredentials(hash, alg, u.TS)
	case node.FieldConnectClass:
		rec.SetConnectClass(u.Value, u.TS)
	default:
		text := strconv.FormatInt(u.TS, 10)
		if u.Value != "" {
			text += " " + u.Value
		}
		if !d.Registry().Unserialize(u.Field, extension.FormatStorage, rec.Ext, text) {
			return fmt.Errorf("unknown field %q", u.Field)
		}
	}
	return nil
}

// dump renders a directory as its burst frames, markers stripped. The
// encoding is deterministic: accounts in name order, fields in
// registration order.
func dump(d *directory.Directory) []string {
	lines := node.NewCodec(d).EncodeSnapshot()
	return lines[1 : len(lines)-1]
}
