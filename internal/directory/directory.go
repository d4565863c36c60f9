package directory

import (
	"fmt"

	"github.com/kestrelchat/kestreld/internal/account"
	"github.com/kestrelchat/kestreld/internal/extension"
)

// Directory is the authoritative mapping from canonical account name to
// record. Records are created and destroyed only through it; everything
// else holds borrowed references.
type Directory struct {
	records  map[string]*account.Record
	registry *extension.Registry

	listeners   []Listener
	aliasOwners []AliasOwner
}

// New creates an empty directory sharing the node's attribute registry.
func New(registry *extension.Registry) *Directory {
	return &Directory{
		records:  make(map[string]*account.Record),
		registry: registry,
	}
}

// Registry returns the attribute registry records in this directory use.
func (d *Directory) Registry() *extension.Registry {
	return d.registry
}

// AddAccount creates a record. Returns nil if the name (after folding)
// already exists; the existing record is left untouched. When send is
// true the new record is broadcast immediately; pass false to batch local
// mutations or when replaying a remotely-received create.
func (d *Directory) AddAccount(send bool, name string, ts int64, hash, alg string, credTS int64, class string, classTS int64) *account.Record {
	folded := account.NormalizeName(name)
	if _, exists := d.records[folded]; exists {
		return nil
	}
	rec := account.NewRecord(folded, ts)
	rec.InitFields(hash, alg, credTS, class, classTS)
	d.records[folded] = rec
	if send {
		d.SendAccount(rec)
	}
	return rec
}

// GetAccount looks a name up directly. On a miss with resolveAlias set,
// the alias owners are queried and the canonical record, if any, is
// returned. Returns nil when both paths miss.
func (d *Directory) GetAccount(name string, resolveAlias bool) *account.Record {
	folded := account.NormalizeName(name)
	if rec, ok := d.records[folded]; ok {
		return rec
	}
	if !resolveAlias {
		return nil
	}
	if q := d.queryAlias(folded); q != nil {
		return q.Entry
	}
	return nil
}

// RemoveAccount destroys a record. The reference must be currently valid
// and owned by this directory; anything else is a bug at the call site,
// not a runtime condition, and panics. When send is true the removal is
// broadcast as (name, creation timestamp).
func (d *Directory) RemoveAccount(send bool, rec *account.Record) {
	current, ok := d.records[rec.Name()]
	if !ok || current != rec {
		panic(fmt.Sprintf("directory: RemoveAccount with invalid record reference %q", rec.Name()))
	}
	delete(d.records, rec.Name())
	if send {
		d.SendRemoval(rec.Name(), rec.TS())
	}
}

// Snapshot returns a copy of the name → record mapping for iteration,
// e.g. by the replication link performing a full burst. The map is the
// caller's to keep; the records in it are still borrowed.
func (d *Directory) Snapshot() map[string]*account.Record {
	snap := make(map[string]*account.Record, len(d.records))
	for name, rec := range d.records {
		snap[name] = rec
	}
	return snap
}

// Len returns the number of records.
func (d *Directory) Len() int {
	return len(d.records)
}
