package directory

import "github.com/kestrelchat/kestreld/internal/account"

// AliasQuery carries one alias lookup through the registered owners.
// The owner that recognizes the name fills Entry, TS, and Remove.
type AliasQuery struct {
	// Name is the folded alternate name being resolved.
	Name string

	// Entry is the canonical record the alias points at.
	Entry *account.Record

	// TS is the timestamp at which the alias was established.
	TS int64

	// Remove purges the alias mapping from its owner. The caller invokes
	// it after discovering the canonical record no longer exists. It is a
	// closure over the owner's state, so the caller needs no reference to
	// the owner itself.
	Remove func()
}

// AliasOwner is a collaborator that maintains alias mappings outside the
// directory. ResolveAlias fills the query and reports whether it owned a
// match.
type AliasOwner interface {
	ResolveAlias(q *AliasQuery) bool
}

// RegisterAliasOwner appends an owner to the fan-out. Owners are queried
// in registration order.
func (d *Directory) RegisterAliasOwner(o AliasOwner) {
	d.aliasOwners = append(d.aliasOwners, o)
}

// queryAlias runs the synchronous fan-out. The first owner that answers
// positively wins; there is no merging of results across owners. Runs
// entirely on the calling goroutine.
func (d *Directory) queryAlias(folded string) *AliasQuery {
	q := &AliasQuery{Name: folded}
	for _, owner := range d.aliasOwners {
		if owner.ResolveAlias(q) {
			return q
		}
	}
	return nil
}

// ResolveAlias exposes the full query result, for callers that need the
// establishment timestamp or the removal closure rather than just the
// record. Returns nil when no owner matches.
func (d *Directory) ResolveAlias(name string) *AliasQuery {
	return d.queryAlias(account.NormalizeName(name))
}
