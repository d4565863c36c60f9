package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelchat/kestreld/internal/account"
	"github.com/kestrelchat/kestreld/internal/extension"
)

func newTestRegistry(t *testing.T) *extension.Registry {
	t.Helper()
	r := extension.NewRegistry()
	require.NoError(t, r.Register(extension.NewTSItem("lastlogin")))
	require.NoError(t, r.Register(extension.NewTSBoolItem("hidemail")))
	require.NoError(t, r.Register(extension.NewTSIntItem("maxlogins", 3)))
	require.NoError(t, r.Register(extension.NewTSStringItem("vhost")))
	return r
}

func TestAddAccount_CreationExclusivity(t *testing.T) {
	d := New(newTestRegistry(t))

	first := d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	require.NotNil(t, first)

	// Second create for the same name fails and leaves the original.
	assert.Nil(t, d.AddAccount(false, "alice", 2000, "", "", 0, "", 0))

	got := d.GetAccount("alice", false)
	require.NotNil(t, got)
	assert.Same(t, first, got)
	assert.Equal(t, int64(1000), got.TS())
}

func TestAddAccount_NameFoldedBeforeCollisionCheck(t *testing.T) {
	d := New(newTestRegistry(t))

	require.NotNil(t, d.AddAccount(false, "Alice", 1000, "", "", 0, "", 0))
	assert.Nil(t, d.AddAccount(false, "ALICE", 2000, "", "", 0, "", 0))
	assert.NotNil(t, d.GetAccount("aLiCe", false))
}

func TestRemoveAccount_Invalidation(t *testing.T) {
	d := New(newTestRegistry(t))

	rec := d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	require.NotNil(t, rec)

	d.RemoveAccount(false, rec)
	assert.Nil(t, d.GetAccount("alice", false))
	assert.Zero(t, d.Len())
}

func TestRemoveAccount_StaleReferencePanics(t *testing.T) {
	d := New(newTestRegistry(t))

	rec := d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	d.RemoveAccount(false, rec)

	// Removing through an already-invalidated reference is a bug at the
	// call site.
	assert.Panics(t, func() { d.RemoveAccount(false, rec) })
}

func TestRemoveAccount_ForeignRecordPanics(t *testing.T) {
	d := New(newTestRegistry(t))
	d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)

	foreign := account.NewRecord("alice", 1000)
	assert.Panics(t, func() { d.RemoveAccount(false, foreign) })
}

func TestSnapshot_IsACopy(t *testing.T) {
	d := New(newTestRegistry(t))
	d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	d.AddAccount(false, "bob", 1100, "", "", 0, "", 0)

	snap := d.Snapshot()
	require.Len(t, snap, 2)

	// Mutating the snapshot must not affect the directory.
	delete(snap, "alice")
	assert.NotNil(t, d.GetAccount("alice", false))
}

type captureListener struct {
	changed []string
	fields  []string
	removed []string
}

func (c *captureListener) AccountChanged(rec *account.Record) {
	c.changed = append(c.changed, rec.Name())
}

func (c *captureListener) AccountFieldChanged(rec *account.Record, field string) {
	c.fields = append(c.fields, rec.Name()+"/"+field)
}

func (c *captureListener) AccountRemoved(name string, ts int64) {
	c.removed = append(c.removed, name)
}

func TestBroadcasts(t *testing.T) {
	d := New(newTestRegistry(t))
	cap := &captureListener{}
	d.Subscribe(cap)

	// send=false mutates silently - the replay/no-echo path.
	silent := d.AddAccount(false, "bob", 900, "", "", 0, "", 0)
	require.NotNil(t, silent)
	assert.Empty(t, cap.changed)

	// send=true broadcasts the full record on create.
	rec := d.AddAccount(true, "alice", 1000, "", "", 0, "", 0)
	require.NotNil(t, rec)
	assert.Equal(t, []string{"alice"}, cap.changed)

	// Explicit triggers are decoupled from mutation.
	rec.SetConnectClass("oper", 1200)
	d.SendUpdate(rec, "connectclass")
	assert.Equal(t, []string{"alice/connectclass"}, cap.fields)

	d.RemoveAccount(true, rec)
	assert.Equal(t, []string{"alice"}, cap.removed)

	d.RemoveAccount(false, silent)
	assert.Equal(t, []string{"alice"}, cap.removed, "send=false removal must not broadcast")
}

// mapAliasOwner is a minimal collaborator owning alias → canonical-name
// mappings, the shape a nick-grouping plugin would have.
type mapAliasOwner struct {
	dir     *Directory
	aliases map[string]string
	ts      map[string]int64
}

func newMapAliasOwner(d *Directory) *mapAliasOwner {
	return &mapAliasOwner{dir: d, aliases: make(map[string]string), ts: make(map[string]int64)}
}

func (o *mapAliasOwner) add(alias, canonical string, ts int64) {
	o.aliases[account.NormalizeName(alias)] = account.NormalizeName(canonical)
	o.ts[account.NormalizeName(alias)] = ts
}

func (o *mapAliasOwner) ResolveAlias(q *AliasQuery) bool {
	canonical, ok := o.aliases[q.Name]
	if !ok {
		return false
	}
	q.Entry = o.dir.GetAccount(canonical, false)
	q.TS = o.ts[q.Name]
	name := q.Name
	q.Remove = func() {
		delete(o.aliases, name)
		delete(o.ts, name)
	}
	return q.Entry != nil
}

func TestAliasResolution(t *testing.T) {
	d := New(newTestRegistry(t))
	alice := d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)

	owner := newMapAliasOwner(d)
	owner.add("al", "alice", 500)
	d.RegisterAliasOwner(owner)

	// Direct lookup misses; alias resolution finds the canonical record.
	assert.Nil(t, d.GetAccount("al", false))
	assert.Same(t, alice, d.GetAccount("al", true))

	q := d.ResolveAlias("AL")
	require.NotNil(t, q)
	assert.Same(t, alice, q.Entry)
	assert.Equal(t, int64(500), q.TS)

	// Invoking the removal closure purges the stale mapping.
	q.Remove()
	assert.Nil(t, d.GetAccount("al", true))
}

func TestAliasResolution_FirstMatchWins(t *testing.T) {
	d := New(newTestRegistry(t))
	alice := d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	bob := d.AddAccount(false, "bob", 1100, "", "", 0, "", 0)

	first := newMapAliasOwner(d)
	first.add("al", "alice", 500)
	second := newMapAliasOwner(d)
	second.add("al", "bob", 600)

	d.RegisterAliasOwner(first)
	d.RegisterAliasOwner(second)

	// Owners are queried in registration order; no merging across owners.
	assert.Same(t, alice, d.GetAccount("al", true))
	_ = bob
}
