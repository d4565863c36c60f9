package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelchat/kestreld/internal/directory"
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

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "directory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	s := openTestStore(t)
	ctx := context.Background()

	d := directory.New(reg)
	alice := d.AddAccount(false, "alice", 1000, "h1", "sha256", 100, "oper", 50)
	vhost, _ := reg.Lookup("vhost")
	vhost.(*extension.TSStringItem).Set(alice.Ext, 300, "staff example text")
	maxlogins, _ := reg.Lookup("maxlogins")
	maxlogins.(*extension.TSIntItem).Set(alice.Ext, 200, 5)
	d.AddAccount(false, "bob", 1100, "", "", 0, "", 0)

	require.NoError(t, s.SaveDirectory(ctx, d))

	restored := directory.New(reg)
	require.NoError(t, s.LoadDirectory(ctx, restored))

	require.Equal(t, 2, restored.Len())
	got := restored.GetAccount("alice", false)
	require.NotNil(t, got)
	assert.Equal(t, int64(1000), got.TS())
	assert.Equal(t, "h1", got.CredentialHash())
	assert.Equal(t, "sha256", got.CredentialAlgorithm())
	assert.Equal(t, int64(100), got.CredentialTS())
	assert.Equal(t, "oper", got.ConnectClass())

	v, ok := vhost.(*extension.TSStringItem).Get(got.Ext)
	require.True(t, ok)
	assert.Equal(t, extension.TSString{TS: 300, Value: "staff example text"}, v)

	m, ok := maxlogins.(*extension.TSIntItem).Get(got.Ext)
	require.True(t, ok)
	assert.Equal(t, extension.TSInt{TS: 200, Value: 5}, m)
}

func TestLoad_IntoPopulatedDirectoryMerges(t *testing.T) {
	reg := newTestRegistry(t)
	s := openTestStore(t)
	ctx := context.Background()

	persisted := directory.New(reg)
	persisted.AddAccount(false, "alice", 1000, "stale", "sha256", 100, "", 0)
	require.NoError(t, s.SaveDirectory(ctx, persisted))

	// The live directory already has newer credentials for alice.
	live := directory.New(reg)
	rec := live.AddAccount(false, "alice", 1000, "fresh", "argon2", 200, "", 0)

	require.NoError(t, s.LoadDirectory(ctx, live))

	// The persisted stale credentials must not clobber the newer ones.
	assert.Same(t, rec, live.GetAccount("alice", false))
	assert.Equal(t, "fresh", rec.CredentialHash())
	assert.Equal(t, int64(200), rec.CredentialTS())
}

func TestLoad_Twice_IsNoOp(t *testing.T) {
	reg := newTestRegistry(t)
	s := openTestStore(t)
	ctx := context.Background()

	d := directory.New(reg)
	d.AddAccount(false, "alice", 1000, "h", "sha256", 100, "", 0)
	require.NoError(t, s.SaveDirectory(ctx, d))

	restored := directory.New(reg)
	require.NoError(t, s.LoadDirectory(ctx, restored))
	require.NoError(t, s.LoadDirectory(ctx, restored))

	assert.Equal(t, 1, restored.Len())
	assert.Equal(t, "h", restored.GetAccount("alice", false).CredentialHash())
}

func TestWriter_PersistsThroughBroadcasts(t *testing.T) {
	reg := newTestRegistry(t)
	s := openTestStore(t)
	ctx := context.Background()

	d := directory.New(reg)
	NewWriter(s, d)

	rec := d.AddAccount(true, "alice", 1000, "", "", 0, "", 0)
	require.NotNil(t, rec)

	n, err := s.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec.SetConnectClass("oper", 400)
	d.SendUpdate(rec, "connectclass")

	restored := directory.New(reg)
	require.NoError(t, s.LoadDirectory(ctx, restored))
	assert.Equal(t, "oper", restored.GetAccount("alice", false).ConnectClass())

	d.RemoveAccount(true, rec)
	n, err = s.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWriter_SilentMutationsNotPersisted(t *testing.T) {
	reg := newTestRegistry(t)
	s := openTestStore(t)
	ctx := context.Background()

	d := directory.New(reg)
	NewWriter(s, d)

	// send=false mutations fire no notifications and so are not written
	// until the next explicit send or full flush.
	d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)

	n, err := s.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
