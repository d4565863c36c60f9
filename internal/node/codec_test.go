package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelchat/kestreld/internal/account"
	"github.com/kestrelchat/kestreld/internal/directory"
	"github.com/kestrelchat/kestreld/internal/extension"
)

func newTestDirectory() *directory.Directory {
	return directory.New(DefaultRegistry())
}

// capture collects the frames a directory's listeners would put on the
// wire, using a codec bound to that directory.
type capture struct {
	codec *Codec
	lines []string
}

func newCapture(d *directory.Directory) *capture {
	c := &capture{codec: NewCodec(d)}
	d.Subscribe(&directory.ListenerFuncs{
		Changed: func(rec *account.Record) {
			c.lines = append(c.lines, c.codec.EncodeAccount(rec)...)
		},
		FieldChanged: func(rec *account.Record, field string) {
			if line := c.codec.EncodeUpdate(rec, field); line != "" {
				c.lines = append(c.lines, line)
			}
		},
		Removed: func(name string, ts int64) {
			c.lines = append(c.lines, c.codec.EncodeRemoval(name, ts))
		},
	})
	return c
}

func TestCodec_EncodeAccountRoundTrip(t *testing.T) {
	src := newTestDirectory()
	rec := src.AddAccount(false, "Alice", 1000, "", "", 0, "", 0)
	require.NotNil(t, rec)
	rec.SetCredentials("deadbeef", "bcrypt", 1100)
	rec.SetConnectClass("staff", 1200)

	vhost := extension.NewTSStringItem("vhost")
	vhost.Set(rec.Ext, 1300, "oper.example net")
	hidemail := extension.NewTSBoolItem("hidemail")
	hidemail.Set(rec.Ext, 1400, true)

	dst := newTestDirectory()
	codec := NewCodec(dst)
	for _, line := range NewCodec(src).EncodeAccount(rec) {
		replies, err := codec.Apply(line)
		require.NoError(t, err)
		assert.Empty(t, replies)
	}

	got := dst.GetAccount("alice", false)
	require.NotNil(t, got)
	assert.Equal(t, int64(1000), got.TS())
	assert.Equal(t, "deadbeef", got.CredentialHash())
	assert.Equal(t, "bcrypt", got.CredentialAlgorithm())
	assert.Equal(t, int64(1100), got.CredentialTS())
	assert.Equal(t, "staff", got.ConnectClass())
	assert.Equal(t, int64(1200), got.ConnectClassTS())

	v, ok := vhost.Get(got.Ext)
	require.True(t, ok)
	assert.Equal(t, extension.TSString{TS: 1300, Value: "oper.example net"}, v)
	h, ok := hidemail.Get(got.Ext)
	require.True(t, ok)
	assert.Equal(t, extension.TSBool{TS: 1400, Value: true}, h)
}

func TestCodec_ApplySet_UnknownAccountIgnored(t *testing.T) {
	d := newTestDirectory()
	codec := NewCodec(d)

	_, err := codec.Apply("ACCTSET ghost 1000 connectclass 1100 :staff")
	require.NoError(t, err)
	assert.Zero(t, d.Len())
}

func TestCodec_ApplySet_StaleIncarnationIgnored(t *testing.T) {
	d := newTestDirectory()
	rec := d.AddAccount(false, "alice", 2000, "", "", 0, "", 0)
	codec := NewCodec(d)

	// Frame refers to an older incarnation of the name.
	_, err := codec.Apply("ACCTSET alice 1000 connectclass 2100 :staff")
	require.NoError(t, err)
	assert.Equal(t, "", rec.ConnectClass())

	_, err = codec.Apply("ACCTSET alice 2000 connectclass 2100 :staff")
	require.NoError(t, err)
	assert.Equal(t, "staff", rec.ConnectClass())
}

func TestCodec_ApplySet_UnknownFieldSkipped(t *testing.T) {
	d := newTestDirectory()
	d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	codec := NewCodec(d)

	_, err := codec.Apply("ACCTSET alice 1000 someplugin 1100 :whatever")
	require.NoError(t, err)
}

func TestCodec_ApplyAdd_SameIdentityIsNoop(t *testing.T) {
	d := newTestDirectory()
	rec := d.AddAccount(false, "alice", 1000, "h", "bcrypt", 900, "", 0)
	codec := NewCodec(d)

	replies, err := codec.Apply("ACCTADD alice 1000")
	require.NoError(t, err)
	assert.Empty(t, replies)
	assert.Same(t, rec, d.GetAccount("alice", false))
	assert.Equal(t, "h", rec.CredentialHash())
}

func TestCodec_ApplyAdd_CollisionSmallerCreationWins(t *testing.T) {
	t.Run("remote older", func(t *testing.T) {
		d := newTestDirectory()
		d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
		cap := newCapture(d)
		codec := NewCodec(d)

		replies, err := codec.Apply("ACCTADD alice 500")
		require.NoError(t, err)
		assert.Empty(t, replies)

		got := d.GetAccount("alice", false)
		require.NotNil(t, got)
		assert.Equal(t, int64(500), got.TS())
		// The losing local record's removal went out.
		assert.Contains(t, cap.lines, "ACCTDEL alice 1000")
	})

	t.Run("local older", func(t *testing.T) {
		d := newTestDirectory()
		d.AddAccount(false, "alice", 500, "", "", 0, "", 0)
		codec := NewCodec(d)

		replies, err := codec.Apply("ACCTADD alice 1000")
		require.NoError(t, err)
		assert.Equal(t, []string{"ACCTDEL alice 1000"}, replies)
		assert.Equal(t, int64(500), d.GetAccount("alice", false).TS())
	})
}

func TestCodec_ApplyDel(t *testing.T) {
	d := newTestDirectory()
	d.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	codec := NewCodec(d)

	// Timestamp mismatch leaves the record alone.
	_, err := codec.Apply("ACCTDEL alice 999")
	require.NoError(t, err)
	assert.NotNil(t, d.GetAccount("alice", false))

	_, err = codec.Apply("ACCTDEL alice 1000")
	require.NoError(t, err)
	assert.Nil(t, d.GetAccount("alice", false))

	// Replay of the removal is a no-op.
	_, err = codec.Apply("ACCTDEL alice 1000")
	require.NoError(t, err)
}

func TestCodec_ApplyRejectsMalformedFrames(t *testing.T) {
	codec := NewCodec(newTestDirectory())

	for _, line := range []string{
		"BOGUS alice 1000",
		"ACCTADD alice",
		"ACCTDEL alice",
		"ACCTSET alice 1000 connectclass",
	} {
		_, err := codec.Apply(line)
		assert.Error(t, err, "frame %q", line)
	}
}

func TestCodec_ReplayAndReorderConverge(t *testing.T) {
	src := newTestDirectory()
	rec := src.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	rec.SetCredentials("h1", "bcrypt", 1100)
	rec.SetConnectClass("staff", 1200)
	frames := NewCodec(src).EncodeAccount(rec)

	// Duplicated and field-order-reversed delivery must reach the same
	// state as in-order delivery.
	shuffled := []string{frames[0], frames[2], frames[1], frames[2], frames[1], frames[0]}

	d := newTestDirectory()
	codec := NewCodec(d)
	for _, line := range shuffled {
		_, err := codec.Apply(line)
		require.NoError(t, err)
	}

	got := d.GetAccount("alice", false)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.CredentialHash())
	assert.Equal(t, "staff", got.ConnectClass())
}

func TestCodec_ApplyBurst_BothSidesConverge(t *testing.T) {
	regA := DefaultRegistry()
	regB := DefaultRegistry()
	a := directory.New(regA)
	b := directory.New(regB)

	// Shared identity with diverged fields.
	ra := a.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	ra.SetCredentials("newhash", "bcrypt", 2000)
	ra.SetConnectClass("users", 1500)
	rb := b.AddAccount(false, "alice", 1000, "", "", 0, "", 0)
	rb.SetCredentials("oldhash", "bcrypt", 1800)
	rb.SetConnectClass("staff", 1700)

	// Name collision: different creation timestamps.
	a.AddAccount(false, "bob", 3000, "", "", 0, "", 0)
	b.AddAccount(false, "bob", 2500, "", "", 0, "", 0)

	// One-sided records.
	a.AddAccount(false, "carol", 1200, "", "", 0, "", 0)
	b.AddAccount(false, "dave", 1300, "", "", 0, "", 0)

	burstA := NewCodec(a).EncodeSnapshot()
	burstB := NewCodec(b).EncodeSnapshot()
	stripMarkers := func(lines []string) []string { return lines[1 : len(lines)-1] }

	require.NoError(t, NewCodec(a).ApplyBurst(stripMarkers(burstB)))
	require.NoError(t, NewCodec(b).ApplyBurst(stripMarkers(burstA)))

	for _, d := range []*directory.Directory{a, b} {
		alice := d.GetAccount("alice", false)
		require.NotNil(t, alice)
		assert.Equal(t, "newhash", alice.CredentialHash())
		assert.Equal(t, "staff", alice.ConnectClass())

		bob := d.GetAccount("bob", false)
		require.NotNil(t, bob)
		assert.Equal(t, int64(2500), bob.TS())

		assert.NotNil(t, d.GetAccount("carol", false))
		assert.NotNil(t, d.GetAccount("dave", false))
		assert.Equal(t, 4, d.Len())
	}
}
