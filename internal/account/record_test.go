package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase unchanged", "alice", "alice"},
		{"uppercase folds", "ALICE", "alice"},
		{"mixed case folds", "AlIcE", "alice"},
		{"surrounding space trimmed", "  alice  ", "alice"},
		{"non-ascii case pair", "ÀLICE", "àlice"},
		{"sharp s folds", "straße", "strasse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestNewRecord_FoldsName(t *testing.T) {
	rec := NewRecord("Alice", 1000)
	assert.Equal(t, "alice", rec.Name())
	assert.Equal(t, int64(1000), rec.TS())
	assert.NotNil(t, rec.Ext)
}

func TestSetCredentials_LWW(t *testing.T) {
	rec := NewRecord("alice", 1000)

	assert.True(t, rec.SetCredentials("h1", "sha256", 100))
	assert.Equal(t, "h1", rec.CredentialHash())
	assert.Equal(t, "sha256", rec.CredentialAlgorithm())
	assert.Equal(t, int64(100), rec.CredentialTS())

	// Stale update discarded.
	assert.False(t, rec.SetCredentials("old", "md5", 50))
	assert.Equal(t, "h1", rec.CredentialHash())

	// Tie discarded.
	assert.False(t, rec.SetCredentials("h2", "sha256", 100))
	assert.Equal(t, "h1", rec.CredentialHash())

	// Newer wins; hash and algorithm move together.
	assert.True(t, rec.SetCredentials("h3", "argon2", 200))
	assert.Equal(t, "h3", rec.CredentialHash())
	assert.Equal(t, "argon2", rec.CredentialAlgorithm())
}

func TestSetConnectClass_LWW(t *testing.T) {
	rec := NewRecord("alice", 1000)

	assert.True(t, rec.SetConnectClass("oper", 300))
	assert.False(t, rec.SetConnectClass("user", 300))
	assert.False(t, rec.SetConnectClass("user", 200))
	assert.Equal(t, "oper", rec.ConnectClass())
	assert.Equal(t, int64(300), rec.ConnectClassTS())
}

func TestInitFields_AcceptsZeroTimestamps(t *testing.T) {
	rec := NewRecord("alice", 1000)
	rec.InitFields("", "", 0, "", 0)

	// A later validly-timestamped update supersedes the seeded state.
	assert.True(t, rec.SetCredentials("h", "sha256", 1))
}
