// Package account defines the record type for one named identity in the
// directory: its immutable identity, its built-in timestamped fields, and
// the extensible attribute bag plugins hang state on.
package account

import "github.com/kestrelchat/kestreld/internal/extension"

// Record is one named identity. The name and creation timestamp are fixed
// at creation: the name is the directory key and the creation timestamp is
// the record's conflict-resolution identity when two nodes create the same
// name independently. Every mutable field carries its own timestamp and
// merges last-writer-wins.
//
// Records are owned exclusively by the directory that created them. A
// reference obtained from the directory is invalid the moment the record
// is removed; holders must not retain references across a removal.
type Record struct {
	name string
	ts   int64

	credHash string
	credAlg  string
	credTS   int64

	connectClass   string
	connectClassTS int64

	// Ext holds plugin-attached attribute slots, merged through the
	// registered extension items.
	Ext *extension.Extensible
}

// NewRecord creates a record. The name is folded to canonical form.
func NewRecord(name string, ts int64) *Record {
	return &Record{
		name: NormalizeName(name),
		ts:   ts,
		Ext:  extension.NewExtensible(),
	}
}

// Name returns the canonical (case-folded) account name.
func (r *Record) Name() string { return r.name }

// TS returns the creation timestamp.
func (r *Record) TS() int64 { return r.ts }

// CredentialHash returns the stored credential hash.
func (r *Record) CredentialHash() string { return r.credHash }

// CredentialAlgorithm returns the name of the algorithm the hash was
// produced with. Hashing itself happens outside the directory core.
func (r *Record) CredentialAlgorithm() string { return r.credAlg }

// CredentialTS returns the timestamp guarding hash and algorithm.
func (r *Record) CredentialTS() int64 { return r.credTS }

// ConnectClass returns the connect class label.
func (r *Record) ConnectClass() string { return r.connectClass }

// ConnectClassTS returns the timestamp guarding the connect class.
func (r *Record) ConnectClassTS() int64 { return r.connectClassTS }

// SetCredentials merges a credential update. Hash and algorithm travel
// together under one timestamp; the update applies only when ts is
// strictly greater than the stored credential timestamp.
func (r *Record) SetCredentials(hash, alg string, ts int64) bool {
	if ts <= r.credTS {
		return false
	}
	r.credHash = hash
	r.credAlg = alg
	r.credTS = ts
	return true
}

// SetConnectClass merges a connect class update under the same
// strictly-greater rule.
func (r *Record) SetConnectClass(class string, ts int64) bool {
	if ts <= r.connectClassTS {
		return false
	}
	r.connectClass = class
	r.connectClassTS = ts
	return true
}

// InitFields seeds the built-in fields at creation time, bypassing the
// timestamp guard. Unlike the merge setters it accepts timestamp zero, so
// a bare create carries empty fields that any later validly-timestamped
// update supersedes. Only construction paths (directory create,
// persistence load) may call it.
func (r *Record) InitFields(hash, alg string, credTS int64, class string, classTS int64) {
	r.credHash = hash
	r.credAlg = alg
	r.credTS = credTS
	r.connectClass = class
	r.connectClassTS = classTS
}
