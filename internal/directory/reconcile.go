package directory

import (
	"log/slog"

	"github.com/kestrelchat/kestreld/internal/account"
	"github.com/kestrelchat/kestreld/internal/extension"
)

// Reconcile merges a remote directory snapshot into this one. It runs
// when two previously separate node groups link into one network and each
// side bursts its full directory at the other.
//
// Policy for a name held on both sides:
//   - same creation timestamp: the records are the same identity created
//     on different nodes; their fields merge last-writer-wins.
//   - different creation timestamps: the record with the smaller creation
//     timestamp survives and the other is removed, with the removal
//     broadcast. Earlier creation wins so that a freshly registered
//     duplicate can never displace an established account.
//
// Both sides evaluate the same rule over the same two snapshots, so they
// reach the same directory without coordinating.
func (d *Directory) Reconcile(remote map[string]*account.Record) {
	for name, theirs := range remote {
		ours, exists := d.records[name]
		if !exists {
			d.adoptRecord(theirs)
			continue
		}

		switch {
		case ours.TS() == theirs.TS():
			d.mergeFields(ours, theirs)

		case theirs.TS() < ours.TS():
			// Their copy is older: it survives, ours goes.
			slog.Info("directory collision, remote record wins",
				"account", name, "local_ts", ours.TS(), "remote_ts", theirs.TS())
			d.RemoveAccount(true, ours)
			d.adoptRecord(theirs)

		default:
			// Our copy is older: theirs goes. Broadcast the removal so
			// nodes behind the remote side drop it too.
			slog.Info("directory collision, local record wins",
				"account", name, "local_ts", ours.TS(), "remote_ts", theirs.TS())
			d.SendRemoval(theirs.Name(), theirs.TS())
		}
	}
}

// adoptRecord copies a remote record into this directory without
// broadcasting: the burst that carried it is already network-visible.
func (d *Directory) adoptRecord(theirs *account.Record) *account.Record {
	rec := d.AddAccount(false, theirs.Name(), theirs.TS(),
		theirs.CredentialHash(), theirs.CredentialAlgorithm(), theirs.CredentialTS(),
		theirs.ConnectClass(), theirs.ConnectClassTS())
	d.copyExtensions(rec, theirs)
	return rec
}

// mergeFields merges a same-identity remote record field-wise into ours.
func (d *Directory) mergeFields(ours, theirs *account.Record) {
	ours.SetCredentials(theirs.CredentialHash(), theirs.CredentialAlgorithm(), theirs.CredentialTS())
	ours.SetConnectClass(theirs.ConnectClass(), theirs.ConnectClassTS())
	d.copyExtensions(ours, theirs)
}

// copyExtensions replays every populated extension slot of theirs into
// dst through the merge framework, so older remote values are discarded
// slot by slot.
func (d *Directory) copyExtensions(dst, theirs *account.Record) {
	for _, field := range d.registry.SerializeAll(extension.FormatStorage, theirs.Ext) {
		d.registry.Unserialize(field.Key, extension.FormatStorage, dst.Ext, field.Text)
	}
}
