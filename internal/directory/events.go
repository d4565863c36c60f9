package directory

import "github.com/kestrelchat/kestreld/internal/account"

// Listener observes directory mutations. Firing these notifications is
// the only channel through which mutations become visible outside the
// node; the replication link is the chief subscriber, persistence another.
// Calls are fire-and-forget: no return value, no acknowledgement.
type Listener interface {
	// AccountChanged carries a full record snapshot, fired on creation
	// and on full-record sends.
	AccountChanged(rec *account.Record)

	// AccountFieldChanged carries the record and the single field that
	// changed.
	AccountFieldChanged(rec *account.Record, field string)

	// AccountRemoved carries the deletion marker: the removed name and
	// its creation timestamp.
	AccountRemoved(name string, ts int64)
}

// Subscribe registers a listener. Listeners are notified in subscription
// order on the mutating goroutine.
func (d *Directory) Subscribe(l Listener) {
	d.listeners = append(d.listeners, l)
}

// SendAccount broadcasts a full record. Decoupled from the mutating calls
// so a caller can batch several local field changes before one broadcast.
func (d *Directory) SendAccount(rec *account.Record) {
	for _, l := range d.listeners {
		l.AccountChanged(rec)
	}
}

// SendUpdate broadcasts a single-field change.
func (d *Directory) SendUpdate(rec *account.Record, field string) {
	for _, l := range d.listeners {
		l.AccountFieldChanged(rec, field)
	}
}

// SendRemoval broadcasts a removal marker.
func (d *Directory) SendRemoval(name string, ts int64) {
	for _, l := range d.listeners {
		l.AccountRemoved(name, ts)
	}
}

// ListenerFuncs adapts plain functions to Listener. Nil functions are
// skipped.
type ListenerFuncs struct {
	Changed      func(rec *account.Record)
	FieldChanged func(rec *account.Record, field string)
	Removed      func(name string, ts int64)
}

func (f *ListenerFuncs) AccountChanged(rec *account.Record) {
	if f.Changed != nil {
		f.Changed(rec)
	}
}

func (f *ListenerFuncs) AccountFieldChanged(rec *account.Record, field string) {
	if f.FieldChanged != nil {
		f.FieldChanged(rec, field)
	}
}

func (f *ListenerFuncs) AccountRemoved(name string, ts int64) {
	if f.Removed != nil {
		f.Removed(name, ts)
	}
}
