package store

import (
	"context"
	"log/slog"

	"github.com/kestrelchat/kestreld/internal/account"
	"github.com/kestrelchat/kestreld/internal/directory"
	"github.com/kestrelchat/kestreld/internal/extension"
)

// Writer subscribes a store to a directory so every broadcast change is
// persisted as it happens. Change notifications are fire-and-forget, so
// persistence failures are logged and the in-memory directory stays
// authoritative; the next full flush repairs the snapshot.
type Writer struct {
	store    *Store
	registry *extension.Registry
}

// NewWriter creates a write-through listener and subscribes it to d.
func NewWriter(s *Store, d *directory.Directory) *Writer {
	w := &Writer{store: s, registry: d.Registry()}
	d.Subscribe(w)
	return w
}

func (w *Writer) AccountChanged(rec *account.Record) {
	if err := w.store.SaveAccount(context.Background(), w.registry, rec); err != nil {
		slog.Error("persist account failed", "account", rec.Name(), "error", err)
	}
}

func (w *Writer) AccountFieldChanged(rec *account.Record, field string) {
	// A single-field change still rewrites the row set for the record;
	// rows are small and the upsert is one transaction.
	if err := w.store.SaveAccount(context.Background(), w.registry, rec); err != nil {
		slog.Error("persist account field failed", "account", rec.Name(), "field", field, "error", err)
	}
}

func (w *Writer) AccountRemoved(name string, ts int64) {
	if err := w.store.DeleteAccount(context.Background(), name); err != nil {
		slog.Error("persist account removal failed", "account", name, "error", err)
	}
}
