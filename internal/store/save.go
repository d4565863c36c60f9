package store

import (
	"context"
	"fmt"

	"github.com/kestrelchat/kestreld/internal/account"
	"github.com/kestrelchat/kestreld/internal/directory"
	"github.com/kestrelchat/kestreld/internal/extension"
)

// SaveAccount upserts one record: built-in fields plus every populated
// extension slot, serialized in storage format. Extension rows for the
// account are rewritten wholesale so unset slots disappear.
func (s *Store) SaveAccount(ctx context.Context, reg *extension.Registry, rec *account.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save account: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts
		(name, ts, cred_hash, cred_alg, cred_ts, connect_class, connect_class_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			ts = excluded.ts,
			cred_hash = excluded.cred_hash,
			cred_alg = excluded.cred_alg,
			cred_ts = excluded.cred_ts,
			connect_class = excluded.connect_class,
			connect_class_ts = excluded.connect_class_ts
	`,
		rec.Name(),
		rec.TS(),
		rec.CredentialHash(),
		rec.CredentialAlgorithm(),
		rec.CredentialTS(),
		rec.ConnectClass(),
		rec.ConnectClassTS(),
	)
	if err != nil {
		return fmt.Errorf("save account %q: %w", rec.Name(), err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM account_fields WHERE name = ?`, rec.Name()); err != nil {
		return fmt.Errorf("save account %q: clear fields: %w", rec.Name(), err)
	}

	for _, field := range reg.SerializeAll(extension.FormatStorage, rec.Ext) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO account_fields (name, field, value)
			VALUES (?, ?, ?)
		`, rec.Name(), field.Key, field.Text)
		if err != nil {
			return fmt.Errorf("save account %q: field %q: %w", rec.Name(), field.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save account %q: commit: %w", rec.Name(), err)
	}
	return nil
}

// DeleteAccount removes a record and its extension rows.
func (s *Store) DeleteAccount(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete account %q: %w", name, err)
	}
	return nil
}

// SaveDirectory persists a full snapshot, upserting every record. Used
// for periodic full flushes; steady-state persistence goes through the
// write-through listener.
func (s *Store) SaveDirectory(ctx context.Context, d *directory.Directory) error {
	for _, rec := range d.Snapshot() {
		if err := s.SaveAccount(ctx, d.Registry(), rec); err != nil {
			return err
		}
	}
	return nil
}
