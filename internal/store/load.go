package store

import (
	"context"
	"fmt"

	"github.com/kestrelchat/kestreld/internal/directory"
	"github.com/kestrelchat/kestreld/internal/extension"
)

// LoadDirectory replays the persisted snapshot into d. Rows merge through
// the same paths a remote update would take: creates collide on existing
// names and lose, extension fields merge last-writer-wins. Loading into
// an empty directory restores the snapshot exactly; loading twice is a
// no-op. Nothing is broadcast.
//
// Rows ordered by name so the replay is deterministic.
func (s *Store) LoadDirectory(ctx context.Context, d *directory.Directory) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, ts, cred_hash, cred_alg, cred_ts, connect_class, connect_class_ts
		FROM accounts
		ORDER BY name ASC
	`)
	if err != nil {
		return fmt.Errorf("load directory: query accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, hash, alg, class string
			ts, credTS, classTS    int64
		)
		if err := rows.Scan(&name, &ts, &hash, &alg, &credTS, &class, &classTS); err != nil {
			return fmt.Errorf("load directory: scan account: %w", err)
		}

		rec := d.AddAccount(false, name, ts, hash, alg, credTS, class, classTS)
		if rec == nil {
			// Already present: merge the persisted built-in fields.
			rec = d.GetAccount(name, false)
			rec.SetCredentials(hash, alg, credTS)
			rec.SetConnectClass(class, classTS)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load directory: iterate accounts: %w", err)
	}

	return s.loadFields(ctx, d)
}

// loadFields merges all persisted extension rows into their records.
// Unknown field keys (attributes no longer registered) are skipped.
func (s *Store) loadFields(ctx context.Context, d *directory.Directory) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, field, value
		FROM account_fields
		ORDER BY name ASC, field ASC
	`)
	if err != nil {
		return fmt.Errorf("load directory: query fields: %w", err)
	}
	defer rows.Close()

	reg := d.Registry()
	for rows.Next() {
		var name, field, value string
		if err := rows.Scan(&name, &field, &value); err != nil {
			return fmt.Errorf("load directory: scan field: %w", err)
		}
		rec := d.GetAccount(name, false)
		if rec == nil {
			continue
		}
		reg.Unserialize(field, extension.FormatStorage, rec.Ext, value)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load directory: iterate fields: %w", err)
	}
	return nil
}

// CountAccounts returns the number of persisted accounts.
func (s *Store) CountAccounts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
