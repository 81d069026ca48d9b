package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// Schema creates the tables used by MySQLStore.  record_kinds carries one
// row per kind so that Update can lock a kind even while it has no
// records.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS record_kinds (
        kind VARCHAR(32) NOT NULL PRIMARY KEY
    ) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS records (
        kind VARCHAR(32)    NOT NULL,
        id   BIGINT UNSIGNED NOT NULL,
        pos  INT UNSIGNED    NOT NULL,
        body JSON            NOT NULL,
        PRIMARY KEY (kind, id),
        KEY records_kind_pos (kind, pos)
    ) ENGINE=InnoDB`,
}

// MySQLStore persists records as JSON documents in MySQL.  Each Save or
// Update of a kind runs inside a single transaction.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a store bound to db.  Call EnsureSchema once at
// startup.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// EnsureSchema creates the tables when missing.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) Load(ctx context.Context, kind Kind) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM records WHERE kind = ? ORDER BY pos`, string(kind))
	if err != nil {
		return nil, err
	}
	return scanBodies(rows)
}

func (s *MySQLStore) Save(ctx context.Context, kind Kind, records []json.RawMessage) error {
	return s.inTx(ctx, kind, func(tx *sql.Tx) error {
		return replaceTx(ctx, tx, kind, records)
	})
}

func (s *MySQLStore) NextID(ctx context.Context, kind Kind) (uint64, error) {
	var max uint64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM records WHERE kind = ?`, string(kind)).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (s *MySQLStore) Update(ctx context.Context, kind Kind, fn UpdateFunc) error {
	return s.inTx(ctx, kind, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT body FROM records WHERE kind = ? ORDER BY pos`, string(kind))
		if err != nil {
			return err
		}
		current, err := scanBodies(rows)
		if err != nil {
			return err
		}
		out, err := fn(current)
		if err != nil {
			return err
		}
		return replaceTx(ctx, tx, kind, out)
	})
}

// inTx opens a transaction and locks the kind row for its duration.
func (s *MySQLStore) inTx(ctx context.Context, kind Kind, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", kind, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO record_kinds (kind) VALUES (?)`, string(kind)); err != nil {
		return err
	}
	var locked string
	if err := tx.QueryRowContext(ctx, `SELECT kind FROM record_kinds WHERE kind = ? FOR UPDATE`, string(kind)).Scan(&locked); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", kind, err)
	}
	committed = true
	return nil
}

// replaceTx deletes every record of kind and bulk-inserts records in a
// single statement, preserving their order in the pos column.
func replaceTx(ctx context.Context, tx *sql.Tx, kind Kind, records []json.RawMessage) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE kind = ?`, string(kind)); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO records (kind, id, pos, body) VALUES `)
	args := make([]interface{}, 0, len(records)*4)
	for i, r := range records {
		id, err := RecordID(r)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, string(kind), id, i, string(r))
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func scanBodies(rows *sql.Rows) ([]json.RawMessage, error) {
	defer rows.Close()
	out := []json.RawMessage{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
