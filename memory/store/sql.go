package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/memory"
)

// sqlStore is the shared implementation behind the PostgreSQL and SQLite stores.
type sqlStore struct {
	db    *sql.DB
	table string
	// bind renders the placeholder for the n-th (1-based) argument.
	bind func(n int) string
	// jsonType is the column type holding the serialized record.
	jsonType string
}

func (s *sqlStore) createTable(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			query TEXT NOT NULL,
			ts VARCHAR(40) NOT NULL,
			record %s NOT NULL
		)`, s.table, s.jsonType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_user_ts ON %s(user_id, ts)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqlStore) Save(ctx context.Context, rec *memory.Record) error {
	if err := memory.Prepare(rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	query := fmt.Sprintf(`
	INSERT INTO %s (id, user_id, query, ts, record)
	VALUES (%s, %s, %s, %s, %s)
	ON CONFLICT (id) DO UPDATE SET
		user_id = excluded.user_id,
		query = excluded.query,
		ts = excluded.ts,
		record = excluded.record
	`, s.table, s.bind(1), s.bind(2), s.bind(3), s.bind(4), s.bind(5))

	if _, err := s.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.Query, rec.Timestamp, string(data)); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (s *sqlStore) Get(ctx context.Context, id string) (*memory.Record, error) {
	query := fmt.Sprintf(`SELECT record FROM %s WHERE id = %s`, s.table, s.bind(1))
	var data []byte
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", id, errorskg.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return decodeRecord(data)
}

func (s *sqlStore) Recent(ctx context.Context, userID string, limit int) ([]*memory.Record, error) {
	var (
		where []string
		args  []any
	)
	if userID != "" {
		args = append(args, userID)
		where = append(where, "user_id = "+s.bind(len(args)))
	}
	args = append(args, memory.Limit(limit))

	query := "SELECT record FROM " + s.table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY ts DESC, id ASC LIMIT %s", s.bind(len(args)))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []*memory.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
