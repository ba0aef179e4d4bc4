package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS responses (
	request_id TEXT NOT NULL,
	position   INTEGER NOT NULL,
	content    TEXT NOT NULL,
	PRIMARY KEY (request_id, position)
)`

// SQLite keeps responses in a SQLite table ordered by position.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite3 serialises writers; one connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Append implements Store.
func (s *SQLite) Append(ctx context.Context, requestID string, contents ...string) error {
	if len(contents) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		storeErrorsTotal.WithLabelValues("sqlite", "append").Inc()
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM responses WHERE request_id = ?`, requestID,
	).Scan(&next); err != nil {
		storeErrorsTotal.WithLabelValues("sqlite", "append").Inc()
		return fmt.Errorf("next position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO responses (request_id, position, content) VALUES (?, ?, ?)`)
	if err != nil {
		storeErrorsTotal.WithLabelValues("sqlite", "append").Inc()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, content := range contents {
		if _, err := stmt.ExecContext(ctx, requestID, next+i, content); err != nil {
			storeErrorsTotal.WithLabelValues("sqlite", "append").Inc()
			return fmt.Errorf("insert response: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		storeErrorsTotal.WithLabelValues("sqlite", "append").Inc()
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count implements Store.
func (s *SQLite) Count(ctx context.Context, requestID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM responses WHERE request_id = ?`, requestID,
	).Scan(&n); err != nil {
		storeErrorsTotal.WithLabelValues("sqlite", "count").Inc()
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

// Range implements Store.
func (s *SQLite) Range(ctx context.Context, requestID string, start, stop int) ([]string, error) {
	if start < 0 {
		start = 0
	}
	out := []string{}
	if stop <= start {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT content FROM responses WHERE request_id = ? ORDER BY position LIMIT ? OFFSET ?`,
		requestID, stop-start, start,
	)
	if err != nil {
		storeErrorsTotal.WithLabelValues("sqlite", "range").Inc()
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, content)
	}
	if err := rows.Err(); err != nil {
		storeErrorsTotal.WithLabelValues("sqlite", "range").Inc()
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return out, nil
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
