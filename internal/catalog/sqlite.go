package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const createTable = `CREATE TABLE IF NOT EXISTS intrinsics (
	run_id  TEXT    NOT NULL,
	seq     INTEGER NOT NULL,
	owner   TEXT    NOT NULL,
	name    TEXT    NOT NULL,
	params  TEXT    NOT NULL,
	returns TEXT    NOT NULL,
	PRIMARY KEY (run_id, seq)
)`

// paramSep joins parameter type names; type names never contain it.
const paramSep = ","

// SaveSQLite appends the entries to the intrinsics table of the database at
// path under a new run id, which it returns.
func SaveSQLite(ctx context.Context, path string, entries []Entry) (string, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return "", fmt.Errorf("creating table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO intrinsics (run_id, seq, owner, name, params, returns) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	runID := uuid.NewString()
	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, runID, i, e.Owner, e.Name, strings.Join(e.Params, paramSep), e.Returns); err != nil {
			return "", fmt.Errorf("inserting %s: %w", e, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// LoadSQLite reads the entries saved under runID, in saved order.
func LoadSQLite(ctx context.Context, path, runID string) ([]Entry, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("run id %q: %w", runID, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT owner, name, params, returns FROM intrinsics WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var params string
		if err := rows.Scan(&e.Owner, &e.Name, &params, &e.Returns); err != nil {
			return nil, err
		}
		if params != "" {
			e.Params = strings.Split(params, paramSep)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
