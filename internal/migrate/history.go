package migrate

import (
	"context"
	"fmt"
	"time"

	"schema_migrator/internal/db"
)

// HistoryStore owns the single table recording applied migration names. All
// statement methods take an Execer so record/remove join the migration's
// transaction.
type HistoryStore struct {
	dialect db.Dialect
	table   string
}

// HistoryEntry is one applied migration.
type HistoryEntry struct {
	Name        string    `json:"name"`
	DateApplied time.Time `json:"date_applied"`
}

func NewHistoryStore(dialect db.Dialect, table string) *HistoryStore {
	return &HistoryStore{dialect: dialect, table: table}
}

// Ensure creates the history table if absent. Called once at repository
// construction; the engine never drops it.
func (h *HistoryStore) Ensure(ctx context.Context, ex db.Execer) error {
	return h.dialect.EnsureHistoryTable(ctx, ex, h.table)
}

// List returns the applied migration names in ascending order.
func (h *HistoryStore) List(ctx context.Context, ex db.Execer) ([]string, error) {
	stmt := fmt.Sprintf("SELECT name FROM %s ORDER BY name", h.dialect.QuoteIdent(h.table))
	rows, err := ex.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Entries returns applied migrations with their timestamps, newest first.
func (h *HistoryStore) Entries(ctx context.Context, ex db.Execer) ([]HistoryEntry, error) {
	stmt := fmt.Sprintf("SELECT name, date_applied FROM %s ORDER BY name DESC", h.dialect.QuoteIdent(h.table))
	rows, err := ex.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e       HistoryEntry
			applied any
		)
		if err := rows.Scan(&e.Name, &applied); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.DateApplied, err = coerceTime(applied)
		if err != nil {
			return nil, fmt.Errorf("history entry %s: %w", e.Name, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// coerceTime handles drivers that return timestamps as text (sqlite stores
// CURRENT_TIMESTAMP defaults that way).
func coerceTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return parseTimestamp(string(t))
	case string:
		return parseTimestamp(t)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Record marks a migration as applied.
func (h *HistoryStore) Record(ctx context.Context, ex db.Execer, name string) error {
	stmt := fmt.Sprintf("INSERT INTO %s (name) VALUES (%s)",
		h.dialect.QuoteIdent(h.table), h.dialect.Placeholder(1))
	if _, err := ex.ExecContext(ctx, stmt, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return nil
}

// Remove deletes a migration's history record; a missing record is not an
// error.
func (h *HistoryStore) Remove(ctx context.Context, ex db.Execer, name string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE name = %s",
		h.dialect.QuoteIdent(h.table), h.dialect.Placeholder(1))
	if _, err := ex.ExecContext(ctx, stmt, name); err != nil {
		return fmt.Errorf("remove migration %s: %w", name, err)
	}
	return nil
}
