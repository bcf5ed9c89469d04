package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/printdeck/printdeck/internal/registry"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed transition repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordTransition inserts a new transition row for a printer.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - printerID: Registry id of the printer
//   - state: Derived display state at the time of the transition
//   - source: Origin of the observation (poll, sync)
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) RecordTransition(ctx context.Context, printerID string, state registry.StoredPrinterState, source string) error {
	if printerID == "" {
		return fmt.Errorf("printer id is required")
	}
	if source == "" {
		source = SourcePoll
	}

	var progress sql.NullFloat64
	if state.Progress != nil {
		progress = sql.NullFloat64{Float64: *state.Progress, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO state_transitions (printer_id, label, variant, progress, source) VALUES (?, ?, ?, ?, ?)",
		printerID,
		state.Label,
		string(state.Variant),
		progress,
		source,
	)
	if err != nil {
		return fmt.Errorf("inserting state transition: %w", err)
	}

	return nil
}

// GetHistory returns recent transitions for a printer, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - printerID: Registry id of the printer
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Entry: Transitions ordered by created_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) GetHistory(ctx context.Context, printerID string, limit int) ([]Entry, error) {
	if printerID == "" {
		return nil, fmt.Errorf("printer id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, printer_id, label, variant, progress, source, created_at
		 FROM state_transitions
		 WHERE printer_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		printerID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state transitions: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var variant string
		var progress sql.NullFloat64
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.PrinterID, &entry.Label, &variant, &progress, &entry.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning state transition: %w", err)
		}

		entry.Variant = registry.StateVariant(variant)
		if progress.Valid {
			v := progress.Float64
			entry.Progress = &v
		}

		timestamp, err := parseTransitionTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state transitions: %w", err)
	}

	return entries, nil
}

// Prune deletes transitions older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM state_transitions WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting state transitions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseTransitionTimestamp parses a timestamp stored in SQLite.
func parseTransitionTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}
