package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/artpar/mira/ports"
	"github.com/google/uuid"
)

// Journal implements ports.DiagnosticJournal using SQLite.
type Journal struct {
	db *DB
}

// NewJournal creates a new SQLite diagnostic journal.
func NewJournal(db *DB) *Journal {
	return &Journal{db: db}
}

// Record stores a diagnostic. Missing ids and timestamps are filled in.
func (j *Journal) Record(ctx context.Context, rec ports.DiagnosticRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO diagnostic_journal (id, module, entity, code, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Module, rec.Entity, rec.Code, rec.Message, rec.CreatedAt.UTC())
	return err
}

// List returns the newest diagnostics first. A limit of zero or less
// returns everything.
func (j *Journal) List(ctx context.Context, limit int) ([]ports.DiagnosticRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, module, entity, code, message, created_at
		FROM diagnostic_journal
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByModule returns a module's diagnostics, newest first.
func (j *Journal) ListByModule(ctx context.Context, module string) ([]ports.DiagnosticRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, module, entity, code, message, created_at
		FROM diagnostic_journal
		WHERE module = ?
		ORDER BY created_at DESC, rowid DESC
	`, module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Get retrieves a diagnostic by id.
func (j *Journal) Get(ctx context.Context, id string) (ports.DiagnosticRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, module, entity, code, message, created_at
		FROM diagnostic_journal
		WHERE id = ?
	`, id)

	var rec ports.DiagnosticRecord
	err := row.Scan(&rec.ID, &rec.Module, &rec.Entity, &rec.Code, &rec.Message, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return ports.DiagnosticRecord{}, ErrNotFound
	}
	return rec, err
}

// Prune removes diagnostics created before cutoff.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := j.db.ExecContext(ctx, `
		DELETE FROM diagnostic_journal WHERE created_at < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanRecords(rows *sql.Rows) ([]ports.DiagnosticRecord, error) {
	var records []ports.DiagnosticRecord
	for rows.Next() {
		var rec ports.DiagnosticRecord
		if err := rows.Scan(&rec.ID, &rec.Module, &rec.Entity, &rec.Code, &rec.Message, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ ports.DiagnosticJournal = (*Journal)(nil)
