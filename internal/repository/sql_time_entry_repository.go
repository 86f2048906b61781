package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chronos-io/chronos-ce/internal/database"
	"github.com/chronos-io/chronos-ce/internal/models"
)

// SQLTimeEntryRepository is the sqlx-backed TimeEntryRepository. Queries are
// written with ? placeholders and rebound per driver. The open-entry
// uniqueness invariant lives in the schema (partial unique index); this
// repository only translates the violation into the sentinel error.
type SQLTimeEntryRepository struct {
	db *sqlx.DB
}

// NewSQLTimeEntryRepository creates a SQL-backed entry repository.
func NewSQLTimeEntryRepository(db *sqlx.DB) *SQLTimeEntryRepository {
	return &SQLTimeEntryRepository{db: db}
}

const timeEntryColumns = `id, user_id, start_time, end_time, duration_minutes,
	project_id, category_id, description, entry_mode, parent_id, created_at, updated_at`

// translateWriteErr maps constraint violations onto the repository sentinels.
func translateWriteErr(err error, entry *models.TimeEntry) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateOpenEntry, err)
	}
	if database.IsForeignKeyViolation(err) {
		switch {
		case database.ConstraintMentions(err, "project"):
			return fmt.Errorf("%w: %v", ErrInvalidProjectRef, err)
		case database.ConstraintMentions(err, "category"):
			return fmt.Errorf("%w: %v", ErrInvalidCategoryRef, err)
		case entry.ProjectID != nil && entry.CategoryID == nil:
			// sqlite does not name the failing constraint; fall back to
			// whichever reference the row actually carries.
			return fmt.Errorf("%w: %v", ErrInvalidProjectRef, err)
		case entry.CategoryID != nil && entry.ProjectID == nil:
			return fmt.Errorf("%w: %v", ErrInvalidCategoryRef, err)
		default:
			return fmt.Errorf("%w: %v", ErrInvalidProjectRef, err)
		}
	}
	return err
}

func insertTimeEntry(ctx context.Context, ext sqlx.ExtContext, entry *models.TimeEntry) error {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `INSERT INTO time_entries
		(user_id, start_time, end_time, duration_minutes, project_id, category_id,
		 description, entry_mode, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []interface{}{
		entry.UserID, entry.StartTime, entry.EndTime, entry.DurationMinutes,
		entry.ProjectID, entry.CategoryID, entry.Description, entry.EntryMode,
		entry.ParentID, entry.CreatedAt, entry.UpdatedAt,
	}

	if ext.DriverName() == "postgres" {
		row := ext.QueryRowxContext(ctx, ext.Rebind(query+" RETURNING id"), args...)
		if err := row.Scan(&entry.ID); err != nil {
			return translateWriteErr(err, entry)
		}
		return nil
	}

	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return translateWriteErr(err, entry)
	}
	entry.ID, err = res.LastInsertId()
	return err
}

// Create persists a new entry, assigning its id.
func (r *SQLTimeEntryRepository) Create(ctx context.Context, entry *models.TimeEntry) error {
	return insertTimeEntry(ctx, r.db, entry)
}

// GetByID retrieves an entry by id.
func (r *SQLTimeEntryRepository) GetByID(ctx context.Context, id int64) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	query := r.db.Rebind(`SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = ?`)
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Update overwrites an entry's mutable columns.
func (r *SQLTimeEntryRepository) Update(ctx context.Context, entry *models.TimeEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`UPDATE time_entries SET
		start_time = ?, end_time = ?, duration_minutes = ?, project_id = ?,
		category_id = ?, description = ?, updated_at = ?
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		entry.StartTime, entry.EndTime, entry.DurationMinutes, entry.ProjectID,
		entry.CategoryID, entry.Description, entry.UpdatedAt, entry.ID)
	if err != nil {
		return translateWriteErr(err, entry)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an entry.
func (r *SQLTimeEntryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM time_entries WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOpenEntry returns the user's open entry of the given mode, or nil.
func (r *SQLTimeEntryRepository) GetOpenEntry(ctx context.Context, userID int64, mode models.EntryMode) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	query := r.db.Rebind(`SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE user_id = ? AND entry_mode = ? AND end_time IS NULL AND parent_id IS NULL
		LIMIT 1`)
	if err := r.db.GetContext(ctx, &entry, query, userID, mode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ListByParent returns a day's blocks ordered by start time.
func (r *SQLTimeEntryRepository) ListByParent(ctx context.Context, parentID int64) ([]models.TimeEntry, error) {
	var blocks []models.TimeEntry
	query := r.db.Rebind(`SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE parent_id = ? ORDER BY start_time`)
	if err := r.db.SelectContext(ctx, &blocks, query, parentID); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ListForRange returns the user's entries starting in [from, to).
func (r *SQLTimeEntryRepository) ListForRange(ctx context.Context, userID int64, from, to time.Time) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	query := r.db.Rebind(`SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE user_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time`)
	if err := r.db.SelectContext(ctx, &entries, query, userID, from, to); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExistsInRange reports whether the user has any entry starting in [from, to).
func (r *SQLTimeEntryRepository) ExistsInRange(ctx context.Context, userID int64, from, to time.Time) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM time_entries
		WHERE user_id = ? AND start_time >= ? AND start_time < ?`)
	if err := r.db.GetContext(ctx, &count, query, userID, from, to); err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateDayWithBlocks persists an envelope and its blocks in one transaction.
func (r *SQLTimeEntryRepository) CreateDayWithBlocks(ctx context.Context, envelope *models.TimeEntry, blocks []*models.TimeEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertTimeEntry(ctx, tx, envelope); err != nil {
		return err
	}
	for _, b := range blocks {
		parentID := envelope.ID
		b.ParentID = &parentID
		if err := insertTimeEntry(ctx, tx, b); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListOpenBefore returns open simple/day envelopes started before cutoff.
func (r *SQLTimeEntryRepository) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	query := r.db.Rebind(`SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE end_time IS NULL AND parent_id IS NULL AND start_time < ?
		ORDER BY start_time`)
	if err := r.db.SelectContext(ctx, &entries, query, cutoff); err != nil {
		return nil, err
	}
	return entries, nil
}
