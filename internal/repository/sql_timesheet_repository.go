package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// SQLTimesheetRepository is the sqlx-backed TimesheetRepository.
type SQLTimesheetRepository struct {
	db *sqlx.DB
}

// NewSQLTimesheetRepository creates a SQL-backed timesheet repository.
func NewSQLTimesheetRepository(db *sqlx.DB) *SQLTimesheetRepository {
	return &SQLTimesheetRepository{db: db}
}

// GetForDate returns the timesheet whose week contains day, or nil.
func (r *SQLTimesheetRepository) GetForDate(ctx context.Context, userID int64, day time.Time) (*models.Timesheet, error) {
	var ts models.Timesheet
	query := r.db.Rebind(`SELECT id, user_id, week_start, status, created_at, updated_at
		FROM timesheets WHERE user_id = ? AND week_start = ?`)
	if err := r.db.GetContext(ctx, &ts, query, userID, models.WeekStartOf(day)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ts, nil
}
