package repository

import (
	"context"
	"sync"
	"time"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// MemoryTimesheetRepository is an in-memory implementation of
// TimesheetRepository, keyed by (user, week start).
type MemoryTimesheetRepository struct {
	mu     sync.RWMutex
	sheets map[int64]map[time.Time]*models.Timesheet
	nextID int64
}

// NewMemoryTimesheetRepository creates an empty in-memory timesheet repository.
func NewMemoryTimesheetRepository() *MemoryTimesheetRepository {
	return &MemoryTimesheetRepository{
		sheets: make(map[int64]map[time.Time]*models.Timesheet),
		nextID: 1,
	}
}

// SetStatus upserts the timesheet covering day's week with the given status.
func (r *MemoryTimesheetRepository) SetStatus(userID int64, day time.Time, status models.TimesheetStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	week := models.WeekStartOf(day)
	if r.sheets[userID] == nil {
		r.sheets[userID] = make(map[time.Time]*models.Timesheet)
	}
	if ts, ok := r.sheets[userID][week]; ok {
		ts.Status = status
		ts.UpdatedAt = time.Now().UTC()
		return
	}
	r.sheets[userID][week] = &models.Timesheet{
		ID:        r.nextID,
		UserID:    userID,
		WeekStart: week,
		Status:    status,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	r.nextID++
}

// GetForDate returns the timesheet whose week contains day, or nil.
func (r *MemoryTimesheetRepository) GetForDate(ctx context.Context, userID int64, day time.Time) (*models.Timesheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	weeks, ok := r.sheets[userID]
	if !ok {
		return nil, nil
	}
	ts, ok := weeks[models.WeekStartOf(day)]
	if !ok {
		return nil, nil
	}
	result := *ts
	return &result, nil
}
