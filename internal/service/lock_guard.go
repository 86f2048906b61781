package service

import (
	"context"

	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/repository"
)

// LockGuard blocks edits and deletes of entries covered by a submitted or
// validated timesheet. It is consulted before every direct mutation of a
// persisted entry or block; creates, reads and the timer/day start/stop
// transitions bypass it.
type LockGuard struct {
	timesheets repository.TimesheetRepository
}

// NewLockGuard creates a lock guard over the timesheet collaborator.
func NewLockGuard(timesheets repository.TimesheetRepository) *LockGuard {
	return &LockGuard{timesheets: timesheets}
}

// AssertMutable returns TimesheetLocked when the entry's week belongs to a
// submitted/validated timesheet, nil otherwise.
func (g *LockGuard) AssertMutable(ctx context.Context, entry *models.TimeEntry) error {
	ts, err := g.timesheets.GetForDate(ctx, entry.UserID, entry.StartTime)
	if err != nil {
		return err
	}
	if ts != nil && ts.Status.Locked() {
		return domainErr(KindTimesheetLocked,
			"time entry belongs to a submitted/validated timesheet and cannot be modified")
	}
	return nil
}
