package models

import "time"

// TimesheetStatus is the lifecycle state of a weekly timesheet.
type TimesheetStatus string

const (
	TimesheetDraft     TimesheetStatus = "draft"
	TimesheetSubmitted TimesheetStatus = "submitted"
	TimesheetValidated TimesheetStatus = "validated"
	TimesheetRejected  TimesheetStatus = "rejected"
)

// Locked reports whether entries covered by a timesheet in this status are
// immutable to their owner.
func (s TimesheetStatus) Locked() bool {
	return s == TimesheetSubmitted || s == TimesheetValidated
}

// Timesheet covers one calendar week of a user's entries. Timesheets are
// owned by an external collaborator; the core only consults their status.
type Timesheet struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	WeekStart time.Time       `json:"week_start" db:"week_start"`
	Status    TimesheetStatus `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// WeekStartOf returns the Monday 00:00 UTC anchor of the week containing t.
func WeekStartOf(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
