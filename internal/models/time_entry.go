package models

import "time"

// EntryMode tags which engine produced and owns a time entry row.
type EntryMode string

const (
	ModeSimple   EntryMode = "simple"
	ModeDay      EntryMode = "day"
	ModeTemplate EntryMode = "template"
)

// Valid reports whether m is one of the known entry modes.
func (m EntryMode) Valid() bool {
	switch m {
	case ModeSimple, ModeDay, ModeTemplate:
		return true
	}
	return false
}

// TimeEntry is the single stored entity underlying all three tracking modes.
// An open entry (running timer or open day envelope) has a NULL end_time and
// no duration; duration_minutes is always derived from the two timestamps.
type TimeEntry struct {
	ID              int64      `json:"id" db:"id"`
	UserID          int64      `json:"user_id" db:"user_id"`
	StartTime       time.Time  `json:"start_time" db:"start_time"`
	EndTime         *time.Time `json:"end_time" db:"end_time"`
	DurationMinutes *int       `json:"duration_minutes" db:"duration_minutes"`
	ProjectID       *int64     `json:"project_id" db:"project_id"`
	CategoryID      *int64     `json:"category_id" db:"category_id"`
	Description     string     `json:"description" db:"description"`
	EntryMode       EntryMode  `json:"entry_mode" db:"entry_mode"`
	ParentID        *int64     `json:"parent_id" db:"parent_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the entry is still running.
func (e *TimeEntry) IsOpen() bool {
	return e.EndTime == nil
}

// IsDayEnvelope reports whether the entry is a day-mode parent row.
func (e *TimeEntry) IsDayEnvelope() bool {
	return e.EntryMode == ModeDay && e.ParentID == nil
}

// IsBlock reports whether the entry is a child block of a day envelope.
func (e *TimeEntry) IsBlock() bool {
	return e.ParentID != nil
}

// StartTimerRequest starts a simple-mode timer.
type StartTimerRequest struct {
	ProjectID   *int64 `json:"project_id"`
	CategoryID  *int64 `json:"category_id"`
	Description string `json:"description"`
}

// StopTimerRequest stops the running timer; non-nil fields overwrite the
// entry's mutable fields in the same update.
type StopTimerRequest struct {
	ProjectID   *int64  `json:"project_id"`
	CategoryID  *int64  `json:"category_id"`
	Description *string `json:"description"`
}

// StartDayRequest opens a day envelope.
type StartDayRequest struct {
	Description string `json:"description"`
}

// AddBlockRequest adds a block to the open day envelope.
type AddBlockRequest struct {
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	ProjectID   *int64    `json:"project_id"`
	CategoryID  *int64    `json:"category_id"`
	Description string    `json:"description"`
}

// UpdateBlockRequest carries a partial block edit; nil fields are left alone.
type UpdateBlockRequest struct {
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	ProjectID   *int64     `json:"project_id"`
	CategoryID  *int64     `json:"category_id"`
	Description *string    `json:"description"`
}

// UpdateEntryRequest carries a partial edit of a persisted entry.
type UpdateEntryRequest struct {
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	ProjectID   *int64     `json:"project_id"`
	CategoryID  *int64     `json:"category_id"`
	Description *string    `json:"description"`
}
