package models

import "time"

// ProjectSummary is the joined project shape nested into entry responses.
type ProjectSummary struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Color      string `json:"color,omitempty" db:"color"`
	IsArchived bool   `json:"is_archived" db:"is_archived"`
}

// CategorySummary is the joined category shape nested into entry responses.
type CategorySummary struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"is_active" db:"is_active"`
}

// TimeEntryResponse is the externally visible entry shape. EndTime,
// DurationMinutes, Project and Category marshal as explicit nulls when
// absent so clients can tell "open" from "omitted".
type TimeEntryResponse struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"userId"`
	StartTime       time.Time        `json:"startTime"`
	EndTime         *time.Time       `json:"endTime"`
	DurationMinutes *int             `json:"durationMinutes"`
	Project         *ProjectSummary  `json:"project"`
	Category        *CategorySummary `json:"category"`
	Description     string           `json:"description,omitempty"`
	EntryMode       EntryMode        `json:"entryMode"`
	ParentID        *int64           `json:"parentId,omitempty"`
}

// ProjectEntry maps a stored row plus optionally joined summaries into the
// response shape. Summaries may be nil even when the foreign id is set (the
// reference did not resolve); the id is still echoed through the summary-less
// response so nothing is silently invented.
func ProjectEntry(e *TimeEntry, project *ProjectSummary, category *CategorySummary) TimeEntryResponse {
	return TimeEntryResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		DurationMinutes: e.DurationMinutes,
		Project:         project,
		Category:        category,
		Description:     e.Description,
		EntryMode:       e.EntryMode,
		ParentID:        e.ParentID,
	}
}

// DayResponse is a closed or open day envelope with its blocks.
type DayResponse struct {
	Day          TimeEntryResponse   `json:"day"`
	Blocks       []TimeEntryResponse `json:"blocks"`
	TotalMinutes int                 `json:"totalMinutes"`
}

// DayBlocksView is the listBlocks result. DayID and StartTime are nil when
// no day is open, which is an empty result rather than an error.
type DayBlocksView struct {
	DayID        *int64              `json:"dayId"`
	StartTime    *time.Time          `json:"startTime"`
	Blocks       []TimeEntryResponse `json:"blocks"`
	TotalMinutes int                 `json:"totalMinutes"`
}
