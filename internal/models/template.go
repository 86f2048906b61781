package models

import (
	"fmt"
	"regexp"
	"time"
)

// Template is a reusable, user-owned, ordered day pattern.
type Template struct {
	ID          int64           `json:"id" db:"id"`
	UserID      int64           `json:"user_id" db:"user_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Entries     []TemplateEntry `json:"entries" db:"-"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// TemplateEntry is one relative time-of-day slot of a template. StartTime
// and EndTime are wall-clock HH:MM strings with no date component.
type TemplateEntry struct {
	ID          int64  `json:"id" db:"id"`
	TemplateID  int64  `json:"template_id" db:"template_id"`
	StartTime   string `json:"start_time" db:"start_time"`
	EndTime     string `json:"end_time" db:"end_time"`
	ProjectID   *int64 `json:"project_id" db:"project_id"`
	CategoryID  *int64 `json:"category_id" db:"category_id"`
	Description string `json:"description" db:"description"`
	SortOrder   int    `json:"sort_order" db:"sort_order"`
}

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParseTimeOfDay parses an HH:MM wall-clock value into hour and minute.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	if !timeOfDayRe.MatchString(s) {
		return 0, 0, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	fmt.Sscanf(s, "%d:%d", &hour, &minute)
	return hour, minute, nil
}

// AnchorTimeOfDay places an HH:MM value onto a calendar date in UTC.
func AnchorTimeOfDay(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}

// TemplateEntryInput is one slot of a create-template request.
type TemplateEntryInput struct {
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	ProjectID   *int64 `json:"project_id"`
	CategoryID  *int64 `json:"category_id"`
	Description string `json:"description"`
}

// CreateTemplateRequest creates a template with its ordered entries.
type CreateTemplateRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	Entries     []TemplateEntryInput `json:"entries"`
}

// CreateFromDayRequest converts an existing day entry into a template.
type CreateFromDayRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ApplyTemplateRequest materializes a template onto a calendar date.
type ApplyTemplateRequest struct {
	Date string `json:"date" binding:"required"`
}

// Warning types reported by template application.
const (
	WarningArchivedProject  = "ARCHIVED_PROJECT"
	WarningInactiveCategory = "INACTIVE_CATEGORY"
)

// ApplyWarning records a template reference that was cleared during
// materialization instead of failing the whole operation.
type ApplyWarning struct {
	Type       string `json:"type"`
	EntryIndex int    `json:"entryIndex"`
	OriginalID int64  `json:"originalId"`
}

// ApplyMetadata describes what a template application produced.
type ApplyMetadata struct {
	TemplateID     int64          `json:"templateId"`
	TemplateName   string         `json:"templateName"`
	EntriesApplied int            `json:"entriesApplied"`
	Warnings       []ApplyWarning `json:"warnings"`
}

// ApplyResult is the full template-application response.
type ApplyResult struct {
	Day  DayResponse   `json:"day"`
	Meta ApplyMetadata `json:"meta"`
}

// TemplateEntryResponse is a template entry with joined reference summaries.
type TemplateEntryResponse struct {
	ID          int64            `json:"id"`
	StartTime   string           `json:"startTime"`
	EndTime     string           `json:"endTime"`
	Project     *ProjectSummary  `json:"project"`
	Category    *CategorySummary `json:"category"`
	Description string           `json:"description,omitempty"`
	SortOrder   int              `json:"sortOrder"`
}

// TemplateResponse is the externally visible template shape.
type TemplateResponse struct {
	ID          int64                   `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Entries     []TemplateEntryResponse `json:"entries"`
	CreatedAt   time.Time               `json:"createdAt"`
}
