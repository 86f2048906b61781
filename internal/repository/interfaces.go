package repository

import (
	"context"
	"time"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// TimeEntryRepository defines persistence for time entries across all three
// entry modes. Implementations must enforce at the storage level that at most
// one open entry per (user, mode) exists for simple and day rows, returning
// ErrDuplicateOpenEntry on violation, and must return ErrInvalidProjectRef /
// ErrInvalidCategoryRef for unresolved foreign references.
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *models.TimeEntry) error
	GetByID(ctx context.Context, id int64) (*models.TimeEntry, error)
	Update(ctx context.Context, entry *models.TimeEntry) error
	Delete(ctx context.Context, id int64) error

	// GetOpenEntry returns the user's open (end_time IS NULL) entry of the
	// given mode, or (nil, nil) when none is open. Day-mode lookups only
	// consider envelope rows (parent_id IS NULL).
	GetOpenEntry(ctx context.Context, userID int64, mode models.EntryMode) (*models.TimeEntry, error)

	// ListByParent returns the blocks of a day envelope ordered by start time.
	ListByParent(ctx context.Context, parentID int64) ([]models.TimeEntry, error)

	// ListForRange returns the user's entries with start_time in [from, to),
	// ordered by start time.
	ListForRange(ctx context.Context, userID int64, from, to time.Time) ([]models.TimeEntry, error)

	// ExistsInRange reports whether the user has any entry starting in [from, to).
	ExistsInRange(ctx context.Context, userID int64, from, to time.Time) (bool, error)

	// CreateDayWithBlocks persists an envelope and its blocks atomically;
	// a failure after the envelope insert rolls the whole operation back.
	CreateDayWithBlocks(ctx context.Context, envelope *models.TimeEntry, blocks []*models.TimeEntry) error

	// ListOpenBefore returns open simple entries and day envelopes that
	// started before the cutoff, across all users.
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]models.TimeEntry, error)
}

// TemplateRepository defines persistence for templates and their entries.
type TemplateRepository interface {
	// CreateWithEntries persists the template and its ordered entries
	// atomically; no orphaned template may survive a partial failure.
	CreateWithEntries(ctx context.Context, template *models.Template, entries []models.TemplateEntry) error

	// GetByID returns the template with its entries ordered by sort_order,
	// or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Template, error)

	ListByUser(ctx context.Context, userID int64) ([]models.Template, error)

	// Delete removes the template and cascades to its entries.
	Delete(ctx context.Context, id int64) error
}

// LookupRepository resolves project and category reference flags in batches.
// Unknown ids are simply absent from the returned maps.
type LookupRepository interface {
	GetProjects(ctx context.Context, ids []int64) (map[int64]models.ProjectSummary, error)
	GetCategories(ctx context.Context, ids []int64) (map[int64]models.CategorySummary, error)
}

// TimesheetRepository looks up the timesheet covering a user's week.
type TimesheetRepository interface {
	// GetForDate returns the timesheet whose week contains day, or
	// (nil, nil) when the week has no timesheet yet.
	GetForDate(ctx context.Context, userID int64, day time.Time) (*models.Timesheet, error)
}
