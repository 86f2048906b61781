package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chronos-io/chronos-ce/internal/interval"
	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/repository"
)

// EntryService handles direct field edits and deletes of persisted entries,
// the mutations the lock policy applies to. Block edits arriving through
// this path are held to the same interval invariants as the day engine.
type EntryService struct {
	entries repository.TimeEntryRepository
	guard   *LockGuard
}

// NewEntryService creates an entry service.
func NewEntryService(entries repository.TimeEntryRepository, guard *LockGuard) *EntryService {
	return &EntryService{entries: entries, guard: guard}
}

func (s *EntryService) resolveOwned(ctx context.Context, userID, id int64) (*models.TimeEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("time entry")
		}
		return nil, err
	}
	if entry.UserID != userID {
		return nil, forbiddenErr("time entry")
	}
	return entry, nil
}

// Update applies a partial edit to an entry, recomputing its duration from
// the merged timestamps.
func (s *EntryService) Update(ctx context.Context, userID, id int64, req models.UpdateEntryRequest) (*models.TimeEntry, error) {
	entry, err := s.resolveOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertMutable(ctx, entry); err != nil {
		return nil, err
	}

	start := entry.StartTime
	end := entry.EndTime
	if req.StartTime != nil {
		t := req.StartTime.UTC()
		start = t
	}
	if req.EndTime != nil {
		t := req.EndTime.UTC()
		end = &t
	}
	if end != nil && !end.After(start) {
		return nil, validationErr("end_time", "must be after start_time")
	}

	switch {
	case entry.IsBlock():
		if end == nil {
			return nil, validationErr("end_time", "blocks cannot be reopened")
		}
		envelope, err := s.entries.GetByID(ctx, *entry.ParentID)
		if err != nil {
			return nil, err
		}
		siblings, err := s.entries.ListByParent(ctx, envelope.ID)
		if err != nil {
			return nil, err
		}
		if err := validateBlockPlacement(envelope, siblings, interval.Span{Start: start, End: *end}, entry.ID); err != nil {
			return nil, err
		}
	case entry.IsDayEnvelope():
		// Moving the envelope must not strand any of its blocks outside
		// the new boundaries.
		blocks, err := s.entries.ListByParent(ctx, entry.ID)
		if err != nil {
			return nil, err
		}
		for i := range blocks {
			block := &blocks[i]
			outside := block.StartTime.Before(start)
			if end != nil && block.EndTime != nil && block.EndTime.After(*end) {
				outside = true
			}
			if outside {
				return nil, &DomainError{
					Kind:    KindBlockOutsideDay,
					Message: fmt.Sprintf("new boundaries would leave block %d outside the day", block.ID),
					Entry:   block,
				}
			}
		}
	}

	entry.StartTime = start
	entry.EndTime = end
	if end != nil {
		minutes, err := interval.DurationMinutes(interval.Span{Start: start, End: *end})
		if err != nil {
			return nil, wrapDomain(KindInvalidInterval, "entry end is not after its start", err)
		}
		entry.DurationMinutes = &minutes
	} else {
		entry.DurationMinutes = nil
	}
	if req.ProjectID != nil {
		entry.ProjectID = req.ProjectID
	}
	if req.CategoryID != nil {
		entry.CategoryID = req.CategoryID
	}
	if req.Description != nil {
		description, err := cleanDescription(*req.Description)
		if err != nil {
			return nil, err
		}
		entry.Description = description
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, translateRefErr(err)
	}
	return entry, nil
}

// Delete removes an entry after ownership and lock checks.
func (s *EntryService) Delete(ctx context.Context, userID, id int64) error {
	entry, err := s.resolveOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.guard.AssertMutable(ctx, entry); err != nil {
		return err
	}
	return s.entries.Delete(ctx, id)
}

// ListForRange returns the user's entries starting in [from, to).
func (s *EntryService) ListForRange(ctx context.Context, userID int64, from, to time.Time) ([]models.TimeEntry, error) {
	if !to.After(from) {
		return nil, validationErr("to", "must be after from")
	}
	return s.entries.ListForRange(ctx, userID, from.UTC(), to.UTC())
}
