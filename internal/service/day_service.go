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

// DayService owns the day-mode state machine: one open envelope per user,
// holding non-overlapping child blocks fully contained in the envelope.
type DayService struct {
	entries repository.TimeEntryRepository
	guard   *LockGuard
	now     func() time.Time
}

// NewDayService creates a day service.
func NewDayService(entries repository.TimeEntryRepository, guard *LockGuard) *DayService {
	return &DayService{entries: entries, guard: guard, now: time.Now}
}

// StartDay opens a day envelope at the current instant. Fails with
// DayAlreadyActive (carrying the open envelope) when one is already open.
func (s *DayService) StartDay(ctx context.Context, userID int64, req models.StartDayRequest) (*models.TimeEntry, error) {
	description, err := cleanDescription(req.Description)
	if err != nil {
		return nil, err
	}

	existing, err := s.entries.GetOpenEntry(ctx, userID, models.ModeDay)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DomainError{
			Kind:    KindDayAlreadyActive,
			Message: "a day is already active",
			Entry:   existing,
		}
	}

	envelope := &models.TimeEntry{
		UserID:      userID,
		StartTime:   s.now().UTC(),
		Description: description,
		EntryMode:   models.ModeDay,
	}
	if err := s.entries.Create(ctx, envelope); err != nil {
		if errors.Is(err, repository.ErrDuplicateOpenEntry) {
			if open, lookupErr := s.entries.GetOpenEntry(ctx, userID, models.ModeDay); lookupErr == nil && open != nil {
				return nil, &DomainError{
					Kind:    KindDayAlreadyActive,
					Message: "a day is already active",
					Entry:   open,
				}
			}
			return nil, wrapDomain(KindDayAlreadyActive, "a day is already active", err)
		}
		return nil, translateRefErr(err)
	}
	return envelope, nil
}

// EndDay closes the open envelope at the current instant and returns it with
// its blocks ordered by start time. Blocks may extend past "now" while the
// envelope is open, so the close instant is pushed out to the latest block
// end when needed; the closed envelope always contains all of its blocks.
func (s *DayService) EndDay(ctx context.Context, userID int64) (*models.TimeEntry, []models.TimeEntry, error) {
	open, err := s.entries.GetOpenEntry(ctx, userID, models.ModeDay)
	if err != nil {
		return nil, nil, err
	}
	if open == nil {
		return nil, nil, domainErr(KindNoActiveDay, "no day is active")
	}

	blocks, err := s.entries.ListByParent(ctx, open.ID)
	if err != nil {
		return nil, nil, err
	}

	end := s.now().UTC()
	for i := range blocks {
		if blocks[i].EndTime != nil && blocks[i].EndTime.After(end) {
			end = *blocks[i].EndTime
		}
	}
	minutes, err := interval.DurationMinutes(interval.Span{Start: open.StartTime, End: end})
	if err != nil {
		return nil, nil, wrapDomain(KindInvalidInterval, "day end is not after its start", err)
	}
	open.EndTime = &end
	open.DurationMinutes = &minutes

	if err := s.entries.Update(ctx, open); err != nil {
		return nil, nil, err
	}
	return open, blocks, nil
}

// validateBlockPlacement enforces the two day-mode interval invariants for a
// candidate block span: full containment in the envelope (an open envelope's
// end is unbounded) and no overlap with siblings. excludeID skips the block
// being edited when checking its own siblings.
func validateBlockPlacement(envelope *models.TimeEntry, siblings []models.TimeEntry, span interval.Span, excludeID int64) error {
	outside := span.Start.Before(envelope.StartTime)
	if envelope.EndTime != nil {
		outside = !interval.Contains(interval.Span{Start: envelope.StartTime, End: *envelope.EndTime}, span)
	}
	if outside {
		return domainErr(KindBlockOutsideDay, "block does not fit inside the day boundaries")
	}

	for i := range siblings {
		sibling := &siblings[i]
		if sibling.ID == excludeID || sibling.EndTime == nil {
			continue
		}
		if interval.Overlaps(span, interval.Span{Start: sibling.StartTime, End: *sibling.EndTime}) {
			return &DomainError{
				Kind:    KindBlocksOverlap,
				Message: fmt.Sprintf("block overlaps existing block %d", sibling.ID),
				Entry:   sibling,
			}
		}
	}
	return nil
}

// AddBlock adds a block to the user's open day. Siblings are re-read
// immediately before the insert; a narrow write race on overlap remains a
// known limitation.
func (s *DayService) AddBlock(ctx context.Context, userID int64, req models.AddBlockRequest) (*models.TimeEntry, error) {
	description, err := cleanDescription(req.Description)
	if err != nil {
		return nil, err
	}
	span := interval.Span{Start: req.StartTime.UTC(), End: req.EndTime.UTC()}
	if !span.Valid() {
		return nil, validationErr("end_time", "must be after start_time")
	}

	day, err := s.entries.GetOpenEntry(ctx, userID, models.ModeDay)
	if err != nil {
		return nil, err
	}
	if day == nil {
		return nil, domainErr(KindNoActiveDay, "no day is active")
	}

	siblings, err := s.entries.ListByParent(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	if err := validateBlockPlacement(day, siblings, span, 0); err != nil {
		return nil, err
	}

	minutes, err := interval.DurationMinutes(span)
	if err != nil {
		return nil, wrapDomain(KindInvalidInterval, "block end is not after its start", err)
	}

	block := &models.TimeEntry{
		UserID:          userID,
		StartTime:       span.Start,
		EndTime:         &span.End,
		DurationMinutes: &minutes,
		ProjectID:       req.ProjectID,
		CategoryID:      req.CategoryID,
		Description:     description,
		EntryMode:       models.ModeDay,
		ParentID:        &day.ID,
	}
	if err := s.entries.Create(ctx, block); err != nil {
		return nil, translateRefErr(err)
	}
	return block, nil
}

// UpdateBlock applies a partial edit to a block, re-validating the merged
// interval against the envelope and the other siblings.
func (s *DayService) UpdateBlock(ctx context.Context, userID int64, blockID int64, req models.UpdateBlockRequest) (*models.TimeEntry, error) {
	block, err := s.entries.GetByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("block")
		}
		return nil, err
	}
	if !block.IsBlock() {
		return nil, notFoundErr("block")
	}
	if block.UserID != userID {
		return nil, forbiddenErr("block")
	}
	if err := s.guard.AssertMutable(ctx, block); err != nil {
		return nil, err
	}

	envelope, err := s.entries.GetByID(ctx, *block.ParentID)
	if err != nil {
		return nil, err
	}

	// Merge old and new before re-validating.
	span := interval.Span{Start: block.StartTime}
	if block.EndTime != nil {
		span.End = *block.EndTime
	}
	if req.StartTime != nil {
		span.Start = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		span.End = req.EndTime.UTC()
	}
	if !span.Valid() {
		return nil, validationErr("end_time", "must be after start_time")
	}

	siblings, err := s.entries.ListByParent(ctx, envelope.ID)
	if err != nil {
		return nil, err
	}
	if err := validateBlockPlacement(envelope, siblings, span, block.ID); err != nil {
		return nil, err
	}

	minutes, err := interval.DurationMinutes(span)
	if err != nil {
		return nil, wrapDomain(KindInvalidInterval, "block end is not after its start", err)
	}

	block.StartTime = span.Start
	block.EndTime = &span.End
	block.DurationMinutes = &minutes
	if req.ProjectID != nil {
		block.ProjectID = req.ProjectID
	}
	if req.CategoryID != nil {
		block.CategoryID = req.CategoryID
	}
	if req.Description != nil {
		description, err := cleanDescription(*req.Description)
		if err != nil {
			return nil, err
		}
		block.Description = description
	}

	if err := s.entries.Update(ctx, block); err != nil {
		return nil, translateRefErr(err)
	}
	return block, nil
}

// RemoveBlock deletes a block. Removal cannot violate the interval
// invariants, so only ownership and the lock policy are checked.
func (s *DayService) RemoveBlock(ctx context.Context, userID int64, blockID int64) error {
	block, err := s.entries.GetByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundErr("block")
		}
		return err
	}
	if !block.IsBlock() {
		return notFoundErr("block")
	}
	if block.UserID != userID {
		return forbiddenErr("block")
	}
	if err := s.guard.AssertMutable(ctx, block); err != nil {
		return err
	}
	return s.entries.Delete(ctx, blockID)
}

// ListBlocks returns the open day's blocks and the sum of their durations.
// No open day is an empty result, not an error.
func (s *DayService) ListBlocks(ctx context.Context, userID int64) (*models.TimeEntry, []models.TimeEntry, int, error) {
	day, err := s.entries.GetOpenEntry(ctx, userID, models.ModeDay)
	if err != nil {
		return nil, nil, 0, err
	}
	if day == nil {
		return nil, nil, 0, nil
	}

	blocks, err := s.entries.ListByParent(ctx, day.ID)
	if err != nil {
		return nil, nil, 0, err
	}
	total := 0
	for i := range blocks {
		if blocks[i].DurationMinutes != nil {
			total += *blocks[i].DurationMinutes
		}
	}
	return day, blocks, total, nil
}
