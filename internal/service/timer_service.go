package service

import (
	"context"
	"errors"
	"time"

	"github.com/chronos-io/chronos-ce/internal/interval"
	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/repository"
)

// TimerService owns the simple-mode timer state machine: at most one open
// simple entry per user, start/stop transitions. The storage layer's
// uniqueness constraint is the arbiter of the at-most-one invariant; the
// pre-check here is a fast reject, so a lost race still comes back as
// TimerAlreadyRunning.
type TimerService struct {
	entries repository.TimeEntryRepository
	now     func() time.Time
}

// NewTimerService creates a timer service.
func NewTimerService(entries repository.TimeEntryRepository) *TimerService {
	return &TimerService{entries: entries, now: time.Now}
}

// Start opens a new simple-mode entry at the current instant. Fails with
// TimerAlreadyRunning (carrying the open entry) when one is already running.
func (s *TimerService) Start(ctx context.Context, userID int64, req models.StartTimerRequest) (*models.TimeEntry, error) {
	description, err := cleanDescription(req.Description)
	if err != nil {
		return nil, err
	}

	existing, err := s.entries.GetOpenEntry(ctx, userID, models.ModeSimple)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DomainError{
			Kind:    KindTimerAlreadyRunning,
			Message: "a timer is already running",
			Entry:   existing,
		}
	}

	entry := &models.TimeEntry{
		UserID:      userID,
		StartTime:   s.now().UTC(),
		ProjectID:   req.ProjectID,
		CategoryID:  req.CategoryID,
		Description: description,
		EntryMode:   models.ModeSimple,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateOpenEntry) {
			// Lost the race to a concurrent start; report the winner.
			if open, lookupErr := s.entries.GetOpenEntry(ctx, userID, models.ModeSimple); lookupErr == nil && open != nil {
				return nil, &DomainError{
					Kind:    KindTimerAlreadyRunning,
					Message: "a timer is already running",
					Entry:   open,
				}
			}
			return nil, wrapDomain(KindTimerAlreadyRunning, "a timer is already running", err)
		}
		return nil, translateRefErr(err)
	}
	return entry, nil
}

// Stop closes the running timer at the current instant, recomputing its
// duration. Non-nil request fields overwrite the entry in the same update.
func (s *TimerService) Stop(ctx context.Context, userID int64, req models.StopTimerRequest) (*models.TimeEntry, error) {
	open, err := s.entries.GetOpenEntry(ctx, userID, models.ModeSimple)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, domainErr(KindNoActiveTimer, "no timer is running")
	}

	end := s.now().UTC()
	minutes, err := interval.DurationMinutes(interval.Span{Start: open.StartTime, End: end})
	if err != nil {
		return nil, wrapDomain(KindInvalidInterval, "timer end is not after its start", err)
	}

	open.EndTime = &end
	open.DurationMinutes = &minutes
	if req.ProjectID != nil {
		open.ProjectID = req.ProjectID
	}
	if req.CategoryID != nil {
		open.CategoryID = req.CategoryID
	}
	if req.Description != nil {
		description, err := cleanDescription(*req.Description)
		if err != nil {
			return nil, err
		}
		open.Description = description
	}

	if err := s.entries.Update(ctx, open); err != nil {
		return nil, translateRefErr(err)
	}
	return open, nil
}

// Status returns the user's running timer, or nil when idle.
func (s *TimerService) Status(ctx context.Context, userID int64) (*models.TimeEntry, error) {
	return s.entries.GetOpenEntry(ctx, userID, models.ModeSimple)
}
