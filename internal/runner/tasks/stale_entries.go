// Package tasks holds the scheduled background jobs.
package tasks

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/chronos-io/chronos-ce/internal/interval"
	"github.com/chronos-io/chronos-ce/internal/repository"
)

// StaleEntriesTask closes open timers and day envelopes that were forgotten.
// An entry left open longer than maxAge is closed at start+maxAge, so the
// recorded duration never exceeds the policy window.
type StaleEntriesTask struct {
	entries  repository.TimeEntryRepository
	maxAge   time.Duration
	schedule string
	logger   *log.Logger
	now      func() time.Time
}

func NewStaleEntriesTask(entries repository.TimeEntryRepository, maxAge time.Duration, schedule string) *StaleEntriesTask {
	return &StaleEntriesTask{
		entries:  entries,
		maxAge:   maxAge,
		schedule: schedule,
		logger:   log.New(os.Stdout, "[STALE-ENTRIES] ", log.LstdFlags),
		now:      time.Now,
	}
}

func (t *StaleEntriesTask) Name() string {
	return "stale_entries_cleanup"
}

func (t *StaleEntriesTask) Schedule() string {
	return t.schedule
}

func (t *StaleEntriesTask) Timeout() time.Duration {
	return 5 * time.Minute
}

// Run closes every open entry older than the policy window.
func (t *StaleEntriesTask) Run(ctx context.Context) error {
	cutoff := t.now().UTC().Add(-t.maxAge)
	stale, err := t.entries.ListOpenBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	closed := 0
	for i := range stale {
		entry := &stale[i]
		end := entry.StartTime.Add(t.maxAge)
		minutes, err := interval.DurationMinutes(interval.Span{Start: entry.StartTime, End: end})
		if err != nil {
			t.logger.Printf("skipping entry %d: %v", entry.ID, err)
			continue
		}

		entry.EndTime = &end
		entry.DurationMinutes = &minutes
		if err := t.entries.Update(ctx, entry); err != nil {
			t.logger.Printf("failed to close entry %d: %v", entry.ID, err)
			continue
		}
		closed++
	}

	if closed > 0 {
		t.logger.Printf("closed %d stale entries", closed)
	}
	return nil
}
