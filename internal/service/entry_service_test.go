package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/repository"
)

func TestEntryService(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*repository.MemoryTimeEntryRepository, *repository.MemoryTimesheetRepository, *EntryService, *models.TimeEntry) {
		t.Helper()
		repo := repository.NewMemoryTimeEntryRepository()
		sheets := repository.NewMemoryTimesheetRepository()
		svc := NewEntryService(repo, NewLockGuard(sheets))

		timers := NewTimerService(repo)
		timers.now = fixedClock(base)
		_, err := timers.Start(ctx, 1, models.StartTimerRequest{})
		require.NoError(t, err)
		timers.now = fixedClock(base.Add(time.Hour))
		entry, err := timers.Stop(ctx, 1, models.StopTimerRequest{})
		require.NoError(t, err)
		return repo, sheets, svc, entry
	}

	t.Run("Update_RecomputesDuration", func(t *testing.T) {
		_, _, svc, entry := setup(t)
		newEnd := base.Add(150 * time.Minute)
		updated, err := svc.Update(ctx, 1, entry.ID, models.UpdateEntryRequest{EndTime: &newEnd})
		require.NoError(t, err)
		require.NotNil(t, updated.DurationMinutes)
		assert.Equal(t, 150, *updated.DurationMinutes)
	})

	t.Run("Update_RejectsInvertedInterval", func(t *testing.T) {
		_, _, svc, entry := setup(t)
		badEnd := base.Add(-time.Hour)
		_, err := svc.Update(ctx, 1, entry.ID, models.UpdateEntryRequest{EndTime: &badEnd})
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("Update_LockedTimesheet", func(t *testing.T) {
		_, sheets, svc, entry := setup(t)
		sheets.SetStatus(1, entry.StartTime, models.TimesheetValidated)

		description := "tweak"
		_, err := svc.Update(ctx, 1, entry.ID, models.UpdateEntryRequest{Description: &description})
		assert.Equal(t, KindTimesheetLocked, KindOf(err))

		err = svc.Delete(ctx, 1, entry.ID)
		assert.Equal(t, KindTimesheetLocked, KindOf(err))
	})

	t.Run("Update_MultibyteDescriptionCountsCharacters", func(t *testing.T) {
		_, _, svc, entry := setup(t)
		// 300 characters but 900 bytes; the limit is characters.
		description := strings.Repeat("あ", 300)
		updated, err := svc.Update(ctx, 1, entry.ID, models.UpdateEntryRequest{Description: &description})
		require.NoError(t, err)
		assert.Equal(t, description, updated.Description)

		tooLong := strings.Repeat("あ", 501)
		_, err = svc.Update(ctx, 1, entry.ID, models.UpdateEntryRequest{Description: &tooLong})
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("Update_Forbidden", func(t *testing.T) {
		_, _, svc, entry := setup(t)
		description := "not mine"
		_, err := svc.Update(ctx, 2, entry.ID, models.UpdateEntryRequest{Description: &description})
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("Delete", func(t *testing.T) {
		repo, _, svc, entry := setup(t)
		require.NoError(t, svc.Delete(ctx, 1, entry.ID))
		_, err := repo.GetByID(ctx, entry.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Delete_NotFound", func(t *testing.T) {
		_, _, svc, _ := setup(t)
		err := svc.Delete(ctx, 1, 9999)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("BlockEditsKeepDayInvariants", func(t *testing.T) {
		repo := repository.NewMemoryTimeEntryRepository()
		sheets := repository.NewMemoryTimesheetRepository()
		svc := NewEntryService(repo, NewLockGuard(sheets))

		days := NewDayService(repo, NewLockGuard(sheets))
		days.now = fixedClock(base)
		_, err := days.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)
		first, err := days.AddBlock(ctx, 1, models.AddBlockRequest{
			StartTime: base, EndTime: base.Add(time.Hour),
		})
		require.NoError(t, err)
		_, err = days.AddBlock(ctx, 1, models.AddBlockRequest{
			StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour),
		})
		require.NoError(t, err)

		// Stretching the first block over the second through the generic
		// entry path still trips the overlap check.
		newEnd := base.Add(90 * time.Minute)
		_, err = svc.Update(ctx, 1, first.ID, models.UpdateEntryRequest{EndTime: &newEnd})
		assert.Equal(t, KindBlocksOverlap, KindOf(err))
	})

	t.Run("EnvelopeEditsCannotStrandBlocks", func(t *testing.T) {
		repo := repository.NewMemoryTimeEntryRepository()
		sheets := repository.NewMemoryTimesheetRepository()
		svc := NewEntryService(repo, NewLockGuard(sheets))

		days := NewDayService(repo, NewLockGuard(sheets))
		days.now = fixedClock(base)
		_, err := days.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)
		block, err := days.AddBlock(ctx, 1, models.AddBlockRequest{
			StartTime: base.Add(time.Hour), EndTime: base.Add(3 * time.Hour),
		})
		require.NoError(t, err)
		days.now = fixedClock(base.Add(10 * time.Hour))
		envelope, _, err := days.EndDay(ctx, 1)
		require.NoError(t, err)

		// Shrinking the closed envelope below the block's end must fail
		// and name the stranded block.
		shortEnd := base.Add(2 * time.Hour)
		_, err = svc.Update(ctx, 1, envelope.ID, models.UpdateEntryRequest{EndTime: &shortEnd})
		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, KindBlockOutsideDay, de.Kind)
		require.NotNil(t, de.Entry)
		assert.Equal(t, block.ID, de.Entry.ID)

		// Moving the start past the block's start fails the same way.
		lateStart := base.Add(90 * time.Minute)
		_, err = svc.Update(ctx, 1, envelope.ID, models.UpdateEntryRequest{StartTime: &lateStart})
		assert.Equal(t, KindBlockOutsideDay, KindOf(err))

		// Tightening to exactly the block's bounds is still containment.
		tightEnd := base.Add(3 * time.Hour)
		updated, err := svc.Update(ctx, 1, envelope.ID, models.UpdateEntryRequest{EndTime: &tightEnd})
		require.NoError(t, err)
		require.NotNil(t, updated.DurationMinutes)
		assert.Equal(t, 180, *updated.DurationMinutes)
	})
}
