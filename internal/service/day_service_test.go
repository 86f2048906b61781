package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/repository"
)

type dayFixture struct {
	repo   *repository.MemoryTimeEntryRepository
	sheets *repository.MemoryTimesheetRepository
	svc    *DayService
}

func newDayFixture(now time.Time) *dayFixture {
	repo := repository.NewMemoryTimeEntryRepository()
	sheets := repository.NewMemoryTimesheetRepository()
	svc := NewDayService(repo, NewLockGuard(sheets))
	svc.now = fixedClock(now)
	return &dayFixture{repo: repo, sheets: sheets, svc: svc}
}

func blockReq(start, end time.Time) models.AddBlockRequest {
	return models.AddBlockRequest{StartTime: start, EndTime: end}
}

func TestDayService_StartEnd(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC)

	t.Run("StartDay", func(t *testing.T) {
		f := newDayFixture(base)
		day, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{Description: "office day"})
		require.NoError(t, err)
		assert.True(t, day.IsDayEnvelope())
		assert.Nil(t, day.EndTime)
	})

	t.Run("StartDay_AlreadyActive", func(t *testing.T) {
		f := newDayFixture(base)
		first, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)

		_, err = f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, KindDayAlreadyActive, de.Kind)
		require.NotNil(t, de.Entry)
		assert.Equal(t, first.ID, de.Entry.ID)
	})

	t.Run("EndDay", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)

		_, err = f.svc.AddBlock(ctx, 1, blockReq(base.Add(time.Hour), base.Add(2*time.Hour)))
		require.NoError(t, err)
		_, err = f.svc.AddBlock(ctx, 1, blockReq(base.Add(30*time.Minute), base.Add(45*time.Minute)))
		require.NoError(t, err)

		f.svc.now = fixedClock(base.Add(10 * time.Hour))
		day, blocks, err := f.svc.EndDay(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, day.EndTime)
		require.NotNil(t, day.DurationMinutes)
		assert.Equal(t, 600, *day.DurationMinutes)
		require.Len(t, blocks, 2)
		assert.True(t, blocks[0].StartTime.Before(blocks[1].StartTime), "blocks ordered by start time")
	})

	t.Run("EndDay_ClampsToLatestBlockEnd", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)

		// A block past "now" is allowed while the envelope is open; closing
		// the day must not leave it outside the envelope.
		_, err = f.svc.AddBlock(ctx, 1, blockReq(base.Add(12*time.Hour), base.Add(14*time.Hour)))
		require.NoError(t, err)

		f.svc.now = fixedClock(base.Add(2 * time.Hour))
		day, _, err := f.svc.EndDay(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, day.EndTime)
		assert.Equal(t, base.Add(14*time.Hour), *day.EndTime)
		require.NotNil(t, day.DurationMinutes)
		assert.Equal(t, 840, *day.DurationMinutes)
	})

	t.Run("EndDay_NoActiveDay", func(t *testing.T) {
		f := newDayFixture(base)
		_, _, err := f.svc.EndDay(ctx, 1)
		assert.Equal(t, KindNoActiveDay, KindOf(err))
	})
}

func TestDayService_AddBlock(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time {
		return time.Date(2025, 6, 20, h, m, 0, 0, time.UTC)
	}

	t.Run("NoActiveDay", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.AddBlock(ctx, 1, blockReq(at(9, 0), at(12, 0)))
		assert.Equal(t, KindNoActiveDay, KindOf(err))
	})

	t.Run("InsideOpenDay", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)

		block, err := f.svc.AddBlock(ctx, 1, blockReq(at(9, 0), at(12, 0)))
		require.NoError(t, err)
		require.NotNil(t, block.DurationMinutes)
		assert.Equal(t, 180, *block.DurationMinutes)
		assert.Equal(t, models.ModeDay, block.EntryMode)
		require.NotNil(t, block.ParentID)
	})

	t.Run("BeforeDayStart", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)

		_, err = f.svc.AddBlock(ctx, 1, blockReq(at(7, 0), at(9, 0)))
		assert.Equal(t, KindBlockOutsideDay, KindOf(err))
	})

	t.Run("OpenDayEndIsUnbounded", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)

		// Far past "now" but the envelope is still open.
		_, err = f.svc.AddBlock(ctx, 1, blockReq(at(20, 0), at(22, 0)))
		assert.NoError(t, err)
	})

	t.Run("Overlap", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)

		existing, err := f.svc.AddBlock(ctx, 1, blockReq(at(9, 0), at(12, 0)))
		require.NoError(t, err)

		_, err = f.svc.AddBlock(ctx, 1, blockReq(at(11, 0), at(13, 0)))
		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, KindBlocksOverlap, de.Kind)
		require.NotNil(t, de.Entry, "error must name the conflicting block")
		assert.Equal(t, existing.ID, de.Entry.ID)

		// Touching endpoints do not overlap.
		_, err = f.svc.AddBlock(ctx, 1, blockReq(at(12, 0), at(13, 0)))
		assert.NoError(t, err)
	})

	t.Run("InvertedInterval", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)

		_, err = f.svc.AddBlock(ctx, 1, blockReq(at(12, 0), at(9, 0)))
		assert.Equal(t, KindValidation, KindOf(err))
	})
}

func TestDayService_UpdateBlock(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time {
		return time.Date(2025, 6, 20, h, m, 0, 0, time.UTC)
	}

	setup := func(t *testing.T) (*dayFixture, *models.TimeEntry) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)
		block, err := f.svc.AddBlock(ctx, 1, blockReq(at(9, 0), at(12, 0)))
		require.NoError(t, err)
		return f, block
	}

	t.Run("RecomputesDuration", func(t *testing.T) {
		f, block := setup(t)
		newEnd := at(13, 30)
		updated, err := f.svc.UpdateBlock(ctx, 1, block.ID, models.UpdateBlockRequest{EndTime: &newEnd})
		require.NoError(t, err)
		require.NotNil(t, updated.DurationMinutes)
		assert.Equal(t, 270, *updated.DurationMinutes)
	})

	t.Run("MergedIntervalCheckedAgainstOtherSiblings", func(t *testing.T) {
		f, block := setup(t)
		_, err := f.svc.AddBlock(ctx, 1, blockReq(at(13, 0), at(14, 0)))
		require.NoError(t, err)

		// Extending the first block into the second must fail.
		newEnd := at(13, 30)
		_, err = f.svc.UpdateBlock(ctx, 1, block.ID, models.UpdateBlockRequest{EndTime: &newEnd})
		assert.Equal(t, KindBlocksOverlap, KindOf(err))

		// A block never conflicts with itself.
		sameEnd := at(12, 0)
		_, err = f.svc.UpdateBlock(ctx, 1, block.ID, models.UpdateBlockRequest{EndTime: &sameEnd})
		assert.NoError(t, err)
	})

	t.Run("BoundaryRecheck", func(t *testing.T) {
		f, block := setup(t)
		early := at(7, 0)
		_, err := f.svc.UpdateBlock(ctx, 1, block.ID, models.UpdateBlockRequest{StartTime: &early})
		assert.Equal(t, KindBlockOutsideDay, KindOf(err))
	})

	t.Run("Forbidden", func(t *testing.T) {
		f, block := setup(t)
		description := "hijack"
		_, err := f.svc.UpdateBlock(ctx, 2, block.ID, models.UpdateBlockRequest{Description: &description})
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("NotFound", func(t *testing.T) {
		f, _ := setup(t)
		_, err := f.svc.UpdateBlock(ctx, 1, 9999, models.UpdateBlockRequest{})
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("TimesheetLocked", func(t *testing.T) {
		f, block := setup(t)
		f.sheets.SetStatus(1, block.StartTime, models.TimesheetSubmitted)

		description := "late edit"
		_, err := f.svc.UpdateBlock(ctx, 1, block.ID, models.UpdateBlockRequest{Description: &description})
		assert.Equal(t, KindTimesheetLocked, KindOf(err))

		err = f.svc.RemoveBlock(ctx, 1, block.ID)
		assert.Equal(t, KindTimesheetLocked, KindOf(err))
	})
}

func TestDayService_RemoveAndList(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time {
		return time.Date(2025, 6, 20, h, m, 0, 0, time.UTC)
	}

	t.Run("RemoveBlock", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)
		block, err := f.svc.AddBlock(ctx, 1, blockReq(at(9, 0), at(10, 0)))
		require.NoError(t, err)

		require.NoError(t, f.svc.RemoveBlock(ctx, 1, block.ID))
		_, _, total, err := f.svc.ListBlocks(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("RemoveBlock_Forbidden", func(t *testing.T) {
		f := newDayFixture(base)
		_, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)
		block, err := f.svc.AddBlock(ctx, 1, blockReq(at(9, 0), at(10, 0)))
		require.NoError(t, err)

		err = f.svc.RemoveBlock(ctx, 2, block.ID)
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("ListBlocks", func(t *testing.T) {
		f := newDayFixture(base)
		day, err := f.svc.StartDay(ctx, 1, models.StartDayRequest{})
		require.NoError(t, err)
		_, err = f.svc.AddBlock(ctx, 1, blockReq(at(9, 0), at(10, 0)))
		require.NoError(t, err)
		_, err = f.svc.AddBlock(ctx, 1, blockReq(at(10, 0), at(10, 30)))
		require.NoError(t, err)

		open, blocks, total, err := f.svc.ListBlocks(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, open)
		assert.Equal(t, day.ID, open.ID)
		assert.Len(t, blocks, 2)
		assert.Equal(t, 90, total)
	})

	t.Run("ListBlocks_NoOpenDayIsEmptyResult", func(t *testing.T) {
		f := newDayFixture(base)
		day, blocks, total, err := f.svc.ListBlocks(ctx, 1)
		require.NoError(t, err, "no open day is not an error")
		assert.Nil(t, day)
		assert.Empty(t, blocks)
		assert.Zero(t, total)
	})
}
