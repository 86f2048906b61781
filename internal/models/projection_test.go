package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectEntry_OpenEntryHasExplicitNulls(t *testing.T) {
	entry := &TimeEntry{
		ID:        1,
		UserID:    2,
		StartTime: time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC),
		EntryMode: ModeSimple,
	}

	raw, err := json.Marshal(ProjectEntry(entry, nil, nil))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{"endTime", "durationMinutes", "project", "category"} {
		val, present := decoded[key]
		assert.True(t, present, "%s must be present, not omitted", key)
		assert.Nil(t, val, "%s must be an explicit null", key)
	}
	_, present := decoded["parentId"]
	assert.False(t, present, "parentId is omitted on non-blocks")
}

func TestProjectEntry_NestsSummaries(t *testing.T) {
	projectID, categoryID := int64(7), int64(3)
	end := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	minutes := 180
	entry := &TimeEntry{
		ID:              1,
		UserID:          2,
		StartTime:       time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC),
		EndTime:         &end,
		DurationMinutes: &minutes,
		ProjectID:       &projectID,
		CategoryID:      &categoryID,
		EntryMode:       ModeDay,
	}

	resp := ProjectEntry(entry,
		&ProjectSummary{ID: 7, Name: "backend"},
		&CategorySummary{ID: 3, Name: "development", IsActive: true})

	require.NotNil(t, resp.Project)
	assert.Equal(t, "backend", resp.Project.Name)
	require.NotNil(t, resp.Category)
	assert.Equal(t, "development", resp.Category.Name)
	require.NotNil(t, resp.DurationMinutes)
	assert.Equal(t, 180, *resp.DurationMinutes)
}

func TestWeekStartOf(t *testing.T) {
	// 2025-06-18 is a Wednesday; its week starts Monday 2025-06-16.
	monday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, WeekStartOf(time.Date(2025, 6, 18, 13, 45, 0, 0, time.UTC)))
	assert.Equal(t, monday, WeekStartOf(monday))
	assert.Equal(t, monday, WeekStartOf(time.Date(2025, 6, 22, 23, 59, 0, 0, time.UTC)), "Sunday belongs to the same week")
}

func TestParseTimeOfDay(t *testing.T) {
	h, m, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, m)

	for _, bad := range []string{"24:00", "12:60", "9:00", "", "12-30"} {
		_, _, err := ParseTimeOfDay(bad)
		assert.Error(t, err, "%q must be rejected", bad)
	}
}
