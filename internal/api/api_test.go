package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronos-io/chronos-ce/internal/lookups"
	"github.com/chronos-io/chronos-ce/internal/middleware"
	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/repository"
	"github.com/chronos-io/chronos-ce/internal/service"
)

type testEnv struct {
	router  *gin.Engine
	entries *repository.MemoryTimeEntryRepository
	sheets  *repository.MemoryTimesheetRepository
	refs    *repository.MemoryLookupRepository
}

// stubAuth injects a fixed identity, standing in for the JWT middleware.
func stubAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	refs := repository.NewMemoryLookupRepository()
	refs.AddProject(models.ProjectSummary{ID: 1, Name: "backend"})
	refs.AddCategory(models.CategorySummary{ID: 1, Name: "development", IsActive: true})

	entries := repository.NewMemoryTimeEntryRepository()
	entries.Refs = refs
	sheets := repository.NewMemoryTimesheetRepository()
	templates := repository.NewMemoryTemplateRepository()

	guard := service.NewLockGuard(sheets)
	resolver := lookups.NewResolver(refs, nil)
	a := New(
		service.NewTimerService(entries),
		service.NewDayService(entries, guard),
		service.NewEntryService(entries, guard),
		service.NewTemplateService(templates, entries, resolver),
		resolver,
	)

	router := gin.New()
	a.RegisterRoutes(router, stubAuth(1))
	return &testEnv{router: router, entries: entries, sheets: sheets, refs: refs}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader([]byte("{}"))
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	decoded := map[string]interface{}{}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestTimerEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/v1/timer/start", gin.H{"description": "morning work"})
	require.Equal(t, http.StatusCreated, w.Code)
	entry := body["entry"].(map[string]interface{})
	assert.Equal(t, "morning work", entry["description"])
	assert.Nil(t, entry["endTime"])

	w, body = env.do(t, http.MethodGet, "/api/v1/timer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["running"])
	assert.NotEmpty(t, body["runningFor"])

	w, body = env.do(t, http.MethodPost, "/api/v1/timer/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TIMER_ALREADY_RUNNING", body["code"])
	assert.NotNil(t, body["entry"], "conflict carries the running entry")

	w, body = env.do(t, http.MethodPost, "/api/v1/timer/stop", gin.H{"project_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	entry = body["entry"].(map[string]interface{})
	assert.NotNil(t, entry["endTime"])
	require.NotNil(t, entry["project"])
	assert.Equal(t, "backend", entry["project"].(map[string]interface{})["name"])

	w, body = env.do(t, http.MethodGet, "/api/v1/timer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["running"])

	w, body = env.do(t, http.MethodPost, "/api/v1/timer/stop", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "NO_ACTIVE_TIMER", body["code"])
}

// The start/stop payloads are entirely optional; a request without a body
// must behave like an empty object, not a 400.
func TestOptionalBodyEndpoints(t *testing.T) {
	env := newTestEnv(t)

	post := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	w := post("/api/v1/timer/start")
	assert.Equal(t, http.StatusCreated, w.Code)
	w = post("/api/v1/timer/stop")
	assert.Equal(t, http.StatusOK, w.Code)
	w = post("/api/v1/day/start")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDayEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/v1/day/start", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/v1/day/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DAY_ALREADY_ACTIVE", body["code"])

	start := time.Now().UTC().Add(time.Minute)
	w, body = env.do(t, http.MethodPost, "/api/v1/day/blocks", gin.H{
		"start_time": start.Format(time.RFC3339),
		"end_time":   start.Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	block := body["block"].(map[string]interface{})
	assert.Equal(t, float64(60), block["durationMinutes"])

	// Overlapping sibling is rejected with the conflicting block attached.
	w, body = env.do(t, http.MethodPost, "/api/v1/day/blocks", gin.H{
		"start_time": start.Add(30 * time.Minute).Format(time.RFC3339),
		"end_time":   start.Add(90 * time.Minute).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "BLOCKS_OVERLAP", body["code"])
	assert.NotNil(t, body["entry"])

	// A block before the envelope start cannot fit.
	w, body = env.do(t, http.MethodPost, "/api/v1/day/blocks", gin.H{
		"start_time": start.Add(-2 * time.Hour).Format(time.RFC3339),
		"end_time":   start.Add(-time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "BLOCK_OUTSIDE_DAY_BOUNDARIES", body["code"])

	w, body = env.do(t, http.MethodGet, "/api/v1/day/blocks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	day := body["day"].(map[string]interface{})
	assert.Equal(t, float64(60), day["totalMinutes"])
	assert.Len(t, day["blocks"], 1)

	w, body = env.do(t, http.MethodPost, "/api/v1/day/end", nil)
	require.Equal(t, http.StatusOK, w.Code)
	day = body["day"].(map[string]interface{})
	assert.NotNil(t, day["day"].(map[string]interface{})["endTime"])

	// Ended day means listing is empty, not an error.
	w, body = env.do(t, http.MethodGet, "/api/v1/day/blocks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	day = body["day"].(map[string]interface{})
	assert.Nil(t, day["dayId"])
}

func TestEntryEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/v1/timer/start", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w, body = env.do(t, http.MethodPost, "/api/v1/timer/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entryID := int64(body["entry"].(map[string]interface{})["id"].(float64))

	w, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/entries/%d", entryID), gin.H{"description": "updated"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "updated", body["entry"].(map[string]interface{})["description"])

	w, _ = env.do(t, http.MethodPut, "/api/v1/entries/abc", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodDelete, "/api/v1/entries/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])

	// Lock the week, then direct edits are refused.
	env.sheets.SetStatus(1, time.Now().UTC(), models.TimesheetSubmitted)
	w, body = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/entries/%d", entryID), nil)
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, "TIMESHEET_LOCKED", body["code"])
}

func TestListAndExportEntries(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/v1/timer/start", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = env.do(t, http.MethodPost, "/api/v1/timer/stop", gin.H{"description": "entry one"})
	require.Equal(t, http.StatusOK, w.Code)

	today := time.Now().UTC().Format("2006-01-02")
	w, body := env.do(t, http.MethodGet, "/api/v1/entries?from="+today+"&to="+today, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, _ = env.do(t, http.MethodGet, "/api/v1/entries?from=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/export?format=csv&from="+today+"&to="+today, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "entry one")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/entries/export?from="+today+"&to="+today, nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}

func TestTemplateEndpoints(t *testing.T) {
	env := newTestEnv(t)

	create := gin.H{
		"name": "standard day",
		"entries": []gin.H{
			{"start_time": "09:00", "end_time": "12:00", "project_id": 1},
			{"start_time": "13:00", "end_time": "17:00", "category_id": 1},
		},
	}
	w, body := env.do(t, http.MethodPost, "/api/v1/templates", create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	template := body["template"].(map[string]interface{})
	templateID := int64(template["id"].(float64))
	assert.Len(t, template["entries"], 2)

	w, body = env.do(t, http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, body = env.do(t, http.MethodPost, "/api/v1/templates", gin.H{"name": "empty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	date := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	w, body = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/templates/%d/apply", templateID), gin.H{"date": date})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := body["result"].(map[string]interface{})
	day := result["day"].(map[string]interface{})
	assert.Len(t, day["blocks"], 2)
	assert.Equal(t, float64(2), result["meta"].(map[string]interface{})["entriesApplied"])

	// Second apply on the same date conflicts.
	w, body = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/templates/%d/apply", templateID), gin.H{"date": date})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DATE_HAS_ENTRIES", body["code"])

	// The applied envelope's blocks convert back into a template.
	envelope := day["day"].(map[string]interface{})
	dayID := int64(envelope["id"].(float64))
	w, body = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/templates/from-day/%d", dayID), gin.H{"name": "derived"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	derived := body["template"].(map[string]interface{})
	assert.Len(t, derived["entries"], 2)

	w, body = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/templates/%d", templateID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, body = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/templates/%d", templateID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
