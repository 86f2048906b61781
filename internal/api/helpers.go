package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chronos-io/chronos-ce/internal/middleware"
	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/service"
)

func sendSuccess(c *gin.Context, status int, data gin.H) {
	body := gin.H{"success": true}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

func sendError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// statusFor maps a domain error kind onto an HTTP status. Conflicts with
// existing state are 409, unmet preconditions are 422, lock violations get
// the WebDAV 423 since the resource is literally locked.
func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation, service.KindInvalidInterval:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindTimerAlreadyRunning, service.KindDayAlreadyActive,
		service.KindDateHasEntries, service.KindBlocksOverlap:
		return http.StatusConflict
	case service.KindNoActiveTimer, service.KindNoActiveDay,
		service.KindNotDayModeEntry, service.KindNoBlocks,
		service.KindTemplateEmpty, service.KindBlockOutsideDay,
		service.KindInvalidProjectID, service.KindInvalidCategoryID:
		return http.StatusUnprocessableEntity
	case service.KindTimesheetLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// respondDomainError renders err. Domain errors keep their kind as the code
// and attach the conflicting entry when the engine reported one; everything
// else is a 500 with the detail kept out of the response.
func (a *API) respondDomainError(c *gin.Context, err error) {
	var de *service.DomainError
	if !errors.As(err, &de) {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}

	body := gin.H{
		"success": false,
		"error":   de.Message,
		"code":    string(de.Kind),
	}
	if de.Field != "" {
		body["field"] = de.Field
	}
	if de.Entry != nil {
		body["entry"] = a.projectOne(c, de.Entry)
	}
	c.JSON(statusFor(de.Kind), body)
}

func currentUser(c *gin.Context) (int64, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authenticated user")
	}
	return id, ok
}

// bindOptionalJSON binds a body whose fields are all optional. A missing
// body is the zero request, not a 400.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

// projectMany resolves reference summaries for a batch of entries in one
// lookup round-trip and maps them to the response shape.
func (a *API) projectMany(c *gin.Context, entries []*models.TimeEntry) []models.TimeEntryResponse {
	var projectIDs, categoryIDs []int64
	for _, e := range entries {
		if e.ProjectID != nil {
			projectIDs = append(projectIDs, *e.ProjectID)
		}
		if e.CategoryID != nil {
			categoryIDs = append(categoryIDs, *e.CategoryID)
		}
	}

	projects, err := a.lookups.Projects(c.Request.Context(), projectIDs)
	if err != nil {
		log.Printf("project lookup failed: %v", err)
		projects = nil
	}
	categories, err := a.lookups.Categories(c.Request.Context(), categoryIDs)
	if err != nil {
		log.Printf("category lookup failed: %v", err)
		categories = nil
	}

	out := make([]models.TimeEntryResponse, len(entries))
	for i, e := range entries {
		var project *models.ProjectSummary
		if e.ProjectID != nil {
			if p, ok := projects[*e.ProjectID]; ok {
				copied := p
				project = &copied
			}
		}
		var category *models.CategorySummary
		if e.CategoryID != nil {
			if cat, ok := categories[*e.CategoryID]; ok {
				copied := cat
				category = &copied
			}
		}
		out[i] = models.ProjectEntry(e, project, category)
	}
	return out
}

func (a *API) projectOne(c *gin.Context, entry *models.TimeEntry) models.TimeEntryResponse {
	return a.projectMany(c, []*models.TimeEntry{entry})[0]
}

func entryPointers(entries []models.TimeEntry) []*models.TimeEntry {
	out := make([]*models.TimeEntry, len(entries))
	for i := range entries {
		out[i] = &entries[i]
	}
	return out
}

// projectTemplate resolves a template's reference summaries for display.
// Unlike apply, archived or inactive references are shown as-is here.
func (a *API) projectTemplate(c *gin.Context, t *models.Template) models.TemplateResponse {
	var projectIDs, categoryIDs []int64
	for _, e := range t.Entries {
		if e.ProjectID != nil {
			projectIDs = append(projectIDs, *e.ProjectID)
		}
		if e.CategoryID != nil {
			categoryIDs = append(categoryIDs, *e.CategoryID)
		}
	}
	projects, err := a.lookups.Projects(c.Request.Context(), projectIDs)
	if err != nil {
		projects = nil
	}
	categories, err := a.lookups.Categories(c.Request.Context(), categoryIDs)
	if err != nil {
		categories = nil
	}

	entries := make([]models.TemplateEntryResponse, len(t.Entries))
	for i, e := range t.Entries {
		resp := models.TemplateEntryResponse{
			ID:          e.ID,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			Description: e.Description,
			SortOrder:   e.SortOrder,
		}
		if e.ProjectID != nil {
			if p, ok := projects[*e.ProjectID]; ok {
				copied := p
				resp.Project = &copied
			}
		}
		if e.CategoryID != nil {
			if cat, ok := categories[*e.CategoryID]; ok {
				copied := cat
				resp.Category = &copied
			}
		}
		entries[i] = resp
	}

	return models.TemplateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Entries:     entries,
		CreatedAt:   t.CreatedAt,
	}
}
