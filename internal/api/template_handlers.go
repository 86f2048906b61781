package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chronos-io/chronos-ce/internal/models"
)

func (a *API) handleListTemplates(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	templates, err := a.templates.List(c.Request.Context(), userID)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}

	out := make([]models.TemplateResponse, len(templates))
	for i := range templates {
		out[i] = a.projectTemplate(c, &templates[i])
	}
	sendSuccess(c, http.StatusOK, gin.H{"templates": out, "count": len(out)})
}

func (a *API) handleCreateTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	template, err := a.templates.Create(c.Request.Context(), userID, req)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{"template": a.projectTemplate(c, template)})
}

func (a *API) handleGetTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "id")
	if !ok {
		return
	}

	template, err := a.templates.Get(c.Request.Context(), userID, templateID)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"template": a.projectTemplate(c, template)})
}

func (a *API) handleDeleteTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := a.templates.Delete(c.Request.Context(), userID, templateID); err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"deleted": templateID})
}

// handleCreateTemplateFromDay converts an existing day entry into a template.
func (a *API) handleCreateTemplateFromDay(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	dayID, ok := pathID(c, "dayId")
	if !ok {
		return
	}

	var req models.CreateFromDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	template, err := a.templates.CreateFromDay(c.Request.Context(), userID, dayID, req)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{"template": a.projectTemplate(c, template)})
}

// handleApplyTemplate materializes a template onto a calendar date.
func (a *API) handleApplyTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	envelope, blocks, meta, err := a.templates.Apply(c.Request.Context(), userID, templateID, req)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}

	total := 0
	for _, b := range blocks {
		if b.DurationMinutes != nil {
			total += *b.DurationMinutes
		}
	}
	result := models.ApplyResult{
		Day: models.DayResponse{
			Day:          a.projectOne(c, envelope),
			Blocks:       a.projectMany(c, blocks),
			TotalMinutes: total,
		},
		Meta: *meta,
	}
	sendSuccess(c, http.StatusCreated, gin.H{"result": result})
}
