// Package api wires the HTTP surface: route registration, request
// decoding, and projection of domain results into response envelopes.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chronos-io/chronos-ce/internal/lookups"
	"github.com/chronos-io/chronos-ce/internal/service"
)

// API carries the handler dependencies.
type API struct {
	timers    *service.TimerService
	days      *service.DayService
	entries   *service.EntryService
	templates *service.TemplateService
	lookups   *lookups.Resolver
}

func New(timers *service.TimerService, days *service.DayService, entries *service.EntryService, templates *service.TemplateService, resolver *lookups.Resolver) *API {
	return &API{
		timers:    timers,
		days:      days,
		entries:   entries,
		templates: templates,
		lookups:   resolver,
	}
}

// RegisterRoutes mounts the versioned API behind the given auth middleware.
func (a *API) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	v1 := r.Group("/api/v1", auth)

	v1.POST("/timer/start", a.handleStartTimer)
	v1.POST("/timer/stop", a.handleStopTimer)
	v1.GET("/timer", a.handleTimerStatus)

	v1.POST("/day/start", a.handleStartDay)
	v1.POST("/day/end", a.handleEndDay)
	v1.GET("/day/blocks", a.handleListBlocks)
	v1.POST("/day/blocks", a.handleAddBlock)
	v1.PUT("/day/blocks/:id", a.handleUpdateBlock)
	v1.DELETE("/day/blocks/:id", a.handleRemoveBlock)

	v1.GET("/entries", a.handleListEntries)
	v1.GET("/entries/export", a.handleExportEntries)
	v1.PUT("/entries/:id", a.handleUpdateEntry)
	v1.DELETE("/entries/:id", a.handleDeleteEntry)

	v1.GET("/templates", a.handleListTemplates)
	v1.POST("/templates", a.handleCreateTemplate)
	v1.GET("/templates/:id", a.handleGetTemplate)
	v1.DELETE("/templates/:id", a.handleDeleteTemplate)
	v1.POST("/templates/from-day/:dayId", a.handleCreateTemplateFromDay)
	v1.POST("/templates/:id/apply", a.handleApplyTemplate)
}
