package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xeonx/timeago"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// handleStartTimer opens a simple-mode entry at the current instant.
func (a *API) handleStartTimer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.StartTimerRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	entry, err := a.timers.Start(c.Request.Context(), userID, req)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{"entry": a.projectOne(c, entry)})
}

// handleStopTimer closes the running timer, optionally overwriting fields.
func (a *API) handleStopTimer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.StopTimerRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	entry, err := a.timers.Stop(c.Request.Context(), userID, req)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"entry": a.projectOne(c, entry)})
}

// handleTimerStatus reports the running timer, or running=false when idle.
func (a *API) handleTimerStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entry, err := a.timers.Status(c.Request.Context(), userID)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	if entry == nil {
		sendSuccess(c, http.StatusOK, gin.H{"running": false, "entry": nil})
		return
	}

	sendSuccess(c, http.StatusOK, gin.H{
		"running":    true,
		"entry":      a.projectOne(c, entry),
		"runningFor": timeago.English.Format(entry.StartTime),
	})
}
