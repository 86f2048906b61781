package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// handleStartDay opens a day envelope at the current instant.
func (a *API) handleStartDay(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.StartDayRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	envelope, err := a.days.StartDay(c.Request.Context(), userID, req)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{"day": a.projectOne(c, envelope)})
}

// handleEndDay closes the open envelope and returns it with its blocks.
func (a *API) handleEndDay(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	envelope, blocks, err := a.days.EndDay(c.Request.Context(), userID)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}

	projected := a.projectMany(c, entryPointers(blocks))
	total := 0
	for _, b := range blocks {
		if b.DurationMinutes != nil {
			total += *b.DurationMinutes
		}
	}
	sendSuccess(c, http.StatusOK, gin.H{
		"day": models.DayResponse{
			Day:          a.projectOne(c, envelope),
			Blocks:       projected,
			TotalMinutes: total,
		},
	})
}

// handleListBlocks returns the open day's blocks. No open day is an empty
// result, not an error.
func (a *API) handleListBlocks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	day, blocks, total, err := a.days.ListBlocks(c.Request.Context(), userID)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}

	view := models.DayBlocksView{
		Blocks:       a.projectMany(c, entryPointers(blocks)),
		TotalMinutes: total,
	}
	if day != nil {
		view.DayID = &day.ID
		view.StartTime = &day.StartTime
	}
	sendSuccess(c, http.StatusOK, gin.H{"day": view})
}

func (a *API) handleAddBlock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.AddBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	block, err := a.days.AddBlock(c.Request.Context(), userID, req)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{"block": a.projectOne(c, block)})
}

func (a *API) handleUpdateBlock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	blockID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	block, err := a.days.UpdateBlock(c.Request.Context(), userID, blockID, req)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"block": a.projectOne(c, block)})
}

func (a *API) handleRemoveBlock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	blockID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := a.days.RemoveBlock(c.Request.Context(), userID, blockID); err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"deleted": blockID})
}
