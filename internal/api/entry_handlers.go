package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// parseRange reads the from/to query params as ISO dates. The range is
// half-open: to's date is included by pushing the bound to the next midnight.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.ParseInLocation("2006-01-02", c.DefaultQuery("from", "1970-01-01"), time.UTC)
	if err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "from must be an ISO calendar date (YYYY-MM-DD)")
		return time.Time{}, time.Time{}, false
	}
	toParam := c.Query("to")
	if toParam == "" {
		return from, time.Now().UTC().AddDate(0, 0, 1), true
	}
	to, err := time.ParseInLocation("2006-01-02", toParam, time.UTC)
	if err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must be an ISO calendar date (YYYY-MM-DD)")
		return time.Time{}, time.Time{}, false
	}
	to = to.AddDate(0, 0, 1)
	if !to.After(from) {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must not be before from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (a *API) handleListEntries(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	entries, err := a.entries.ListForRange(c.Request.Context(), userID, from, to)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{
		"entries": a.projectMany(c, entryPointers(entries)),
		"count":   len(entries),
	})
}

func (a *API) handleUpdateEntry(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	entry, err := a.entries.Update(c.Request.Context(), userID, entryID, req)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"entry": a.projectOne(c, entry)})
}

func (a *API) handleDeleteEntry(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := a.entries.Delete(c.Request.Context(), userID, entryID); err != nil {
		a.respondDomainError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"deleted": entryID})
}

var exportHeader = []string{"ID", "Start", "End", "Minutes", "Project", "Category", "Description", "Mode"}

// handleExportEntries streams the caller's entries for a date range as an
// xlsx workbook (default) or csv.
func (a *API) handleExportEntries(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	entries, err := a.entries.ListForRange(c.Request.Context(), userID, from, to)
	if err != nil {
		a.respondDomainError(c, err)
		return
	}
	rows := a.projectMany(c, entryPointers(entries))
	timestamp := time.Now().UTC().Format("2006-01-02")

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"entries-%s.csv\"", timestamp))

		writer := csv.NewWriter(c.Writer)
		writer.Write(exportHeader)
		for _, r := range rows {
			writer.Write(exportRecord(r))
		}
		writer.Flush()

	case "xlsx":
		f := excelize.NewFile()
		defer f.Close()

		sheet := f.GetSheetName(0)
		for col, title := range exportHeader {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sheet, cell, title)
		}
		for i, r := range rows {
			for col, value := range exportRecord(r) {
				cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
				f.SetCellValue(sheet, cell, value)
			}
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"entries-%s.xlsx\"", timestamp))
		if err := f.Write(c.Writer); err != nil {
			c.Abort()
		}

	default:
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "format must be csv or xlsx")
	}
}

func exportRecord(r models.TimeEntryResponse) []string {
	end, minutes := "", ""
	if r.EndTime != nil {
		end = r.EndTime.UTC().Format(time.RFC3339)
	}
	if r.DurationMinutes != nil {
		minutes = strconv.Itoa(*r.DurationMinutes)
	}
	project, category := "", ""
	if r.Project != nil {
		project = r.Project.Name
	}
	if r.Category != nil {
		category = r.Category.Name
	}
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.StartTime.UTC().Format(time.RFC3339),
		end,
		minutes,
		project,
		category,
		r.Description,
		string(r.EntryMode),
	}
}
