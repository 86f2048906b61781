package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/chronos-io/chronos-ce/internal/interval"
	"github.com/chronos-io/chronos-ce/internal/lookups"
	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/repository"
	"github.com/chronos-io/chronos-ce/internal/utils"
)

// TemplateService owns template lifecycle and materialization: create,
// create-from-day, apply onto a calendar date.
type TemplateService struct {
	templates repository.TemplateRepository
	entries   repository.TimeEntryRepository
	lookups   *lookups.Resolver
	now       func() time.Time

	// StrictReferences switches apply from clear-and-warn to failing the
	// whole operation when a reference is archived, inactive or gone.
	StrictReferences bool

	// ApplyWindow bounds how far from today a target date may lie.
	ApplyWindow time.Duration
}

// NewTemplateService creates a template service with the default policies.
func NewTemplateService(templates repository.TemplateRepository, entries repository.TimeEntryRepository, resolver *lookups.Resolver) *TemplateService {
	return &TemplateService{
		templates:   templates,
		entries:     entries,
		lookups:     resolver,
		now:         time.Now,
		ApplyWindow: 365 * 24 * time.Hour,
	}
}

func validateTemplateName(name string) (string, error) {
	name = utils.SanitizeText(name)
	if name == "" {
		return "", validationErr("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxTemplateNameLen {
		return "", validationErr("name", "must be at most 100 characters")
	}
	return name, nil
}

// validateEntryTimes checks the HH:MM format and ordering of one slot.
func validateEntryTimes(index int, start, end string) error {
	startH, startM, err := models.ParseTimeOfDay(start)
	if err != nil {
		return validationErr(fmt.Sprintf("entries[%d].start_time", index), err.Error())
	}
	endH, endM, err := models.ParseTimeOfDay(end)
	if err != nil {
		return validationErr(fmt.Sprintf("entries[%d].end_time", index), err.Error())
	}
	if endH*60+endM <= startH*60+startM {
		return validationErr(fmt.Sprintf("entries[%d].end_time", index), "must be after start_time")
	}
	return nil
}

// Create validates and persists a template with its ordered entries.
func (s *TemplateService) Create(ctx context.Context, userID int64, req models.CreateTemplateRequest) (*models.Template, error) {
	name, err := validateTemplateName(req.Name)
	if err != nil {
		return nil, err
	}
	description, err := cleanDescription(req.Description)
	if err != nil {
		return nil, err
	}
	if len(req.Entries) == 0 {
		return nil, validationErr("entries", "template must have at least one entry")
	}

	entries := make([]models.TemplateEntry, len(req.Entries))
	for i, in := range req.Entries {
		if err := validateEntryTimes(i, in.StartTime, in.EndTime); err != nil {
			return nil, err
		}
		entryDescription, err := cleanDescription(in.Description)
		if err != nil {
			return nil, err
		}
		entries[i] = models.TemplateEntry{
			StartTime:   in.StartTime,
			EndTime:     in.EndTime,
			ProjectID:   in.ProjectID,
			CategoryID:  in.CategoryID,
			Description: entryDescription,
			SortOrder:   i,
		}
	}

	template := &models.Template{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if err := s.templates.CreateWithEntries(ctx, template, entries); err != nil {
		return nil, err
	}
	return template, nil
}

// Get returns the caller's template, or NotFound/Forbidden.
func (s *TemplateService) Get(ctx context.Context, userID, templateID int64) (*models.Template, error) {
	return s.resolveOwned(ctx, userID, templateID)
}

// List returns the caller's templates.
func (s *TemplateService) List(ctx context.Context, userID int64) ([]models.Template, error) {
	return s.templates.ListByUser(ctx, userID)
}

// Delete removes the caller's template, cascading to its entries.
func (s *TemplateService) Delete(ctx context.Context, userID, templateID int64) error {
	if _, err := s.resolveOwned(ctx, userID, templateID); err != nil {
		return err
	}
	return s.templates.Delete(ctx, templateID)
}

func (s *TemplateService) resolveOwned(ctx context.Context, userID, templateID int64) (*models.Template, error) {
	template, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("template")
		}
		return nil, err
	}
	if template.UserID != userID {
		return nil, forbiddenErr("template")
	}
	return template, nil
}

// CreateFromDay converts an existing day entry's blocks into a template,
// preserving block order and turning absolute timestamps into time-of-day
// values relative to the day's own start date.
func (s *TemplateService) CreateFromDay(ctx context.Context, userID, dayID int64, req models.CreateFromDayRequest) (*models.Template, error) {
	name, err := validateTemplateName(req.Name)
	if err != nil {
		return nil, err
	}
	description, err := cleanDescription(req.Description)
	if err != nil {
		return nil, err
	}

	day, err := s.entries.GetByID(ctx, dayID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("day entry")
		}
		return nil, err
	}
	if day.UserID != userID {
		return nil, forbiddenErr("day entry")
	}
	if !day.IsDayEnvelope() {
		return nil, domainErr(KindNotDayModeEntry, "entry is not a day-mode entry")
	}

	blocks, err := s.entries.ListByParent(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, domainErr(KindNoBlocks, "day has no blocks to convert")
	}

	entries := make([]models.TemplateEntry, len(blocks))
	for i := range blocks {
		b := &blocks[i]
		end := b.StartTime
		if b.EndTime != nil {
			end = *b.EndTime
		}
		entries[i] = models.TemplateEntry{
			StartTime:   b.StartTime.UTC().Format("15:04"),
			EndTime:     end.UTC().Format("15:04"),
			ProjectID:   b.ProjectID,
			CategoryID:  b.CategoryID,
			Description: b.Description,
			SortOrder:   i,
		}
	}

	template := &models.Template{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if err := s.templates.CreateWithEntries(ctx, template, entries); err != nil {
		return nil, err
	}
	return template, nil
}

// Apply materializes a template onto a calendar date: one closed day
// envelope spanning the earliest start to the latest end, plus one
// template-mode block per entry. References to archived projects or inactive
// categories are cleared and reported as warnings unless StrictReferences is
// set, in which case the whole apply fails.
func (s *TemplateService) Apply(ctx context.Context, userID, templateID int64, req models.ApplyTemplateRequest) (*models.TimeEntry, []*models.TimeEntry, *models.ApplyMetadata, error) {
	template, err := s.resolveOwned(ctx, userID, templateID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(template.Entries) == 0 {
		return nil, nil, nil, domainErr(KindTemplateEmpty, "template has no entries")
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return nil, nil, nil, validationErr("date", "must be an ISO calendar date (YYYY-MM-DD)")
	}
	// Compare midnights so the window boundary does not drift with the
	// time of day the request arrives.
	today := s.now().UTC().Truncate(24 * time.Hour)
	if delta := date.Sub(today); delta > s.ApplyWindow || delta < -s.ApplyWindow {
		return nil, nil, nil, validationErr("date", "must be within one year of today")
	}

	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)
	occupied, err := s.entries.ExistsInRange(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return nil, nil, nil, err
	}
	if occupied {
		return nil, nil, nil, domainErr(KindDateHasEntries, "target date already has time entries")
	}

	// One batched lookup across all entries.
	var projectIDs, categoryIDs []int64
	for _, e := range template.Entries {
		if e.ProjectID != nil {
			projectIDs = append(projectIDs, *e.ProjectID)
		}
		if e.CategoryID != nil {
			categoryIDs = append(categoryIDs, *e.CategoryID)
		}
	}
	projects, err := s.lookups.Projects(ctx, projectIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	categories, err := s.lookups.Categories(ctx, categoryIDs)
	if err != nil {
		return nil, nil, nil, err
	}

	warnings := []models.ApplyWarning{}
	blocks := make([]*models.TimeEntry, len(template.Entries))
	var earliest, latest time.Time

	for i, e := range template.Entries {
		startH, startM, err := models.ParseTimeOfDay(e.StartTime)
		if err != nil {
			return nil, nil, nil, validationErr(fmt.Sprintf("entries[%d].start_time", i), err.Error())
		}
		endH, endM, err := models.ParseTimeOfDay(e.EndTime)
		if err != nil {
			return nil, nil, nil, validationErr(fmt.Sprintf("entries[%d].end_time", i), err.Error())
		}
		span := interval.Span{
			Start: models.AnchorTimeOfDay(date, startH, startM),
			End:   models.AnchorTimeOfDay(date, endH, endM),
		}
		minutes, err := interval.DurationMinutes(span)
		if err != nil {
			return nil, nil, nil, wrapDomain(KindInvalidInterval, "template entry end is not after its start", err)
		}

		projectID := e.ProjectID
		if projectID != nil {
			if p, ok := projects[*projectID]; !ok || p.IsArchived {
				if s.StrictReferences {
					return nil, nil, nil, domainErr(KindInvalidProjectID,
						fmt.Sprintf("template entry %d references an archived or missing project", i))
				}
				warnings = append(warnings, models.ApplyWarning{
					Type:       models.WarningArchivedProject,
					EntryIndex: i,
					OriginalID: *projectID,
				})
				projectID = nil
			}
		}
		categoryID := e.CategoryID
		if categoryID != nil {
			if c, ok := categories[*categoryID]; !ok || !c.IsActive {
				if s.StrictReferences {
					return nil, nil, nil, domainErr(KindInvalidCategoryID,
						fmt.Sprintf("template entry %d references an inactive or missing category", i))
				}
				warnings = append(warnings, models.ApplyWarning{
					Type:       models.WarningInactiveCategory,
					EntryIndex: i,
					OriginalID: *categoryID,
				})
				categoryID = nil
			}
		}

		end := span.End
		blocks[i] = &models.TimeEntry{
			UserID:          userID,
			StartTime:       span.Start,
			EndTime:         &end,
			DurationMinutes: &minutes,
			ProjectID:       projectID,
			CategoryID:      categoryID,
			Description:     e.Description,
			EntryMode:       models.ModeTemplate,
		}

		if i == 0 || span.Start.Before(earliest) {
			earliest = span.Start
		}
		if i == 0 || span.End.After(latest) {
			latest = span.End
		}
	}

	envelopeMinutes, err := interval.DurationMinutes(interval.Span{Start: earliest, End: latest})
	if err != nil {
		return nil, nil, nil, wrapDomain(KindInvalidInterval, "envelope end is not after its start", err)
	}
	envelope := &models.TimeEntry{
		UserID:          userID,
		StartTime:       earliest,
		EndTime:         &latest,
		DurationMinutes: &envelopeMinutes,
		Description:     template.Name,
		EntryMode:       models.ModeDay,
	}

	if err := s.entries.CreateDayWithBlocks(ctx, envelope, blocks); err != nil {
		return nil, nil, nil, translateRefErr(err)
	}

	meta := &models.ApplyMetadata{
		TemplateID:     template.ID,
		TemplateName:   template.Name,
		EntriesApplied: len(blocks),
		Warnings:       warnings,
	}
	return envelope, blocks, meta, nil
}
