package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// MemoryTemplateRepository is an in-memory implementation of TemplateRepository.
type MemoryTemplateRepository struct {
	mu        sync.RWMutex
	templates map[int64]*models.Template
	entries   map[int64][]models.TemplateEntry
	nextID    int64
	nextEntry int64
}

// NewMemoryTemplateRepository creates an empty in-memory template repository.
func NewMemoryTemplateRepository() *MemoryTemplateRepository {
	return &MemoryTemplateRepository{
		templates: make(map[int64]*models.Template),
		entries:   make(map[int64][]models.TemplateEntry),
		nextID:    1,
		nextEntry: 1,
	}
}

// CreateWithEntries persists the template and its entries atomically.
func (r *MemoryTemplateRepository) CreateWithEntries(ctx context.Context, template *models.Template, entries []models.TemplateEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	template.ID = r.nextID
	r.nextID++
	template.CreatedAt = time.Now().UTC()
	template.UpdatedAt = template.CreatedAt

	stored := make([]models.TemplateEntry, len(entries))
	for i, e := range entries {
		e.ID = r.nextEntry
		r.nextEntry++
		e.TemplateID = template.ID
		stored[i] = e
		entries[i] = e
	}

	copied := *template
	copied.Entries = nil
	r.templates[template.ID] = &copied
	r.entries[template.ID] = stored
	template.Entries = stored
	return nil
}

// GetByID returns the template with its ordered entries, or ErrNotFound.
func (r *MemoryTemplateRepository) GetByID(ctx context.Context, id int64) (*models.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *t
	result.Entries = append([]models.TemplateEntry(nil), r.entries[id]...)
	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].SortOrder < result.Entries[j].SortOrder
	})
	return &result, nil
}

// ListByUser returns the user's templates ordered by name, entries included.
func (r *MemoryTemplateRepository) ListByUser(ctx context.Context, userID int64) ([]models.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []models.Template
	for id, t := range r.templates {
		if t.UserID != userID {
			continue
		}
		copied := *t
		copied.Entries = append([]models.TemplateEntry(nil), r.entries[id]...)
		sort.Slice(copied.Entries, func(i, j int) bool {
			return copied.Entries[i].SortOrder < copied.Entries[j].SortOrder
		})
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Delete removes the template and cascades to its entries.
func (r *MemoryTemplateRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[id]; !ok {
		return ErrNotFound
	}
	delete(r.templates, id)
	delete(r.entries, id)
	return nil
}
