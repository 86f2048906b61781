package repository

import (
	"context"
	"sync"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// MemoryLookupRepository is an in-memory implementation of LookupRepository.
type MemoryLookupRepository struct {
	mu         sync.RWMutex
	projects   map[int64]models.ProjectSummary
	categories map[int64]models.CategorySummary
}

// NewMemoryLookupRepository creates an empty in-memory lookup repository.
func NewMemoryLookupRepository() *MemoryLookupRepository {
	return &MemoryLookupRepository{
		projects:   make(map[int64]models.ProjectSummary),
		categories: make(map[int64]models.CategorySummary),
	}
}

// AddProject seeds a project summary.
func (r *MemoryLookupRepository) AddProject(p models.ProjectSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
}

// AddCategory seeds a category summary.
func (r *MemoryLookupRepository) AddCategory(c models.CategorySummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = c
}

func (r *MemoryLookupRepository) hasProject(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.projects[id]
	return ok
}

func (r *MemoryLookupRepository) hasCategory(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.categories[id]
	return ok
}

// GetProjects returns the summaries for the given ids; unknown ids are absent.
func (r *MemoryLookupRepository) GetProjects(ctx context.Context, ids []int64) (map[int64]models.ProjectSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[int64]models.ProjectSummary, len(ids))
	for _, id := range ids {
		if p, ok := r.projects[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

// GetCategories returns the summaries for the given ids; unknown ids are absent.
func (r *MemoryLookupRepository) GetCategories(ctx context.Context, ids []int64) (map[int64]models.CategorySummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[int64]models.CategorySummary, len(ids))
	for _, id := range ids {
		if c, ok := r.categories[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}
