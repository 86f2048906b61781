package lookups

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/repository"
)

// countingRepo wraps the memory lookup repository and counts fetches.
type countingRepo struct {
	*repository.MemoryLookupRepository
	projectCalls  atomic.Int64
	categoryCalls atomic.Int64
}

func (r *countingRepo) GetProjects(ctx context.Context, ids []int64) (map[int64]models.ProjectSummary, error) {
	r.projectCalls.Add(1)
	return r.MemoryLookupRepository.GetProjects(ctx, ids)
}

func (r *countingRepo) GetCategories(ctx context.Context, ids []int64) (map[int64]models.CategorySummary, error) {
	r.categoryCalls.Add(1)
	return r.MemoryLookupRepository.GetCategories(ctx, ids)
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	newRepo := func() *countingRepo {
		repo := &countingRepo{MemoryLookupRepository: repository.NewMemoryLookupRepository()}
		repo.AddProject(models.ProjectSummary{ID: 1, Name: "backend"})
		repo.AddProject(models.ProjectSummary{ID: 2, Name: "legacy", IsArchived: true})
		repo.AddCategory(models.CategorySummary{ID: 5, Name: "development", IsActive: true})
		return repo
	}

	t.Run("resolves and caches", func(t *testing.T) {
		repo := newRepo()
		r := NewResolver(repo, nil)

		projects, err := r.Projects(ctx, []int64{1, 2})
		require.NoError(t, err)
		assert.Len(t, projects, 2)
		assert.True(t, projects[2].IsArchived)

		// Second resolve of the same ids hits the cache.
		_, err = r.Projects(ctx, []int64{1, 2})
		require.NoError(t, err)
		assert.Equal(t, int64(1), repo.projectCalls.Load())
	})

	t.Run("unknown ids are absent, not errors", func(t *testing.T) {
		r := NewResolver(newRepo(), nil)

		projects, err := r.Projects(ctx, []int64{1, 999})
		require.NoError(t, err)
		assert.Len(t, projects, 1)
		_, ok := projects[999]
		assert.False(t, ok)
	})

	t.Run("duplicate ids fetch once", func(t *testing.T) {
		repo := newRepo()
		r := NewResolver(repo, nil)

		categories, err := r.Categories(ctx, []int64{5, 5, 5})
		require.NoError(t, err)
		assert.Len(t, categories, 1)
		assert.Equal(t, int64(1), repo.categoryCalls.Load())
	})

	t.Run("empty id list short-circuits", func(t *testing.T) {
		repo := newRepo()
		r := NewResolver(repo, nil)

		projects, err := r.Projects(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, projects)
		assert.Equal(t, int64(0), repo.projectCalls.Load())
	})
}
