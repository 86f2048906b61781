// Package lookups resolves project and category reference summaries in
// batches, with a TTL cache in front of the repository so template
// application and entry projection don't hammer the lookup tables.
package lookups

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chronos-io/chronos-ce/internal/models"
	"github.com/chronos-io/chronos-ce/internal/repository"
)

const defaultTTL = 5 * time.Minute

// Resolver batches reference lookups through a cache.
type Resolver struct {
	repo  repository.LookupRepository
	cache Cache
	ttl   time.Duration
}

// NewResolver creates a resolver. A nil cache gets an in-process one.
func NewResolver(repo repository.LookupRepository, cache Cache) *Resolver {
	if cache == nil {
		cache = NewLocalCache()
	}
	return &Resolver{repo: repo, cache: cache, ttl: defaultTTL}
}

// Projects resolves project summaries for the given ids; unknown ids are
// absent from the result.
func (r *Resolver) Projects(ctx context.Context, ids []int64) (map[int64]models.ProjectSummary, error) {
	result := make(map[int64]models.ProjectSummary, len(ids))
	missing := make([]int64, 0, len(ids))

	for _, id := range dedupe(ids) {
		if raw, ok := r.cache.Get(ctx, fmt.Sprintf("project:%d", id)); ok {
			var p models.ProjectSummary
			if err := json.Unmarshal(raw, &p); err == nil {
				result[id] = p
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		fetched, err := r.repo.GetProjects(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, p := range fetched {
			result[id] = p
			if raw, err := json.Marshal(p); err == nil {
				r.cache.Set(ctx, fmt.Sprintf("project:%d", id), raw, r.ttl)
			}
		}
	}
	return result, nil
}

// Categories resolves category summaries for the given ids; unknown ids are
// absent from the result.
func (r *Resolver) Categories(ctx context.Context, ids []int64) (map[int64]models.CategorySummary, error) {
	result := make(map[int64]models.CategorySummary, len(ids))
	missing := make([]int64, 0, len(ids))

	for _, id := range dedupe(ids) {
		if raw, ok := r.cache.Get(ctx, fmt.Sprintf("category:%d", id)); ok {
			var c models.CategorySummary
			if err := json.Unmarshal(raw, &c); err == nil {
				result[id] = c
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		fetched, err := r.repo.GetCategories(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, c := range fetched {
			result[id] = c
			if raw, err := json.Marshal(c); err == nil {
				r.cache.Set(ctx, fmt.Sprintf("category:%d", id), raw, r.ttl)
			}
		}
	}
	return result, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
