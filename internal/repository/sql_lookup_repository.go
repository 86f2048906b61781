package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// SQLLookupRepository is the sqlx-backed LookupRepository. Both lookups use
// a single IN query so template application resolves every reference in one
// round-trip per entity.
type SQLLookupRepository struct {
	db *sqlx.DB
}

// NewSQLLookupRepository creates a SQL-backed lookup repository.
func NewSQLLookupRepository(db *sqlx.DB) *SQLLookupRepository {
	return &SQLLookupRepository{db: db}
}

// GetProjects returns summaries for the given ids; unknown ids are absent.
func (r *SQLLookupRepository) GetProjects(ctx context.Context, ids []int64) (map[int64]models.ProjectSummary, error) {
	result := make(map[int64]models.ProjectSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, color, is_archived FROM projects WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []models.ProjectSummary
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		result[p.ID] = p
	}
	return result, nil
}

// GetCategories returns summaries for the given ids; unknown ids are absent.
func (r *SQLLookupRepository) GetCategories(ctx context.Context, ids []int64) (map[int64]models.CategorySummary, error) {
	result := make(map[int64]models.CategorySummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, is_active FROM categories WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []models.CategorySummary
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, c := range rows {
		result[c.ID] = c
	}
	return result, nil
}
