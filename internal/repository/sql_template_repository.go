package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// SQLTemplateRepository is the sqlx-backed TemplateRepository.
type SQLTemplateRepository struct {
	db *sqlx.DB
}

// NewSQLTemplateRepository creates a SQL-backed template repository.
func NewSQLTemplateRepository(db *sqlx.DB) *SQLTemplateRepository {
	return &SQLTemplateRepository{db: db}
}

// CreateWithEntries persists the template and its entries in one transaction.
func (r *SQLTemplateRepository) CreateWithEntries(ctx context.Context, template *models.Template, entries []models.TemplateEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	insert := `INSERT INTO templates (user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`
	if r.db.DriverName() == "postgres" {
		row := tx.QueryRowxContext(ctx, tx.Rebind(insert+" RETURNING id"),
			template.UserID, template.Name, template.Description, now, now)
		if err := row.Scan(&template.ID); err != nil {
			return err
		}
	} else {
		res, err := tx.ExecContext(ctx, tx.Rebind(insert),
			template.UserID, template.Name, template.Description, now, now)
		if err != nil {
			return err
		}
		if template.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}

	entryInsert := tx.Rebind(`INSERT INTO template_entries
		(template_id, start_time, end_time, project_id, category_id, description, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for i := range entries {
		entries[i].TemplateID = template.ID
		e := &entries[i]
		if _, err := tx.ExecContext(ctx, entryInsert,
			e.TemplateID, e.StartTime, e.EndTime, e.ProjectID, e.CategoryID,
			e.Description, e.SortOrder); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	template.Entries = entries
	return nil
}

// GetByID returns the template with its ordered entries, or ErrNotFound.
func (r *SQLTemplateRepository) GetByID(ctx context.Context, id int64) (*models.Template, error) {
	var template models.Template
	query := r.db.Rebind(`SELECT id, user_id, name, description, created_at, updated_at
		FROM templates WHERE id = ?`)
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entryQuery := r.db.Rebind(`SELECT id, template_id, start_time, end_time,
		project_id, category_id, description, sort_order
		FROM template_entries WHERE template_id = ? ORDER BY sort_order`)
	if err := r.db.SelectContext(ctx, &template.Entries, entryQuery, id); err != nil {
		return nil, err
	}
	return &template, nil
}

// ListByUser returns the user's templates with their entries.
func (r *SQLTemplateRepository) ListByUser(ctx context.Context, userID int64) ([]models.Template, error) {
	var templates []models.Template
	query := r.db.Rebind(`SELECT id, user_id, name, description, created_at, updated_at
		FROM templates WHERE user_id = ? ORDER BY name`)
	if err := r.db.SelectContext(ctx, &templates, query, userID); err != nil {
		return nil, err
	}

	entryQuery := r.db.Rebind(`SELECT id, template_id, start_time, end_time,
		project_id, category_id, description, sort_order
		FROM template_entries WHERE template_id = ? ORDER BY sort_order`)
	for i := range templates {
		if err := r.db.SelectContext(ctx, &templates[i].Entries, entryQuery, templates[i].ID); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// Delete removes the template; entries cascade via the schema.
func (r *SQLTemplateRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM templates WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
