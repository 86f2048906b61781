package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the schema for the active driver. Statements are written
// per driver because the open-entry uniqueness constraint needs different
// mechanics: postgres and sqlite support partial unique indexes; mysql gets
// a generated column that is NULL once the entry closes (NULLs never collide
// in a mysql unique key).
func Migrate(db *sqlx.DB) error {
	var stmts []string
	switch db.DriverName() {
	case "postgres":
		stmts = append(commonDDL("BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"),
			`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_entry
				ON time_entries (user_id, entry_mode)
				WHERE end_time IS NULL AND parent_id IS NULL
				AND entry_mode IN ('simple', 'day')`)
	case "sqlite3":
		stmts = append(commonDDL("INTEGER PRIMARY KEY AUTOINCREMENT", "TIMESTAMP"),
			`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_entry
				ON time_entries (user_id, entry_mode)
				WHERE end_time IS NULL AND parent_id IS NULL
				AND entry_mode IN ('simple', 'day')`)
	case "mysql":
		stmts = append(commonDDL("BIGINT AUTO_INCREMENT PRIMARY KEY", "DATETIME(3)"),
			`ALTER TABLE time_entries
				ADD COLUMN IF NOT EXISTS open_marker TINYINT
				GENERATED ALWAYS AS (IF(end_time IS NULL AND parent_id IS NULL
					AND entry_mode IN ('simple', 'day'), 1, NULL)) STORED`,
			`CREATE UNIQUE INDEX uniq_open_entry
				ON time_entries (user_id, entry_mode, open_marker)`)
	default:
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func commonDDL(pk, ts string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS projects (
			id %s,
			name VARCHAR(200) NOT NULL,
			color VARCHAR(20) NOT NULL DEFAULT '',
			is_archived BOOLEAN NOT NULL DEFAULT FALSE,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS categories (
			id %s,
			name VARCHAR(200) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS time_entries (
			id %s,
			user_id BIGINT NOT NULL,
			start_time %s NOT NULL,
			end_time %s NULL,
			duration_minutes INTEGER NULL,
			project_id BIGINT NULL,
			category_id BIGINT NULL,
			description VARCHAR(500) NOT NULL DEFAULT '',
			entry_mode VARCHAR(16) NOT NULL,
			parent_id BIGINT NULL,
			created_at %s NOT NULL,
			updated_at %s NOT NULL,
			CONSTRAINT fk_time_entries_project FOREIGN KEY (project_id) REFERENCES projects (id),
			CONSTRAINT fk_time_entries_category FOREIGN KEY (category_id) REFERENCES categories (id),
			CONSTRAINT fk_time_entries_parent FOREIGN KEY (parent_id) REFERENCES time_entries (id) ON DELETE CASCADE
		)`, pk, ts, ts, ts, ts),
		`CREATE INDEX IF NOT EXISTS idx_time_entries_user_start ON time_entries (user_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_time_entries_parent ON time_entries (parent_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS templates (
			id %s,
			user_id BIGINT NOT NULL,
			name VARCHAR(100) NOT NULL,
			description TEXT,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS template_entries (
			id %s,
			template_id BIGINT NOT NULL,
			start_time VARCHAR(5) NOT NULL,
			end_time VARCHAR(5) NOT NULL,
			project_id BIGINT NULL,
			category_id BIGINT NULL,
			description VARCHAR(500) NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL,
			CONSTRAINT fk_template_entries_template FOREIGN KEY (template_id) REFERENCES templates (id) ON DELETE CASCADE
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS timesheets (
			id %s,
			user_id BIGINT NOT NULL,
			week_start %s NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'draft',
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts, ts),
		`CREATE INDEX IF NOT EXISTS idx_timesheets_user_week ON timesheets (user_id, week_start)`,
	}
}
