package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_cases",
		SQL: `CREATE TABLE IF NOT EXISTS cases (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  worker_name         TEXT        NOT NULL,
  cos_reference       TEXT        NOT NULL DEFAULT '',
  job_title           TEXT        NOT NULL DEFAULT '',
  soc_code            TEXT        NOT NULL DEFAULT '',
  assignment_date_raw TEXT        NOT NULL DEFAULT '',
  assignment_date     DATE,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  case_id       UUID        NOT NULL REFERENCES cases (id) ON DELETE CASCADE,
  filename      TEXT        NOT NULL,
  storage_path  TEXT        NOT NULL UNIQUE,
  size          BIGINT      NOT NULL CHECK (size >= 0),
  content_type  TEXT        NOT NULL,
  document_type TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_qualifications",
		SQL: `CREATE TABLE IF NOT EXISTS qualifications (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  case_id             UUID        NOT NULL REFERENCES cases (id) ON DELETE CASCADE,
  title               TEXT        NOT NULL,
  level               TEXT        NOT NULL DEFAULT '',
  completion_date     DATE,
  issuing_body        TEXT        NOT NULL DEFAULT '',
  certificate_number  TEXT        NOT NULL DEFAULT '',
  verification_status TEXT        NOT NULL DEFAULT 'pending',
  source_role         TEXT        NOT NULL,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_verdicts",
		SQL: `CREATE TABLE IF NOT EXISTS verdicts (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  case_id     UUID        NOT NULL REFERENCES cases (id) ON DELETE CASCADE,
  outcome     TEXT        NOT NULL,
  risk_level  TEXT        NOT NULL,
  breach_type TEXT,
  verdict     JSONB       NOT NULL,
  narrative   TEXT        NOT NULL,
  assessed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_case_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_case_id ON documents (case_id);`,
	},
	{
		Name: "create_index_qualifications_case_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_qualifications_case_id ON qualifications (case_id);`,
	},
	{
		Name: "create_index_verdicts_case_id_assessed_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_verdicts_case_id_assessed_at ON verdicts (case_id, assessed_at);`,
	},
	{
		Name: "create_index_cases_cos_reference",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_cases_cos_reference ON cases (cos_reference);`,
	},
}

// EnsureMigrated checks if the 'cases' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.cases') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
