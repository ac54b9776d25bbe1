package cache

import (
	"database/sql"
	"fmt"
)

const (
	migrationBootstrapStatement      = `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP)`
	migrationCurrentVersionQuery     = `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`
	migrationRecordStatement         = `INSERT INTO schema_migrations (version) VALUES (?)`
	migrationErrorTemplateConstant   = "apply cache migration %d (%s): %w"
	migrationVersionTemplateConstant = "read cache schema version: %w"
)

type migration struct {
	version     int
	description string
	statement   string
}

var migrations = []migration{
	{
		version:     1,
		description: "entries keyed by namespace and input digest",
		statement: `
CREATE TABLE entries (
    namespace  TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      BLOB NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (namespace, key)
);`,
	},
}

func migrate(database *sql.DB) error {
	if _, bootstrapError := database.Exec(migrationBootstrapStatement); bootstrapError != nil {
		return fmt.Errorf(migrationVersionTemplateConstant, bootstrapError)
	}

	var currentVersion int
	if queryError := database.QueryRow(migrationCurrentVersionQuery).Scan(&currentVersion); queryError != nil {
		return fmt.Errorf(migrationVersionTemplateConstant, queryError)
	}

	for _, pending := range migrations {
		if pending.version <= currentVersion {
			continue
		}
		transaction, beginError := database.Begin()
		if beginError != nil {
			return fmt.Errorf(migrationErrorTemplateConstant, pending.version, pending.description, beginError)
		}
		if _, execError := transaction.Exec(pending.statement); execError != nil {
			_ = transaction.Rollback()
			return fmt.Errorf(migrationErrorTemplateConstant, pending.version, pending.description, execError)
		}
		if _, recordError := transaction.Exec(migrationRecordStatement, pending.version); recordError != nil {
			_ = transaction.Rollback()
			return fmt.Errorf(migrationErrorTemplateConstant, pending.version, pending.description, recordError)
		}
		if commitError := transaction.Commit(); commitError != nil {
			return fmt.Errorf(migrationErrorTemplateConstant, pending.version, pending.description, commitError)
		}
	}
	return nil
}
