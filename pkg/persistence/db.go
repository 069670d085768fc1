// Package persistence provides SQLite-based storage for conversation
// threads and processed Slack event bookkeeping.
package persistence

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/franizus/slack-jira-agent/pkg/logx"
)

// Open creates the SQLite database at dbPath with WAL mode and a busy
// timeout, ensures the schema is current, and returns the connection.
func Open(dbPath string) (*sql.DB, error) {
	// modernc's driver takes pragmas via _pragma= parameters.
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initializeSchemaWithMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logx.NewLogger("persistence").Info("database initialized: %s", dbPath)
	return db, nil
}
