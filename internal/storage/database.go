package storage

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

// IsMemory reports whether path names an in-memory database.
func IsMemory(path string) bool {
	return path == "" || path == MemoryPath || strings.Contains(path, "mode=memory")
}

// New opens a SQLite database at path. An empty path or ":memory:" opens an
// in-memory database that lives as long as the returned handle; it is
// pinned to a single connection because every new connection would get its
// own empty database.
func New(path string) (*sql.DB, error) {
	memory := IsMemory(path)
	if path == "" {
		path = MemoryPath
	}

	// foreign keys are per connection in SQLite, so enable them in the DSN
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+"_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the session tables. It is idempotent.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			status TEXT NOT NULL,
			sheet TEXT NOT NULL,
			mapping TEXT NOT NULL DEFAULT '',
			settings TEXT NOT NULL DEFAULT '',
			mapped_table TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions (updated_at);`,
		`CREATE TABLE IF NOT EXISTS chunk_logs (
			session_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			row_offset INTEGER NOT NULL,
			row_count INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			response TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			kept INTEGER NOT NULL DEFAULT 0,
			dropped INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, chunk_index),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
