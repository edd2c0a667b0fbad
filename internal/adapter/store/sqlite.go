package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS render_profiles (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	is_default BOOLEAN NOT NULL DEFAULT 0,
	settings   TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS projects (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	name              TEXT NOT NULL,
	slug              TEXT NOT NULL UNIQUE,
	description       TEXT NOT NULL DEFAULT '',
	render_profile_id INTEGER REFERENCES render_profiles(id) ON DELETE SET NULL,
	last_modified     DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS repositories (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	url          TEXT,
	branch       TEXT NOT NULL DEFAULT 'main',
	local_path   TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending',
	last_updated DATETIME,
	created_at   DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS project_repositories (
	project_id    INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	repository_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
	created_at    DATETIME NOT NULL,
	PRIMARY KEY (project_id, repository_id)
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_logs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	action      TEXT NOT NULL,
	resource    TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	details     TEXT NOT NULL DEFAULT '{}',
	ip          TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL
)`

// sqlitePragmas are applied by the driver to every new connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// sqliteDSN builds the connection string for the database file at path.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Set("_time_format", "sqlite")
	for _, p := range sqlitePragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// NewSQLiteStore opens (creating if needed) the database file at path.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	return &SQLStore{db: db, dialect: dialectSQLite, schema: sqliteSchema}, nil
}
