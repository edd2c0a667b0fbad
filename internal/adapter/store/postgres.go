package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS render_profiles (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	is_default BOOLEAN NOT NULL DEFAULT FALSE,
	settings   TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS projects (
	id                BIGSERIAL PRIMARY KEY,
	name              TEXT NOT NULL,
	slug              TEXT NOT NULL UNIQUE,
	description       TEXT NOT NULL DEFAULT '',
	render_profile_id BIGINT REFERENCES render_profiles(id) ON DELETE SET NULL,
	last_modified     TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS repositories (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL,
	url          TEXT,
	branch       TEXT NOT NULL DEFAULT 'main',
	local_path   TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending',
	last_updated TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS project_repositories (
	project_id    BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	repository_id BIGINT NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
	created_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (project_id, repository_id)
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_logs (
	id          BIGSERIAL PRIMARY KEY,
	action      TEXT NOT NULL,
	resource    TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	details     TEXT NOT NULL DEFAULT '{}',
	ip          TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
)`

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLStore{db: db, dialect: dialectPostgres, schema: postgresSchema}, nil
}
