package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

const repositoryColumns = `r.id, r.name, r.url, r.branch, r.local_path, r.status, r.last_updated, r.created_at`

func scanRepository(row interface{ Scan(...any) error }) (*domain.Repository, error) {
	var (
		r           domain.Repository
		url         sql.NullString
		lastUpdated sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.Name, &url, &r.Branch, &r.LocalPath, &r.Status, &lastUpdated, &r.CreatedAt); err != nil {
		return nil, err
	}
	if url.Valid {
		u := url.String
		r.URL = &u
	}
	if lastUpdated.Valid {
		t := lastUpdated.Time
		r.LastUpdated = &t
	}
	return &r, nil
}

func (s *SQLStore) listRepositories(ctx context.Context, query string, args ...any) ([]domain.Repository, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	repos := []domain.Repository{}
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, *r)
	}
	return repos, rows.Err()
}

// ListRepositories returns every repository ordered by id.
func (s *SQLStore) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	return s.listRepositories(ctx, `SELECT `+repositoryColumns+` FROM repositories r ORDER BY r.id`)
}

// ListRepositoriesByProject returns the repositories linked to a project.
func (s *SQLStore) ListRepositoriesByProject(ctx context.Context, projectID int64) ([]domain.Repository, error) {
	return s.listRepositories(ctx,
		`SELECT `+repositoryColumns+` FROM repositories r
		 JOIN project_repositories pr ON pr.repository_id = r.id
		 WHERE pr.project_id = ?
		 ORDER BY r.id`, projectID)
}

// SearchRepositories matches name or url case-insensitively.
func (s *SQLStore) SearchRepositories(ctx context.Context, query string) ([]domain.Repository, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return s.listRepositories(ctx,
		`SELECT `+repositoryColumns+` FROM repositories r
		 WHERE LOWER(r.name) LIKE ? OR LOWER(COALESCE(r.url, '')) LIKE ?
		 ORDER BY r.id`, pattern, pattern)
}

// GetRepository returns a repository by id.
func (s *SQLStore) GetRepository(ctx context.Context, id int64) (*domain.Repository, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+repositoryColumns+` FROM repositories r WHERE r.id = ?`, id)
	r, err := scanRepository(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrRepositoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}
	return r, nil
}

// CreateRepository inserts a new repository record.
func (s *SQLStore) CreateRepository(ctx context.Context, r *domain.Repository) (*domain.Repository, error) {
	var lastUpdated sql.NullTime
	if r.LastUpdated != nil {
		lastUpdated = sql.NullTime{Time: *r.LastUpdated, Valid: true}
	}
	var id int64
	err := s.queryRow(ctx, s.db,
		`INSERT INTO repositories (name, url, branch, local_path, status, last_updated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		r.Name, nullString(r.URL), r.Branch, r.LocalPath, r.Status, lastUpdated, now(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}
	return s.GetRepository(ctx, id)
}

// UpdateRepositoryStatus sets the sync status of a repository.
func (s *SQLStore) UpdateRepositoryStatus(ctx context.Context, id int64, status string) error {
	res, err := s.exec(ctx, s.db, `UPDATE repositories SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update repository status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return port.ErrRepositoryNotFound
	}
	return nil
}

// UpdateRepositorySync records the outcome of a successful sync.
func (s *SQLStore) UpdateRepositorySync(ctx context.Context, id int64, localPath, branch string, lastUpdated time.Time) error {
	res, err := s.exec(ctx, s.db,
		`UPDATE repositories SET status = ?, local_path = ?, branch = ?, last_updated = ? WHERE id = ?`,
		domain.RepoStatusReady, localPath, branch, lastUpdated.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update repository sync: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return port.ErrRepositoryNotFound
	}
	return nil
}

// DeleteRepository removes a repository and every link pointing at it.
func (s *SQLStore) DeleteRepository(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM project_repositories WHERE repository_id = ?`, id); err != nil {
			return fmt.Errorf("delete repository links: %w", err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM repositories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete repository: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return port.ErrRepositoryNotFound
		}
		return nil
	})
}
