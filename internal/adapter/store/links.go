package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

// ListLinks returns the links of one project, or every link when projectID is 0.
func (s *SQLStore) ListLinks(ctx context.Context, projectID int64) ([]domain.ProjectRepository, error) {
	query := `SELECT project_id, repository_id, created_at FROM project_repositories`
	var args []any
	if projectID != 0 {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY project_id, repository_id`

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := []domain.ProjectRepository{}
	for rows.Next() {
		var l domain.ProjectRepository
		if err := rows.Scan(&l.ProjectID, &l.RepositoryID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// CreateLink links a repository to a project and touches the project's
// last_modified. A second link of the same pair returns port.ErrAlreadyLinked.
func (s *SQLStore) CreateLink(ctx context.Context, projectID, repositoryID int64) (*domain.ProjectRepository, error) {
	link := &domain.ProjectRepository{ProjectID: projectID, RepositoryID: repositoryID, CreatedAt: now()}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.mustExist(ctx, tx, `SELECT id FROM projects WHERE id = ?`, projectID, port.ErrProjectNotFound); err != nil {
			return err
		}
		if err := s.mustExist(ctx, tx, `SELECT id FROM repositories WHERE id = ?`, repositoryID, port.ErrRepositoryNotFound); err != nil {
			return err
		}

		_, err := s.exec(ctx, tx,
			`INSERT INTO project_repositories (project_id, repository_id, created_at) VALUES (?, ?, ?)`,
			projectID, repositoryID, link.CreatedAt,
		)
		if isUniqueViolation(err) {
			return port.ErrAlreadyLinked
		}
		if err != nil {
			return fmt.Errorf("create link: %w", err)
		}
		return s.touchProject(ctx, tx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// DeleteLink unlinks a repository from a project.
func (s *SQLStore) DeleteLink(ctx context.Context, projectID, repositoryID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx,
			`DELETE FROM project_repositories WHERE project_id = ? AND repository_id = ?`,
			projectID, repositoryID,
		)
		if err != nil {
			return fmt.Errorf("delete link: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return port.ErrLinkNotFound
		}
		return s.touchProject(ctx, tx, projectID)
	})
}

func (s *SQLStore) mustExist(ctx context.Context, tx *sql.Tx, query string, id int64, notFound error) error {
	var got int64
	err := s.queryRow(ctx, tx, query, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

func (s *SQLStore) touchProject(ctx context.Context, tx *sql.Tx, projectID int64) error {
	if _, err := s.exec(ctx, tx, `UPDATE projects SET last_modified = ? WHERE id = ?`, now(), projectID); err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	return nil
}
