package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

const projectColumns = `id, name, slug, description, render_profile_id, last_modified`

func scanProject(row interface{ Scan(...any) error }) (*domain.Project, error) {
	var (
		p         domain.Project
		profileID sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &profileID, &p.LastModified); err != nil {
		return nil, err
	}
	if profileID.Valid {
		id := profileID.Int64
		p.RenderProfileID = &id
	}
	p.Repositories = []int64{}
	return &p, nil
}

// ListProjects returns all projects with their linked repository ids.
func (s *SQLStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	index := map[int64]int{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		index[p.ID] = len(projects)
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	links, err := s.query(ctx, s.db, `SELECT project_id, repository_id FROM project_repositories ORDER BY repository_id`)
	if err != nil {
		return nil, fmt.Errorf("list project links: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var projectID, repoID int64
		if err := links.Scan(&projectID, &repoID); err != nil {
			return nil, fmt.Errorf("scan project link: %w", err)
		}
		if i, ok := index[projectID]; ok {
			projects[i].Repositories = append(projects[i].Repositories, repoID)
		}
	}
	return projects, links.Err()
}

// GetProject returns a project by id.
func (s *SQLStore) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return s.finishProject(ctx, row)
}

// GetProjectBySlug returns a project by its slug.
func (s *SQLStore) GetProjectBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug)
	return s.finishProject(ctx, row)
}

func (s *SQLStore) finishProject(ctx context.Context, row *sql.Row) (*domain.Project, error) {
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	rows, err := s.query(ctx, s.db,
		`SELECT repository_id FROM project_repositories WHERE project_id = ? ORDER BY repository_id`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get project links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan project link: %w", err)
		}
		p.Repositories = append(p.Repositories, id)
	}
	return p, rows.Err()
}

// CreateProject inserts a new project. Slug collisions return port.ErrDuplicateName.
func (s *SQLStore) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	var id int64
	err := s.queryRow(ctx, s.db,
		`INSERT INTO projects (name, slug, description, render_profile_id, last_modified)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`,
		p.Name, p.Slug, p.Description, nullInt64(p.RenderProfileID), now(),
	).Scan(&id)
	if isUniqueViolation(err) {
		return nil, port.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return s.GetProject(ctx, id)
}

// UpdateProject overwrites the writable fields of an existing project.
func (s *SQLStore) UpdateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	res, err := s.exec(ctx, s.db,
		`UPDATE projects SET name = ?, slug = ?, description = ?, render_profile_id = ?, last_modified = ?
		 WHERE id = ?`,
		p.Name, p.Slug, p.Description, nullInt64(p.RenderProfileID), now(), p.ID,
	)
	if isUniqueViolation(err) {
		return nil, port.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, port.ErrProjectNotFound
	}
	return s.GetProject(ctx, p.ID)
}

// DeleteProject removes a project and its links. Repositories are kept.
func (s *SQLStore) DeleteProject(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM project_repositories WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("delete project links: %w", err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return port.ErrProjectNotFound
		}
		return nil
	})
}
