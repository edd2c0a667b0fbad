package domain

import "time"

// ProjectRepository links one repository to one project.
// The pair (ProjectID, RepositoryID) is unique.
type ProjectRepository struct {
	ProjectID    int64     `json:"project_id"    db:"project_id"`
	RepositoryID int64     `json:"repository_id" db:"repository_id"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}
