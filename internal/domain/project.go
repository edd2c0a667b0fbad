package domain

import "time"

// Project groups repositories for a combined visualization.
type Project struct {
	ID              int64     `json:"id"              db:"id"`
	Name            string    `json:"name"            db:"name"`
	Slug            string    `json:"slug"            db:"slug"`
	Description     string    `json:"description"     db:"description"`
	Repositories    []int64   `json:"repositories"`
	RenderProfileID *int64    `json:"renderProfileId" db:"render_profile_id"`
	LastModified    time.Time `json:"last_modified"   db:"last_modified"`
}

// ProjectInput is the writable subset of a Project used by create and update.
// Nil fields are left untouched on update.
type ProjectInput struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	RenderProfileID *int64  `json:"renderProfileId"`
}
