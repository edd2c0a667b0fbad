package domain

import "time"

// Repository is a tracked Git repository, either a local path or a remote URL.
type Repository struct {
	ID          int64      `json:"id"           db:"id"`
	Name        string     `json:"name"         db:"name"`
	URL         *string    `json:"url"          db:"url"` // nil for local-only repositories
	Branch      string     `json:"branch"       db:"branch"`
	LocalPath   string     `json:"local_path"   db:"local_path"`
	Status      string     `json:"status"       db:"status"`
	LastUpdated *time.Time `json:"last_updated" db:"last_updated"`
	CreatedAt   time.Time  `json:"created_at"   db:"created_at"`
}

// DisplayURL returns the URL or an empty string when the repository has none.
func (r Repository) DisplayURL() string {
	if r.URL == nil {
		return ""
	}
	return *r.URL
}

// Repository status constants.
const (
	RepoStatusPending = "pending"
	RepoStatusSyncing = "syncing"
	RepoStatusReady   = "ready"
	RepoStatusError   = "error"
)

// DefaultBranch is used when a repository is created without one.
const DefaultBranch = "main"
