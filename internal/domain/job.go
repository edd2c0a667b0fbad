package domain

import "time"

// Job tracks a background repository sync.
type Job struct {
	ID           string    `json:"id"`
	RepositoryID int64     `json:"repository_id"`
	Status       string    `json:"status"` // running, complete, error
	Step         string    `json:"step"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// Job status constants.
const (
	JobStatusRunning  = "running"
	JobStatusComplete = "complete"
	JobStatusError    = "error"
)

// Finished reports whether the job reached a terminal state.
func (j Job) Finished() bool {
	return j.Status == JobStatusComplete || j.Status == JobStatusError
}
