package domain

import "time"

// AuditLog records one handled API request.
type AuditLog struct {
	ID         int64     `json:"id"          db:"id"`
	Action     string    `json:"action"      db:"action"`
	Resource   string    `json:"resource"    db:"resource"`
	ResourceID string    `json:"resource_id" db:"resource_id"`
	Details    string    `json:"details"     db:"details"` // JSON blob
	IP         string    `json:"ip"          db:"ip"`
	UserAgent  string    `json:"user_agent"  db:"user_agent"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Audit action constants.
const (
	AuditActionRequest = "http_request"
	AuditActionLink    = "link"
	AuditActionUnlink  = "unlink"
	AuditActionSync    = "repository_sync"
)
