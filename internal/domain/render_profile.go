package domain

import "time"

// RenderProfile is a named bundle of Gource options reusable across projects.
type RenderProfile struct {
	ID        int64          `json:"id"         db:"id"`
	Name      string         `json:"name"       db:"name"`
	IsDefault bool           `json:"isDefault"  db:"is_default"`
	Settings  map[string]any `json:"settings"   db:"settings"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// DefaultRenderProfileName is the profile seeded into an empty database.
const DefaultRenderProfileName = "Default"

// DefaultRenderSettings are the options of the seeded profile. The title is
// filled in per project on export.
func DefaultRenderSettings() map[string]any {
	return map[string]any{
		"resolution":        "1920x1080",
		"seconds-per-day":   1,
		"auto-skip-seconds": 1,
		"key":               true,
	}
}
