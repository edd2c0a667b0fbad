package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

const renderProfileColumns = `id, name, is_default, settings, created_at`

func scanRenderProfile(row interface{ Scan(...any) error }) (*domain.RenderProfile, error) {
	var (
		p        domain.RenderProfile
		settings string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.IsDefault, &settings, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Settings = map[string]any{}
	if settings != "" {
		if err := json.Unmarshal([]byte(settings), &p.Settings); err != nil {
			return nil, fmt.Errorf("decode settings of profile %d: %w", p.ID, err)
		}
	}
	return &p, nil
}

// ListRenderProfiles returns every profile, default first.
func (s *SQLStore) ListRenderProfiles(ctx context.Context) ([]domain.RenderProfile, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT `+renderProfileColumns+` FROM render_profiles ORDER BY is_default DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list render profiles: %w", err)
	}
	defer rows.Close()

	profiles := []domain.RenderProfile{}
	for rows.Next() {
		p, err := scanRenderProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan render profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// GetRenderProfile returns a profile by id.
func (s *SQLStore) GetRenderProfile(ctx context.Context, id int64) (*domain.RenderProfile, error) {
	return s.getRenderProfile(ctx, s.db, `SELECT `+renderProfileColumns+` FROM render_profiles WHERE id = ?`, id)
}

// DefaultRenderProfile returns the profile flagged as default.
func (s *SQLStore) DefaultRenderProfile(ctx context.Context) (*domain.RenderProfile, error) {
	return s.getRenderProfile(ctx, s.db,
		`SELECT `+renderProfileColumns+` FROM render_profiles WHERE is_default = ? ORDER BY id LIMIT 1`, true)
}

func (s *SQLStore) getRenderProfile(ctx context.Context, q queryer, query string, args ...any) (*domain.RenderProfile, error) {
	p, err := scanRenderProfile(s.queryRow(ctx, q, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrRenderProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get render profile: %w", err)
	}
	return p, nil
}

// SaveRenderProfile inserts (ID 0) or updates a profile. Saving a default
// profile clears the flag on every other profile.
func (s *SQLStore) SaveRenderProfile(ctx context.Context, p *domain.RenderProfile) (*domain.RenderProfile, error) {
	settings := p.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	id := p.ID
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if id == 0 {
			err := s.queryRow(ctx, tx,
				`INSERT INTO render_profiles (name, is_default, settings, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
				p.Name, p.IsDefault, string(raw), now(),
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("create render profile: %w", err)
			}
		} else {
			res, err := s.exec(ctx, tx,
				`UPDATE render_profiles SET name = ?, is_default = ?, settings = ? WHERE id = ?`,
				p.Name, p.IsDefault, string(raw), id,
			)
			if err != nil {
				return fmt.Errorf("update render profile: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return port.ErrRenderProfileNotFound
			}
		}

		if p.IsDefault {
			if _, err := s.exec(ctx, tx, `UPDATE render_profiles SET is_default = ? WHERE id <> ?`, false, id); err != nil {
				return fmt.Errorf("clear default render profile: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRenderProfile(ctx, id)
}

// DeleteRenderProfile removes a profile and detaches it from projects.
func (s *SQLStore) DeleteRenderProfile(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `UPDATE projects SET render_profile_id = NULL WHERE render_profile_id = ?`, id); err != nil {
			return fmt.Errorf("detach render profile: %w", err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM render_profiles WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete render profile: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return port.ErrRenderProfileNotFound
		}
		return nil
	})
}
