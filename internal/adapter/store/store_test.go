package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func strPtr(s string) *string { return &s }

func TestSQLitePragmasOnEveryConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	// No idle connections: each query below dials a fresh one.
	s.db.SetMaxIdleConns(0)

	for range 2 {
		var fk, timeout int
		require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
		require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout))
		assert.Equal(t, 1, fk)
		assert.Equal(t, 5000, timeout)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project_repositories (project_id, repository_id, created_at) VALUES (999, 999, ?)`, time.Now())
	assert.Error(t, err, "foreign keys are enforced")
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: dialectPostgres}
	lite := &SQLStore{dialect: dialectSQLite}

	q := `SELECT * FROM t WHERE a = ? AND b = ?`
	assert.Equal(t, `SELECT * FROM t WHERE a = $1 AND b = $2`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestMigrateSeedsDefaultProfileOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))

	profiles, err := s.ListRenderProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, domain.DefaultRenderProfileName, profiles[0].Name)
	assert.True(t, profiles[0].IsDefault)
	assert.Equal(t, "1920x1080", profiles[0].Settings["resolution"])
}

func TestProjectCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, &domain.Project{Name: "Alpha", Slug: "alpha", Description: "first"})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Empty(t, p.Repositories)
	assert.Nil(t, p.RenderProfileID)
	assert.False(t, p.LastModified.IsZero())

	_, err = s.CreateProject(ctx, &domain.Project{Name: "ALPHA", Slug: "alpha"})
	assert.ErrorIs(t, err, port.ErrDuplicateName)

	bySlug, err := s.GetProjectBySlug(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)

	p.Description = "changed"
	updated, err := s.UpdateProject(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Description)

	_, err = s.UpdateProject(ctx, &domain.Project{ID: 999, Name: "x", Slug: "x"})
	assert.ErrorIs(t, err, port.ErrProjectNotFound)

	require.NoError(t, s.DeleteProject(ctx, p.ID))
	_, err = s.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, port.ErrProjectNotFound)
	assert.ErrorIs(t, s.DeleteProject(ctx, p.ID), port.ErrProjectNotFound)
}

func TestRepositoryNullableURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	local, err := s.CreateRepository(ctx, &domain.Repository{
		Name: "local", Branch: "main", LocalPath: "/src/local", Status: domain.RepoStatusPending,
	})
	require.NoError(t, err)
	assert.Nil(t, local.URL)
	assert.Nil(t, local.LastUpdated)

	remote, err := s.CreateRepository(ctx, &domain.Repository{
		Name: "remote", URL: strPtr("https://github.com/acme/Remote"), Branch: "dev", Status: domain.RepoStatusPending,
	})
	require.NoError(t, err)
	require.NotNil(t, remote.URL)
	assert.Equal(t, "https://github.com/acme/Remote", *remote.URL)

	found, err := s.SearchRepositories(ctx, "ACME/remote")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, remote.ID, found[0].ID)

	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateRepositorySync(ctx, local.ID, "/src/local", "trunk", when))
	got, err := s.GetRepository(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RepoStatusReady, got.Status)
	assert.Equal(t, "trunk", got.Branch)
	require.NotNil(t, got.LastUpdated)
	assert.True(t, when.Equal(*got.LastUpdated))

	assert.ErrorIs(t, s.UpdateRepositoryStatus(ctx, 999, domain.RepoStatusError), port.ErrRepositoryNotFound)
}

func TestLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, &domain.Project{Name: "P", Slug: "p"})
	require.NoError(t, err)
	r1, err := s.CreateRepository(ctx, &domain.Repository{Name: "one", Branch: "main", Status: domain.RepoStatusPending})
	require.NoError(t, err)
	r2, err := s.CreateRepository(ctx, &domain.Repository{Name: "two", Branch: "main", Status: domain.RepoStatusPending})
	require.NoError(t, err)

	_, err = s.CreateLink(ctx, p.ID, r1.ID)
	require.NoError(t, err)
	_, err = s.CreateLink(ctx, p.ID, r2.ID)
	require.NoError(t, err)

	_, err = s.CreateLink(ctx, p.ID, r1.ID)
	assert.ErrorIs(t, err, port.ErrAlreadyLinked)
	_, err = s.CreateLink(ctx, 999, r1.ID)
	assert.ErrorIs(t, err, port.ErrProjectNotFound)
	_, err = s.CreateLink(ctx, p.ID, 999)
	assert.ErrorIs(t, err, port.ErrRepositoryNotFound)

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{r1.ID, r2.ID}, got.Repositories)

	linked, err := s.ListRepositoriesByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, linked, 2)

	require.NoError(t, s.DeleteLink(ctx, p.ID, r1.ID))
	assert.ErrorIs(t, s.DeleteLink(ctx, p.ID, r1.ID), port.ErrLinkNotFound)

	links, err := s.ListLinks(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, r2.ID, links[0].RepositoryID)

	// Deleting the project removes links but keeps repositories.
	require.NoError(t, s.DeleteProject(ctx, p.ID))
	links, err = s.ListLinks(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, links)
	repos, err := s.ListRepositories(ctx)
	require.NoError(t, err)
	assert.Len(t, repos, 2)
}

func TestDeleteRepositoryRemovesLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, &domain.Project{Name: "P", Slug: "p"})
	require.NoError(t, err)
	r, err := s.CreateRepository(ctx, &domain.Repository{Name: "one", Branch: "main", Status: domain.RepoStatusPending})
	require.NoError(t, err)
	_, err = s.CreateLink(ctx, p.ID, r.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRepository(ctx, r.ID))

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Repositories)
}

func TestRenderProfileSingleDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def, err := s.DefaultRenderProfile(ctx)
	require.NoError(t, err)

	fast, err := s.SaveRenderProfile(ctx, &domain.RenderProfile{
		Name: "Fast", IsDefault: true, Settings: map[string]any{"seconds-per-day": 0.1},
	})
	require.NoError(t, err)

	newDef, err := s.DefaultRenderProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, fast.ID, newDef.ID)

	old, err := s.GetRenderProfile(ctx, def.ID)
	require.NoError(t, err)
	assert.False(t, old.IsDefault)

	p, err := s.CreateProject(ctx, &domain.Project{Name: "P", Slug: "p", RenderProfileID: &fast.ID})
	require.NoError(t, err)
	require.NoError(t, s.DeleteRenderProfile(ctx, fast.ID))

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RenderProfileID)
	assert.ErrorIs(t, s.DeleteRenderProfile(ctx, fast.ID), port.ErrRenderProfileNotFound)
}

func TestSettingsAndAudit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.GetSetting(ctx, "github_token")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetSetting(ctx, "github_token", "a"))
	require.NoError(t, s.SetSetting(ctx, "github_token", "b"))
	v, err = s.GetSetting(ctx, "github_token")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	require.NoError(t, s.DeleteSetting(ctx, "github_token"))
	require.NoError(t, s.DeleteSetting(ctx, "github_token"))

	require.NoError(t, s.WriteAudit(domain.AuditActionRequest, "api", "/api/v1/projects", `{"status":200}`, "127.0.0.1", "test"))
	require.NoError(t, s.WriteAudit(domain.AuditActionLink, "project", "1", `{}`, "127.0.0.1", "test"))

	logs, err := s.ListAuditLogs(ctx, 10, domain.AuditActionLink)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "project", logs[0].Resource)

	logs, err = s.ListAuditLogs(ctx, 0, "")
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}
