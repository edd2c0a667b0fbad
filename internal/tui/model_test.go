package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/linking"
)

type stubAPI struct {
	mu      sync.Mutex
	repos   []domain.Repository
	linked  []domain.Repository
	created []int64
	fail    bool

	listFailures int
}

func (s *stubAPI) GetProject(context.Context, string) (*domain.Project, error) {
	return &domain.Project{ID: 3, Name: "Demo"}, nil
}

func (s *stubAPI) ListRepositories(context.Context) ([]domain.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listFailures > 0 {
		s.listFailures--
		return nil, errors.New("connection refused")
	}
	return s.repos, nil
}

func (s *stubAPI) LinkedRepositories(context.Context, int64) ([]domain.Repository, error) {
	return s.linked, nil
}

func (s *stubAPI) CreateLink(_ context.Context, _, repositoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("boom")
	}
	s.created = append(s.created, repositoryID)
	return nil
}

func (s *stubAPI) DeleteLink(context.Context, int64, int64) error { return nil }

func testRepos() []domain.Repository {
	url := "https://example.com/beta.git"
	return []domain.Repository{
		{ID: 1, Name: "alpha"},
		{ID: 2, Name: "beta", URL: &url},
		{ID: 3, Name: "gamma"},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func loaded(t *testing.T, api *stubAPI, opts ...linking.Option) Model {
	t.Helper()
	flow := linking.New(api, "3", append([]linking.Option{linking.WithRedirectDelay(time.Millisecond)}, opts...)...)
	m := New(flow, PlainTheme())
	m, _ = send(t, m, m.load())
	return m
}

func TestLoadShowsCandidates(t *testing.T) {
	api := &stubAPI{repos: testRepos(), linked: []domain.Repository{{ID: 3, Name: "gamma"}}}
	m := loaded(t, api)

	view := m.View()
	assert.Contains(t, view, "Link repositories to Demo")
	assert.Contains(t, view, "[ ] alpha")
	assert.Contains(t, view, "[ ] beta https://example.com/beta.git")
	assert.NotContains(t, view, "gamma")
}

func TestEmptyStates(t *testing.T) {
	all := &stubAPI{repos: testRepos(), linked: testRepos()}
	assert.Contains(t, loaded(t, all).View(), "All repositories are already linked")

	none := &stubAPI{repos: testRepos()}
	assert.Contains(t, loaded(t, none, linking.WithMode(linking.ModeUnlink)).View(), "No repositories are linked")
}

func TestSearchFilters(t *testing.T) {
	m := loaded(t, &stubAPI{repos: testRepos()})

	m, _ = send(t, m, keyRunes("/"))
	m, _ = send(t, m, keyRunes("BET"))
	assert.Len(t, m.visible, 1)
	assert.Equal(t, "beta", m.visible[0].Name)

	m, _ = send(t, m, keyRunes("zzz"))
	assert.Contains(t, m.View(), "No repositories match your search.")

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.search.Focused())
}

func TestToggleAndSubmit(t *testing.T) {
	api := &stubAPI{repos: testRepos()}
	m := loaded(t, api)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Contains(t, m.View(), "[x] beta")
	assert.Contains(t, m.View(), "1 selected")

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, cmd = send(t, m, cmd())
	require.NotNil(t, cmd, "redirect is scheduled")
	assert.Equal(t, []int64{2}, api.created)
	assert.Equal(t, "/projects/3", m.Redirect().Path)
	assert.Contains(t, m.View(), "Repositories linked successfully!")

	m, cmd = send(t, m, redirectMsg{})
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
}

func TestSubmitWithoutSelection(t *testing.T) {
	api := &stubAPI{repos: testRepos()}
	m := loaded(t, api)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, cmd = send(t, m, cmd())
	assert.Nil(t, cmd)
	assert.Nil(t, m.Redirect())
	assert.Contains(t, m.View(), "Select at least one repository")
	assert.Empty(t, api.created)
}

func TestSubmitFailureKeepsPicker(t *testing.T) {
	api := &stubAPI{repos: testRepos(), fail: true}
	m := loaded(t, api)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(t, m, cmd())
	assert.Nil(t, m.Redirect())
	view := m.View()
	assert.Contains(t, view, "Failed to link repositories")
	assert.Contains(t, view, "[x] alpha")
}

func TestThemeLookup(t *testing.T) {
	th := DefaultTheme()
	for _, r := range []Role{RoleTitle, RoleCursor, RoleSelected, RoleItem, RoleURL, RoleEmpty, RoleError, RoleSuccess, RoleHelp, RoleStatusBar} {
		_, ok := th[r]
		assert.True(t, ok, r)
	}
	assert.Equal(t, "plain", PlainTheme().Render(RoleTitle, "plain"))
	assert.Equal(t, "plain", th.Render(Role("unknown"), "plain"))
}

func TestReloadKeyRetriesFailedLoad(t *testing.T) {
	api := &stubAPI{repos: testRepos(), listFailures: 1}
	m := loaded(t, api)
	require.NotEmpty(t, m.flow.Err())
	assert.Contains(t, m.View(), m.flow.Err())
	assert.Empty(t, m.visible)

	m, cmd := send(t, m, keyRunes("r"))
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())

	assert.Empty(t, m.flow.Err())
	assert.Equal(t, linking.StateReady, m.flow.State())
	assert.Len(t, m.visible, 3)
	assert.Contains(t, m.View(), "alpha")
}
