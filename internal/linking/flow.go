// Package linking drives the "attach repositories to a project" workflow:
// load a project and the repository universe, reconcile what is already
// linked, let the caller filter and select candidates, then submit one
// link (or unlink) request per selection in parallel.
package linking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gource-tools/gource-tools/internal/domain"
)

// DefaultRedirectDelay is how long the success message stays up before
// navigating to the project page.
const DefaultRedirectDelay = 1500 * time.Millisecond

var (
	// ErrBusy is returned when Submit is called while loading, submitting,
	// or after a successful submit.
	ErrBusy = errors.New("an operation is already in progress")
	// ErrNoSelection is returned by Submit when nothing is selected.
	ErrNoSelection = errors.New("select at least one repository")
	// ErrNotLoaded is returned by Submit before a successful Load.
	ErrNotLoaded = errors.New("project not loaded")
)

// API is the subset of the backend the flow talks to.
type API interface {
	GetProject(ctx context.Context, ref string) (*domain.Project, error)
	ListRepositories(ctx context.Context) ([]domain.Repository, error)
	LinkedRepositories(ctx context.Context, projectID int64) ([]domain.Repository, error)
	CreateLink(ctx context.Context, projectID, repositoryID int64) error
	DeleteLink(ctx context.Context, projectID, repositoryID int64) error
}

// Mode selects whether submit creates or removes links.
type Mode int

const (
	ModeLink Mode = iota
	ModeUnlink
)

func (m Mode) String() string {
	if m == ModeUnlink {
		return "unlink"
	}
	return "link"
}

// State is the position of a Flow in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateSubmitting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// Redirect tells the caller where to navigate after a successful submit.
type Redirect struct {
	Path  string
	After time.Duration
}

// Option configures a Flow.
type Option func(*Flow)

// WithMode sets link or unlink mode.
func WithMode(m Mode) Option {
	return func(f *Flow) { f.mode = m }
}

// WithRedirectDelay overrides DefaultRedirectDelay.
func WithRedirectDelay(d time.Duration) Option {
	return func(f *Flow) { f.redirectDelay = d }
}

// Flow is the state of one linking session. It is safe for concurrent use.
type Flow struct {
	api           API
	ref           string
	mode          Mode
	redirectDelay time.Duration

	mu         sync.Mutex
	state      State
	project    *domain.Project
	candidates []domain.Repository
	selected   map[int64]bool
	errMsg     string
	successMsg string
	redirect   *Redirect
}

// New creates a Flow for the project identified by ref (id or slug).
func New(api API, ref string, opts ...Option) *Flow {
	f := &Flow{
		api:           api,
		ref:           ref,
		redirectDelay: DefaultRedirectDelay,
		selected:      map[int64]bool{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load fetches the project and all repositories concurrently, then the
// project's linked repositories, and computes the candidate list.
func (f *Flow) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.state == StateLoading || f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrBusy
	}
	f.state = StateLoading
	f.errMsg = ""
	f.mu.Unlock()

	var (
		project *domain.Project
		all     []domain.Repository
		linked  []domain.Repository
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := f.api.GetProject(gctx, f.ref)
		if err != nil {
			return fmt.Errorf("get project %q: %w", f.ref, err)
		}
		project = p
		linked, err = f.api.LinkedRepositories(gctx, p.ID)
		if err != nil {
			return fmt.Errorf("list linked repositories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		all, err = f.api.ListRepositories(gctx)
		if err != nil {
			return fmt.Errorf("list repositories: %w", err)
		}
		return nil
	})
	err := g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateReady
	if err != nil {
		slog.Error("failed to load linking data", "ref", f.ref, "error", err)
		f.errMsg = "Failed to load project data. Please try again."
		return err
	}

	f.project = project
	if f.mode == ModeUnlink {
		f.candidates = linked
	} else {
		f.candidates = Difference(all, linked)
	}
	for id := range f.selected {
		if !containsID(f.candidates, id) {
			delete(f.selected, id)
		}
	}
	return nil
}

// Reload discards selection and messages and loads fresh data.
func (f *Flow) Reload(ctx context.Context) error {
	f.mu.Lock()
	if f.state == StateLoading || f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrBusy
	}
	f.selected = map[int64]bool{}
	f.successMsg = ""
	f.redirect = nil
	f.state = StateIdle
	f.mu.Unlock()
	return f.Load(ctx)
}

// Filter returns the candidates whose name or URL contains term,
// case-insensitively. An empty term returns every candidate.
func (f *Flow) Filter(term string) []domain.Repository {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Filter(f.candidates, term)
}

// Toggle flips the selection of a candidate and reports whether it is now
// selected. Ids that are not candidates are ignored.
func (f *Flow) Toggle(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !containsID(f.candidates, id) {
		return false
	}
	if f.selected[id] {
		delete(f.selected, id)
		return false
	}
	f.selected[id] = true
	return true
}

// IsSelected reports whether id is selected.
func (f *Flow) IsSelected(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected[id]
}

// Selected returns the selected ids in candidate order.
func (f *Flow) Selected() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectedIDs()
}

func (f *Flow) selectedIDs() []int64 {
	ids := make([]int64, 0, len(f.selected))
	for _, r := range f.candidates {
		if f.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Submit issues one request per selected repository, all in parallel. On
// success the flow is Done and a Redirect to the project page is returned.
// On any failure the flow returns to Ready with a generic error; links that
// were already created stay in place.
func (f *Flow) Submit(ctx context.Context) (*Redirect, error) {
	f.mu.Lock()
	switch {
	case f.state == StateLoading || f.state == StateSubmitting || f.state == StateDone:
		f.mu.Unlock()
		return nil, ErrBusy
	case f.project == nil:
		f.mu.Unlock()
		return nil, ErrNotLoaded
	}
	ids := f.selectedIDs()
	if len(ids) == 0 {
		f.errMsg = capitalize(ErrNoSelection.Error())
		f.mu.Unlock()
		return nil, ErrNoSelection
	}
	f.state = StateSubmitting
	f.errMsg = ""
	projectID := f.project.ID
	f.mu.Unlock()

	op := f.api.CreateLink
	if f.mode == ModeUnlink {
		op = f.api.DeleteLink
	}

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			if err := op(ctx, projectID, id); err != nil {
				return fmt.Errorf("%s repository %d: %w", f.mode, id, err)
			}
			return nil
		})
	}
	err := g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		slog.Error("failed to submit selection", "mode", f.mode, "project_id", projectID, "error", err)
		f.state = StateReady
		f.errMsg = fmt.Sprintf("Failed to %s repositories. Please try again.", f.mode)
		return nil, err
	}

	f.state = StateDone
	f.successMsg = fmt.Sprintf("Repositories %sed successfully!", f.mode)
	f.redirect = &Redirect{
		Path:  fmt.Sprintf("/projects/%d", projectID),
		After: f.redirectDelay,
	}
	r := *f.redirect
	return &r, nil
}

// State returns the current lifecycle state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether submission is currently disabled.
func (f *Flow) Busy() bool {
	s := f.State()
	return s == StateLoading || s == StateSubmitting
}

// Mode returns the flow's mode.
func (f *Flow) Mode() Mode {
	return f.mode
}

// Project returns the loaded project, or nil.
func (f *Flow) Project() *domain.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.project
}

// Candidates returns every repository the user may select.
func (f *Flow) Candidates() []domain.Repository {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Repository(nil), f.candidates...)
}

// Err returns the user-facing error message, empty when there is none.
func (f *Flow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Success returns the user-facing success message.
func (f *Flow) Success() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.successMsg
}

// Redirect returns the pending navigation after a successful submit.
func (f *Flow) Redirect() *Redirect {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.redirect == nil {
		return nil
	}
	r := *f.redirect
	return &r
}

// Difference returns the repositories in all whose id is not in linked,
// preserving the order of all.
func Difference(all, linked []domain.Repository) []domain.Repository {
	skip := make(map[int64]struct{}, len(linked))
	for _, r := range linked {
		skip[r.ID] = struct{}{}
	}
	out := make([]domain.Repository, 0, len(all))
	for _, r := range all {
		if _, ok := skip[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// Filter returns the repositories whose name or URL contains term,
// case-insensitively. Repositories without a URL match on name only.
func Filter(repos []domain.Repository, term string) []domain.Repository {
	term = strings.ToLower(term)
	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		if term == "" ||
			strings.Contains(strings.ToLower(r.Name), term) ||
			strings.Contains(strings.ToLower(r.DisplayURL()), term) {
			out = append(out, r)
		}
	}
	return out
}

func containsID(repos []domain.Repository, id int64) bool {
	for _, r := range repos {
		if r.ID == id {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
