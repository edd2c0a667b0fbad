package vcs

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/gource-tools/gource-tools/internal/port"
)

// GitProvider implements port.VCSProvider using the git CLI.
type GitProvider struct {
	binary string
}

var _ port.VCSProvider = (*GitProvider)(nil)

// NewGitProvider creates a new Git VCS provider.
func NewGitProvider() *GitProvider {
	return &GitProvider{binary: "git"}
}

// Clone clones url into dest, checking out branch when given.
func (g *GitProvider) Clone(ctx context.Context, url, branch, dest string) error {
	args := []string{"clone"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, dest)
	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("git clone %s: %w", redact(url), err)
	}
	return nil
}

// Pull fetches the latest changes for an existing repository.
func (g *GitProvider) Pull(ctx context.Context, repoPath string) error {
	if _, err := g.run(ctx, "-C", repoPath, "pull", "--ff-only"); err != nil {
		return fmt.Errorf("git pull %s: %w", repoPath, err)
	}
	return nil
}

// IsRepository reports whether path is the top level of a work tree.
func (g *GitProvider) IsRepository(ctx context.Context, path string) bool {
	out, err := g.run(ctx, "-C", path, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// CurrentBranch returns the checked-out branch.
func (g *GitProvider) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	out, err := g.run(ctx, "-C", repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return out, nil
}

// LastCommitTime returns the committer date of HEAD.
func (g *GitProvider) LastCommitTime(ctx context.Context, repoPath string) (time.Time, error) {
	out, err := g.run(ctx, "-C", repoPath, "log", "-1", "--format=%cI")
	if err != nil {
		return time.Time{}, fmt.Errorf("git log: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, out)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse commit time %q: %w", out, err)
	}
	return ts, nil
}

func (g *GitProvider) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.binary, args...)
	output, err := cmd.CombinedOutput()
	out := strings.TrimSpace(string(output))
	if err != nil {
		slog.Debug("git command failed", "args", strings.Join(args, " "), "output", out)
		if out != "" {
			return "", fmt.Errorf("%w: %s", err, out)
		}
		return "", err
	}
	return out, nil
}

// redact hides credentials embedded in a clone URL.
func redact(url string) string {
	at := strings.Index(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}
