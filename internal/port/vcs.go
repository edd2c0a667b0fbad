package port

import (
	"context"
	"time"
)

// VCSProvider abstracts the git operations behind the repository sync action.
type VCSProvider interface {
	// Clone clones url at branch into dest.
	Clone(ctx context.Context, url, branch, dest string) error

	// Pull fast-forwards an existing local repository.
	Pull(ctx context.Context, repoPath string) error

	// IsRepository reports whether path is the root of a git work tree.
	IsRepository(ctx context.Context, path string) bool

	// CurrentBranch returns the checked-out branch name.
	CurrentBranch(ctx context.Context, repoPath string) (string, error)

	// LastCommitTime returns the committer date of HEAD.
	LastCommitTime(ctx context.Context, repoPath string) (time.Time, error)
}
