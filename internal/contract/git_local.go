package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ncolesummers/ai-code-metrics/schema"
)

// Field and record separators used in git log formats. Neither byte can appear in
// author names or in well-formed commit messages.
const (
	RecordSeparator = "\x1e"
	FieldSeparator  = "\x1f"
)

// commitLogFormat emits hash, author, email, committer date and raw body per commit.
// The trailing field separator keeps the numstat block in its own field.
const commitLogFormat = "--format=%x1e%H%x1f%an%x1f%ae%x1f%cI%x1f%B%x1f"

// messageLogFormat emits only the raw body per commit.
const messageLogFormat = "--format=%x1e%B"

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s. If this is not a Git repository, verify the path or run 'git init'", repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoHash implements the GitClient interface.
func (c *LocalGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetCommitLog implements the GitClient interface.
func (c *LocalGitClient) GetCommitLog(ctx context.Context, repoPath string, filter schema.CommitFilter) ([]byte, error) {
	return c.log(ctx, repoPath, CommitLogArgs(filter)...)
}

// GetMessageLog implements the GitClient interface.
func (c *LocalGitClient) GetMessageLog(ctx context.Context, repoPath string) ([]byte, error) {
	return c.log(ctx, repoPath, MessageLogArgs()...)
}

// log runs a git log command. A repository without commits has an empty history
// rather than a failing one.
func (c *LocalGitClient) log(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	out, err := c.Run(ctx, repoPath, args...)
	if err != nil && c.isUnborn(ctx, repoPath) {
		return nil, nil
	}
	return out, err
}

// isUnborn reports whether repoPath is a repository whose HEAD has no commit yet.
func (c *LocalGitClient) isUnborn(ctx context.Context, repoPath string) bool {
	if _, err := c.Run(ctx, repoPath, "rev-parse", "--git-dir"); err != nil {
		return false
	}
	_, err := c.Run(ctx, repoPath, "rev-parse", "--verify", "--quiet", "HEAD")
	return err != nil
}

// CommitLogArgs builds the git log arguments for a filter.
// Merge commits are diffed against their first parent, so their stats cover
// what the merge brought into the branch. Git compares commit dates at second resolution with inclusive bounds, so the
// exclusive Until is turned into the last whole second before it.
func CommitLogArgs(filter schema.CommitFilter) []string {
	args := []string{
		"log",
		"--numstat",
		"--diff-merges=first-parent",
		commitLogFormat,
	}
	if !filter.Since.IsZero() {
		args = append(args, "--since="+filter.Since.UTC().Format(DateTimeFormat))
	}
	if !filter.Until.IsZero() {
		args = append(args, "--until="+lastSecondBefore(filter.Until).UTC().Format(DateTimeFormat))
	}
	if filter.MaxCount > 0 {
		args = append(args, "-n", strconv.Itoa(filter.MaxCount))
	}
	return args
}

func lastSecondBefore(t time.Time) time.Time {
	if t.Nanosecond() > 0 {
		return t.Truncate(time.Second)
	}
	return t.Add(-time.Second)
}

// MessageLogArgs returns the git log arguments used by GetMessageLog.
func MessageLogArgs() []string {
	return []string{"log", messageLogFormat}
}
