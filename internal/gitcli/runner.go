// Package gitcli drives the local git subprocess for the four invocation
// profiles the analyzer needs (clone, log, blame, branch listing) and
// parses their stable, machine-oriented output formats. Grounded on the
// teacher's internal/infrastructure/git/client.go (exec.CommandContext
// usage, no shell) and original_source/src/github/{repo,commits,branches}.rs
// for the exact argument vectors and output grammars.
package gitcli

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes git subcommands. It never invokes a shell: arguments are
// passed as an argv vector to exec.CommandContext, matching the teacher's
// GitClient and the original's std::process::Command usage.
type Runner struct {
	gitPath string
}

// NewRunner resolves the git binary from PATH unless gitPath is supplied.
func NewRunner(gitPath string) (*Runner, error) {
	if gitPath == "" {
		resolved, err := exec.LookPath("git")
		if err != nil {
			return nil, fmt.Errorf("gitcli: git not found in PATH: %w", err)
		}
		gitPath = resolved
	}
	return &Runner{gitPath: gitPath}, nil
}

// Clone runs `git clone --progress <authenticatedURL> <dest>` with no
// working directory set, matching original_source/src/github/repo.rs.
func (r *Runner) Clone(ctx context.Context, authenticatedURL, dest string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.gitPath, "clone", "--progress", authenticatedURL, dest)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, &SubprocessError{Op: "clone", Output: string(out), Err: err}
	}
	return out, nil
}

// commitLogFormat mirrors original_source's
// "%H|%an|%ae|%at|%cn|%ce|%ct|%s|%p" pretty-format string exactly.
const commitLogFormat = "%H|%an|%ae|%at|%cn|%ce|%ct|%s|%p"

// Log runs `git log --pretty=format:<commitLogFormat> --numstat` in repoPath.
func (r *Runner) Log(ctx context.Context, repoPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.gitPath, "log", "--pretty=format:"+commitLogFormat, "--numstat")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return out, &SubprocessError{Op: "log", Output: string(stderrOf(err)), Err: err}
	}
	return out, nil
}

// branchFormat mirrors original_source's branch --format string exactly.
const branchFormat = "%(refname)|%(objectname)|%(subject)|%(authorname)|%(authoremail)|%(authordate:unix)|%(HEAD)"

// Branches runs `git branch -a --format=<branchFormat>` in repoPath.
func (r *Runner) Branches(ctx context.Context, repoPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.gitPath, "branch", "-a", "--format="+branchFormat)
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return out, &SubprocessError{Op: "branch", Output: string(stderrOf(err)), Err: err}
	}
	return out, nil
}

// Blame runs `git blame --line-porcelain <relativePath>` rooted at the
// repository containing absoluteFilePath, resolved by walking up for a
// .git directory as the original does in find_git_repo.
func (r *Runner) Blame(ctx context.Context, absoluteFilePath string) ([]byte, error) {
	repoRoot, err := FindRepoRoot(absoluteFilePath)
	if err != nil {
		return nil, err
	}
	relPath, err := filepath.Rel(repoRoot, absoluteFilePath)
	if err != nil {
		return nil, fmt.Errorf("gitcli: failed to make path relative: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.gitPath, "blame", "--line-porcelain", relPath)
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return out, &SubprocessError{Op: "blame", Output: string(stderrOf(err)), Err: err}
	}
	return out, nil
}

func stderrOf(err error) []byte {
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.Stderr
	}
	return nil
}

// SubprocessError wraps a failed git invocation with its captured output.
type SubprocessError struct {
	Op     string
	Output string
	Err    error
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("gitcli: git %s failed: %s: %s", e.Op, e.Err, strings.TrimSpace(e.Output))
}

func (e *SubprocessError) Unwrap() error { return e.Err }
