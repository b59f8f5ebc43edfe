package gitcli

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRepoRoot walks up from startPath looking for a .git directory,
// matching original_source/src/github/repo.rs:find_git_repo.
func FindRepoRoot(startPath string) (string, error) {
	current := startPath
	if info, err := os.Stat(current); err == nil && !info.IsDir() {
		current = filepath.Dir(current)
	}

	for {
		gitDir := filepath.Join(current, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", fmt.Errorf("gitcli: could not find git repository for %s", startPath)
}
