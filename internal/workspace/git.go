package workspace

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

var _ ChangeLister = (*GitDiff)(nil)

// GitDiff reads changes from a local git repository.
type GitDiff struct {
	rootPath string
}

func NewGitDiff(rootPath string) *GitDiff {
	return &GitDiff{rootPath: rootPath}
}

// ChangedFiles returns absolute paths of files changed against HEAD.
func (g *GitDiff) ChangedFiles(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", "HEAD")
	cmd.Dir = g.rootPath

	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, "git diff --name-only HEAD")
	}

	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, filepath.Join(g.rootPath, filepath.FromSlash(line)))
		}
	}
	return files, nil
}
