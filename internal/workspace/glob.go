package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
)

// DefaultInclude matches every Go source file.
var DefaultInclude = []string{"**/*.go"}

// Match reports whether the root-relative, slash-separated path rel matches
// any of the patterns.
func Match(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// GoFiles expands patterns below root into absolute paths of Go sources.
// Test files, vendor and testdata are skipped.
func GoFiles(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultInclude
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Newf("invalid glob pattern %q", p)
		}
	}

	seen := map[string]bool{}
	fsys := os.DirFS(root)
	for _, p := range patterns {
		matches, err := doublestar.Glob(fsys, p)
		if err != nil {
			return nil, errors.Wrapf(err, "glob %s", p)
		}
		for _, m := range matches {
			if IsSource(m) {
				seen[m] = true
			}
		}
	}

	files := make([]string, 0, len(seen))
	for m := range seen {
		files = append(files, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(files)
	return files, nil
}

// IsSource reports whether a slash-separated path names a non-test Go file
// outside vendor and testdata.
func IsSource(rel string) bool {
	if !strings.HasSuffix(rel, ".go") || strings.HasSuffix(rel, "_test.go") {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if part == "vendor" || part == "testdata" || (strings.HasPrefix(part, ".") && part != "." && part != "..") {
			return false
		}
	}
	return true
}
