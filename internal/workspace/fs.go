package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

var _ FileReader = (*FSReader)(nil)

// FSReader reads files below a project root.
type FSReader struct {
	rootPath string
}

func NewFSReader(rootPath string) *FSReader {
	return &FSReader{rootPath: filepath.Clean(rootPath)}
}

func (r *FSReader) Root() string { return r.rootPath }

// Resolve turns a root-relative (or absolute) path into an absolute path
// inside the root.
func (r *FSReader) Resolve(path string) (string, error) {
	absPath := path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(r.rootPath, path)
	}
	absPath = filepath.Clean(absPath)

	rel, err := filepath.Rel(r.rootPath, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf("path %q is outside project root", path)
	}
	return absPath, nil
}

func (r *FSReader) ReadFile(path string) (string, error) {
	absPath, err := r.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	return string(data), nil
}

// ReadLines returns lines [from, to] (1-based, inclusive) of a file,
// clamped to its length.
func (r *FSReader) ReadLines(path string, from, to int) (string, error) {
	text, err := r.ReadFile(path)
	if err != nil {
		return "", err
	}
	lines := strings.Split(text, "\n")
	if from < 1 {
		from = 1
	}
	if to < from || to > len(lines) {
		to = len(lines)
	}
	if from > len(lines) {
		return "", nil
	}
	return strings.Join(lines[from-1:to], "\n"), nil
}
