package workspace

import "context"

// FileReader defines operations for reading source files.
type FileReader interface {
	ReadFile(path string) (string, error)
	// ReadLines returns lines from..to, 1-based and inclusive.
	ReadLines(path string, from, to int) (string, error)
}

// ChangeLister lists files with uncommitted changes.
type ChangeLister interface {
	ChangedFiles(ctx context.Context) ([]string, error)
}
