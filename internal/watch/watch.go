package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/0muji4/ifacenav/internal/workspace"
)

// Watcher reports batches of changed Go files below a root.
type Watcher struct {
	root     string
	include  []string
	debounce time.Duration
	logger   *zap.SugaredLogger
}

func New(root string, include []string, debounce time.Duration, logger *zap.SugaredLogger) *Watcher {
	if len(include) == 0 {
		include = workspace.DefaultInclude
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Watcher{root: filepath.Clean(root), include: include, debounce: debounce, logger: logger}
}

// Run watches until ctx is done. onChange receives the absolute paths
// written or created since the last call, once the tree has been quiet for
// the debounce interval. onChange runs on the watching goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, files []string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return errors.Wrapf(err, "failed to watch %s", w.root)
	}

	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handle(fw, ev, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("file watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			sort.Strings(files)
			clear(pending)

			w.logger.Debugw("processing debounced changes", "files", len(files))
			onChange(ctx, files)
		}
	}
}

// handle records a relevant event and reports whether it was one.
func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]bool) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(fw, ev.Name); err != nil {
				w.logger.Warnw("failed to watch new directory", "path", ev.Name, "error", err)
			}
			return false
		}
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if !workspace.IsSource(rel) || !workspace.Match(w.include, rel) {
		return false
	}
	pending[ev.Name] = true
	return true
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != dir && (name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
