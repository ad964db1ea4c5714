package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0muji4/ifacenav/internal/app"
	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
	"github.com/0muji4/ifacenav/internal/workspace"
)

var (
	lensesChanged bool
	lensesJSON    bool
)

var lensesCmd = &cobra.Command{
	Use:   "lenses [files...]",
	Short: "Print the navigation points of Go files",
	Long: `Print one line per navigation point: interface methods that lead down to
their implementations and functions or methods that lead up to an interface.

With no files, every Go source file under --root matching watch.include is
scanned. --changed limits the scan to files changed against git HEAD.`,
	RunE: runLenses,
}

func init() {
	lensesCmd.Flags().BoolVar(&lensesChanged, "changed", false, "Only files changed against git HEAD")
	lensesCmd.Flags().BoolVar(&lensesJSON, "json", false, "Print JSON")
}

type fileLenses struct {
	File   string           `json:"file"`
	Lenses []nav.Affordance `json:"lenses"`
}

func runLenses(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := application.Logger

	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	files, err := lensTargets(ctx, root, args)
	if err != nil {
		return err
	}
	logger.Debugw("computing lenses", "root", root, "files", len(files))

	p, n, err := openNavigator(ctx, root)
	if err != nil {
		return err
	}
	defer app.Close(p, logger)

	results, err := collectLenses(ctx, n, files)
	if err != nil {
		return err
	}
	return printLenses(cmd.OutOrStdout(), root, results, lensesJSON)
}

func lensTargets(ctx context.Context, root string, args []string) ([]string, error) {
	include := application.Config.Watch.Include

	switch {
	case len(args) > 0:
		files := make([]string, 0, len(args))
		for _, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, err
			}
			files = append(files, abs)
		}
		return files, nil

	case lensesChanged:
		changed, err := workspace.NewGitDiff(root).ChangedFiles(ctx)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, f := range changed {
			rel, err := filepath.Rel(root, f)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if workspace.IsSource(rel) && workspace.Match(include, rel) {
				files = append(files, f)
			}
		}
		return files, nil
	}
	return workspace.GoFiles(root, include)
}

// collectLenses computes affordances for files concurrently, keeping their order.
func collectLenses(ctx context.Context, n *nav.Navigator, files []string) ([]fileLenses, error) {
	results := make([]fileLenses, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = fileLenses{File: f, Lenses: n.Lenses(ctx, symbol.URIFromPath(f))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printLenses(w io.Writer, root string, results []fileLenses, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		name := r.File
		if rel, err := filepath.Rel(root, r.File); err == nil {
			name = rel
		}
		for _, a := range r.Lenses {
			line := fmt.Sprintf("%s:%d:%d\t%s", name, a.Anchor.Line+1, a.Anchor.Character+1, a.Title)
			if a.Action.MethodName != "" {
				line += "\t" + a.Action.MethodName
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
