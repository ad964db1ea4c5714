package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/0muji4/ifacenav/internal/app"
	"github.com/0muji4/ifacenav/internal/nav"
)

const version = "0.1.0"

var (
	configPath string
	rootDir    string
	jsonLog    bool
	verbosity  int

	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "ifacenav",
	Short: "Navigate between Go interface methods and their implementations",
	Long: `ifacenav links each Go interface method to its implementations and each
method back to the interface it satisfies.

Available commands:
  lsp     - Serve code lenses and navigation commands to an editor over stdio
  lenses  - Print the navigation points of Go files
  impl    - Resolve the implementations of an interface method
  iface   - Resolve the interface method an implementation satisfies
  watch   - Reprint navigation points as files change
  ask     - Ask a navigation question in natural language (Gemini)

Examples:
  ifacenav lenses ./internal/store/repo.go
  ifacenav lenses --changed
  ifacenav impl internal/store/repo.go:12:2
  ifacenav iface Save internal/store/sql.go:40 --pick 1`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(configPath, jsonLog, verbosity)
		if err != nil {
			return err
		}
		application = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if application != nil {
			application.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an ifacenav YAML config file")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Workspace root")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Write logs as JSON")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Enable debug logging")

	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(lensesCmd)
	rootCmd.AddCommand(implCmd)
	rootCmd.AddCommand(ifaceCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(askCmd)
}

// openNavigator opens the configured provider for root.
// The caller closes the provider with app.Close.
func openNavigator(ctx context.Context, root string) (nav.Provider, *nav.Navigator, error) {
	p, err := application.ProviderFactory()(ctx, root)
	if err != nil {
		return nil, nil, err
	}
	return p, nav.New(p, application.NavOptions()...), nil
}

func workspaceRoot() (string, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", errors.Wrap(err, "workspace root")
	}
	if !info.IsDir() {
		return "", errors.Newf("workspace root %s is not a directory", root)
	}
	return root, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
