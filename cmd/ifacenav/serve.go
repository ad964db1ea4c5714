package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/0muji4/ifacenav/internal/agent"
	"github.com/0muji4/ifacenav/internal/app"
	"github.com/0muji4/ifacenav/internal/editor"
	"github.com/0muji4/ifacenav/internal/watch"
	"github.com/0muji4/ifacenav/internal/workspace"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Serve code lenses and navigation commands over stdio",
	Long: `Run as a language server for an editor. Interface methods get a
"Go to Implementation" lens and implementations a "Go to Interface" lens;
activating one runs the navigation command and moves the editor to the target.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h := editor.NewHandler(application.ProviderFactory(), version, application.Logger, application.NavOptions()...)
		return h.RunStdio()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reprint navigation points as Go files change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := application.Logger

		root, err := workspaceRoot()
		if err != nil {
			return err
		}
		p, n, err := openNavigator(ctx, root)
		if err != nil {
			return err
		}
		defer app.Close(p, logger)

		w := watch.New(root, application.Config.Watch.Include, application.Debounce(), logger)
		logger.Infow("watching", "root", root, "debounce", application.Debounce())

		out := cmd.OutOrStdout()
		return w.Run(ctx, func(ctx context.Context, files []string) {
			results, err := collectLenses(ctx, n, files)
			if err != nil {
				logger.Warnw("failed to compute lenses", "error", err)
				return
			}
			fmt.Fprintf(out, "--- %s (%d files)\n", time.Now().Format("15:04:05"), len(files))
			if err := printLenses(out, root, results, lensesJSON); err != nil {
				logger.Warnw("failed to print lenses", "error", err)
			}
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a navigation question in natural language",
	Long: `Answer a question such as "which types implement store.Repo?" with Gemini,
which looks things up through the same navigation as the other commands.
Requires GEMINI_API_KEY.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return errors.New("GEMINI_API_KEY is required")
		}

		root, err := workspaceRoot()
		if err != nil {
			return err
		}
		p, _, err := openNavigator(ctx, root)
		if err != nil {
			return err
		}
		defer app.Close(p, application.Logger)

		cfg := application.Config.Agent
		bot, err := agent.NewGemini(ctx, apiKey, root, p,
			workspace.NewFSReader(root), workspace.NewGitDiff(root),
			agent.WithModel(cfg.Model),
			agent.WithSystemPrompt(cfg.SystemPrompt),
			agent.WithLogger(application.Logger.Named("agent")),
			agent.WithNavOptions(application.NavOptions()...),
		)
		if err != nil {
			return err
		}

		answer, err := bot.Run(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
		return err
	},
}

func init() {
	watchCmd.Flags().BoolVar(&lensesJSON, "json", false, "Print JSON")
}
