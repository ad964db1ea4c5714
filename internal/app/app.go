// Package app wires configuration, logging and the language intelligence
// provider for the ifacenav binaries.
package app

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/0muji4/ifacenav/internal/config"
	"github.com/0muji4/ifacenav/internal/logging"
	"github.com/0muji4/ifacenav/internal/lsp"
	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

type App struct {
	Config *config.Config
	Logger *zap.SugaredLogger
}

// New loads the config file (empty path for defaults) and builds the logger.
// jsonLog forces JSON output; any verbosity switches to debug level.
func New(configPath string, jsonLog bool, verbosity int) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbosity > 0 {
		level = "debug"
	}
	logger, err := logging.New(jsonLog || cfg.Log.JSON, level)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	return &App{Config: cfg, Logger: logger}, nil
}

// ProviderFactory opens gopls or the offline AST provider, per provider.kind.
func (a *App) ProviderFactory() nav.ProviderFactory {
	return func(ctx context.Context, root string) (nav.Provider, error) {
		if a.Config.Provider.Kind == config.ProviderAST {
			a.Logger.Debugw("using offline AST provider", "root", root)
			return symbol.NewASTResolver(root), nil
		}

		c, err := lsp.NewClient(ctx, root,
			lsp.WithGopls(a.Config.Provider.GoplsPath, a.Config.Provider.GoplsArgs...),
			lsp.WithLogger(a.Logger.Named("gopls")),
		)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// NavOptions applies the configured lens titles and logger.
func (a *App) NavOptions() []nav.Option {
	return []nav.Option{
		nav.WithLogger(a.Logger),
		nav.WithTitles(a.Config.Lens.ImplementationTitle, a.Config.Lens.InterfaceTitle),
	}
}

func (a *App) Debounce() time.Duration {
	return time.Duration(a.Config.Watch.DebounceMS) * time.Millisecond
}

// Close releases a provider when it holds resources.
func Close(p nav.Provider, logger *zap.SugaredLogger) {
	c, ok := p.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warnw("failed to close provider", "error", err)
	}
}

// Sync flushes buffered log entries.
func (a *App) Sync() {
	_ = a.Logger.Sync()
}
