package lsp

import (
	"context"

	"github.com/0muji4/ifacenav/internal/symbol"
)

// CodeAnalyzer is the language intelligence surface gopls offers.
type CodeAnalyzer interface {
	DocumentOutline(ctx context.Context, uri string) ([]symbol.Symbol, error)
	FindImplementations(ctx context.Context, uri string, pos symbol.Position) ([]symbol.Location, error)
	FindTypeDefinition(ctx context.Context, uri string, pos symbol.Position) ([]symbol.Location, error)
	FindDefinitions(ctx context.Context, uri string, pos symbol.Position) ([]symbol.Location, error)
	FindWorkspaceSymbols(ctx context.Context, query string) ([]symbol.WorkspaceSymbol, error)

	// Document sync, so that unsaved buffers are analysed.
	DidOpen(ctx context.Context, uri, text string, version int) error
	DidChange(ctx context.Context, uri, text string, version int) error
	DidClose(ctx context.Context, uri string) error

	Close() error
}
