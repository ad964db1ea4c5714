package server

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

// NavHandler turns MCP tool calls into navigation resolutions.
// Providers are opened once per project root and reused across calls.
type NavHandler struct {
	factory nav.ProviderFactory
	navOpts []nav.Option
	logger  *zap.SugaredLogger

	mu        sync.Mutex
	providers map[string]nav.Provider
}

func NewNavHandler(factory nav.ProviderFactory, logger *zap.SugaredLogger, navOpts ...nav.Option) *NavHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &NavHandler{
		factory:   factory,
		navOpts:   append([]nav.Option{nav.WithLogger(logger)}, navOpts...),
		logger:    logger,
		providers: map[string]nav.Provider{},
	}
}

// resolution is the structured result of find_implementations and find_interface.
type resolution struct {
	Outcome nav.Outcome `json:"outcome"`
	Report  *nav.Report `json:"report"`
}

// Lenses handles document_lenses.
func (h *NavHandler) Lenses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, uri, errResult := h.document(req)
	if errResult != nil {
		return errResult, nil
	}
	n, err := h.navigator(ctx, root)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start language intelligence: %v", err)), nil
	}

	affordances := n.Lenses(ctx, uri)
	var b strings.Builder
	if len(affordances) == 0 {
		b.WriteString("no interface methods or implementations in this file\n")
	}
	for _, a := range affordances {
		fmt.Fprintf(&b, "%d:%d %s", a.Anchor.Line+1, a.Anchor.Character+1, a.Title)
		if a.Action.MethodName != "" {
			fmt.Fprintf(&b, " (%s)", a.Action.MethodName)
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultStructured(affordances, b.String()), nil
}

// Implementations handles find_implementations.
func (h *NavHandler) Implementations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, uri, errResult := h.document(req)
	if errResult != nil {
		return errResult, nil
	}
	pos, errResult := position(req)
	if errResult != nil {
		return errResult, nil
	}
	n, err := h.navigator(ctx, root)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start language intelligence: %v", err)), nil
	}

	report := &nav.Report{Active: uri, Pick: req.GetInt("pick", 0)}
	out := n.ResolveImplementation(ctx, report, uri, pos)
	return result(out, report), nil
}

// Interface handles find_interface.
func (h *NavHandler) Interface(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, uri, errResult := h.document(req)
	if errResult != nil {
		return errResult, nil
	}
	method, err := req.RequireString("method")
	if err != nil {
		return mcp.NewToolResultError("method is required"), nil
	}
	pos, errResult := position(req)
	if errResult != nil {
		return errResult, nil
	}
	n, err := h.navigator(ctx, root)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start language intelligence: %v", err)), nil
	}

	report := &nav.Report{Active: uri, Pick: req.GetInt("pick", 0)}
	out := n.ResolveInterface(ctx, report, method, pos)
	return result(out, report), nil
}

// Close releases every provider opened so far.
func (h *NavHandler) Close() error {
	h.mu.Lock()
	providers := h.providers
	h.providers = map[string]nav.Provider{}
	h.mu.Unlock()

	var first error
	for root, p := range providers {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			h.logger.Warnw("failed to close provider", "root", root, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (h *NavHandler) navigator(ctx context.Context, root string) (*nav.Navigator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.providers[root]
	if !ok {
		var err error
		p, err = h.factory(ctx, root)
		if err != nil {
			return nil, err
		}
		h.providers[root] = p
		h.logger.Infow("opened provider", "root", root)
	}
	return nav.New(p, h.navOpts...), nil
}

// document resolves project_path and file to an absolute root and file URI.
func (h *NavHandler) document(req mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	rawRoot, err := req.RequireString("project_path")
	if err != nil {
		return "", "", mcp.NewToolResultError("project_path is required")
	}
	root, err := filepath.Abs(rawRoot)
	if err != nil {
		return "", "", mcp.NewToolResultError(fmt.Sprintf("invalid project_path: %v", err))
	}
	file, err := req.RequireString("file")
	if err != nil {
		return "", "", mcp.NewToolResultError("file is required")
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(root, file)
	}
	return root, symbol.URIFromPath(file), nil
}

// position reads the 1-based line and column arguments.
func position(req mcp.CallToolRequest) (symbol.Position, *mcp.CallToolResult) {
	line, err := req.RequireInt("line")
	if err != nil || line < 1 {
		return symbol.Position{}, mcp.NewToolResultError("line is required and starts at 1")
	}
	column := req.GetInt("column", 1)
	if column < 1 {
		return symbol.Position{}, mcp.NewToolResultError("column starts at 1")
	}
	return symbol.Position{Line: line - 1, Character: column - 1}, nil
}

func result(out nav.Outcome, report *nav.Report) *mcp.CallToolResult {
	res := mcp.NewToolResultStructured(resolution{Outcome: out, Report: report}, report.Render(out))
	res.IsError = out.Kind == nav.Failed
	return res
}
