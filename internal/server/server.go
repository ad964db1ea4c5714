package server

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	ToolLenses          = "document_lenses"
	ToolImplementations = "find_implementations"
	ToolInterface       = "find_interface"
)

// New builds the MCP server and registers the navigation tools.
// Protocol conversion lives here; resolution is delegated to the handler.
func New(handler *NavHandler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"ifacenav",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(logCalls(handler.logger)),
	)

	projectPath := mcp.WithString("project_path",
		mcp.Required(),
		mcp.Description("Absolute path of the Go module or workspace root"),
	)
	file := mcp.WithString("file",
		mcp.Required(),
		mcp.Description("Go source file, absolute or relative to project_path"),
	)
	line := mcp.WithNumber("line",
		mcp.Required(),
		mcp.Min(1),
		mcp.Description("1-based line of the method name"),
	)
	column := mcp.WithNumber("column",
		mcp.Min(1),
		mcp.DefaultNumber(1),
		mcp.Description("1-based column of the method name"),
	)
	pick := mcp.WithNumber("pick",
		mcp.Min(1),
		mcp.Description("1-based candidate to choose when several match. Omit to list the candidates."),
	)

	s.AddTool(mcp.NewTool(ToolLenses,
		mcp.WithDescription("Lists the navigation points of a Go file: interface methods that can jump to their implementations and functions or methods that can jump to the interface they satisfy."),
		mcp.WithReadOnlyHintAnnotation(true),
		projectPath, file,
	), handler.Lenses)

	s.AddTool(mcp.NewTool(ToolImplementations,
		mcp.WithDescription("Finds the implementations of the interface method declared at file:line:column."),
		mcp.WithReadOnlyHintAnnotation(true),
		projectPath, file, line, column, pick,
	), handler.Implementations)

	s.AddTool(mcp.NewTool(ToolInterface,
		mcp.WithDescription("Finds the interface method that the implementation named method, declared around file:line, satisfies."),
		mcp.WithReadOnlyHintAnnotation(true),
		projectPath, file,
		mcp.WithString("method",
			mcp.Required(),
			mcp.Description("Bare method name, e.g. Save"),
		),
		line, column, pick,
	), handler.Interface)

	return s
}

func logCalls(logger *zap.SugaredLogger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			res, err := next(ctx, req)
			logger.Infow("tool call",
				"tool", req.Params.Name,
				"duration", time.Since(start),
				"is_error", res != nil && res.IsError,
				"error", err,
			)
			return res, err
		}
	}
}
