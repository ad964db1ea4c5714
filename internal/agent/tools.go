package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

const (
	toolFindSymbol      = "find-symbol"
	toolLenses          = "document-lenses"
	toolImplementations = "find-implementations"
	toolInterface       = "find-interface"
	toolReadFile        = "read-file"
	toolChangedFiles    = "changed-files"
)

func declarations() []*genai.FunctionDeclaration {
	filePath := &genai.Schema{Type: genai.TypeString, Description: "File path relative to the project root"}
	line := &genai.Schema{Type: genai.TypeInteger, Description: "1-based line number"}
	character := &genai.Schema{Type: genai.TypeInteger, Description: "1-based column"}
	pick := &genai.Schema{Type: genai.TypeInteger, Description: "1-based candidate to choose when several match. Omit to list them."}

	return []*genai.FunctionDeclaration{
		{
			Name:        toolFindSymbol,
			Description: "Finds declarations by name (functions, methods, types, interface methods) and returns their locations. Use it first when you do not know where a symbol lives.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name": {Type: genai.TypeString, Description: "Symbol name, e.g. Save or SqlRepo"},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        toolLenses,
			Description: "Lists the interface methods and the functions or methods of a Go file with their positions.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"file_path": filePath},
				Required:   []string{"file_path"},
			},
		},
		{
			Name:        toolImplementations,
			Description: "Finds the implementations of the interface method whose name is at file_path:line:character.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"file_path": filePath,
					"line":      line,
					"character": character,
					"pick":      pick,
				},
				Required: []string{"file_path", "line", "character"},
			},
		},
		{
			Name:        toolInterface,
			Description: "Finds the interface method satisfied by the function or method called method declared around file_path:line.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"file_path": filePath,
					"method":    {Type: genai.TypeString, Description: "Bare method name, e.g. Save"},
					"line":      line,
					"character": character,
					"pick":      pick,
				},
				Required: []string{"file_path", "method", "line"},
			},
		},
		{
			Name:        toolReadFile,
			Description: "Reads a file, or a range of its lines. Use it to show the code at a location you found.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"file_path": filePath,
					"from":      {Type: genai.TypeInteger, Description: "First line, 1-based"},
					"to":        {Type: genai.TypeInteger, Description: "Last line, inclusive"},
				},
				Required: []string{"file_path"},
			},
		},
		{
			Name:        toolChangedFiles,
			Description: "Lists files changed against git HEAD.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{},
			},
		},
	}
}

func (a *Agent) execute(ctx context.Context, call *genai.FunctionCall) (string, error) {
	args := call.Args
	switch call.Name {
	case toolFindSymbol:
		return a.findSymbol(ctx, stringArg(args, "name"))

	case toolLenses:
		uri, err := a.uri(stringArg(args, "file_path"))
		if err != nil {
			return "", err
		}
		return a.lenses(ctx, uri), nil

	case toolImplementations:
		uri, err := a.uri(stringArg(args, "file_path"))
		if err != nil {
			return "", err
		}
		report := &nav.Report{Active: uri, Pick: intArg(args, "pick", 0)}
		out := a.navigator.ResolveImplementation(ctx, report, uri, position(args))
		return a.relative(report.Render(out)), nil

	case toolInterface:
		uri, err := a.uri(stringArg(args, "file_path"))
		if err != nil {
			return "", err
		}
		report := &nav.Report{Active: uri, Pick: intArg(args, "pick", 0)}
		out := a.navigator.ResolveInterface(ctx, report, stringArg(args, "method"), position(args))
		return a.relative(report.Render(out)), nil

	case toolReadFile:
		path := stringArg(args, "file_path")
		from, to := intArg(args, "from", 0), intArg(args, "to", 0)
		if from > 0 || to > 0 {
			return a.reader.ReadLines(path, from, to)
		}
		return a.reader.ReadFile(path)

	case toolChangedFiles:
		files, err := a.changes.ChangedFiles(ctx)
		if err != nil {
			return "", err
		}
		if len(files) == 0 {
			return "No changes detected (working tree is clean).", nil
		}
		for i, f := range files {
			files[i] = a.rel(f)
		}
		return strings.Join(files, "\n"), nil
	}
	return "", errors.Newf("unknown tool %q", call.Name)
}

func (a *Agent) findSymbol(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("name is required")
	}
	hits, err := a.provider.FindWorkspaceSymbols(ctx, name)
	if err != nil {
		return "", errors.Wrapf(err, "find symbol %q", name)
	}

	var lines []string
	for _, h := range hits {
		if !strings.EqualFold(symbol.BareMethodName(h.Name), name) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s %s in %s", a.relative(nav.FormatLocation(h.Location)), h.Kind, h.Name, h.ContainerName))
	}
	if len(lines) == 0 {
		return fmt.Sprintf("Symbol %q not found.", name), nil
	}
	return fmt.Sprintf("Found symbol %q at:\n%s", name, strings.Join(lines, "\n")), nil
}

func (a *Agent) lenses(ctx context.Context, uri string) string {
	affordances := a.navigator.Lenses(ctx, uri)
	if len(affordances) == 0 {
		return "No interface methods or implementations in this file."
	}
	var b strings.Builder
	for _, af := range affordances {
		kind := "interface method"
		if af.Action.Kind == nav.ResolveInterface {
			kind = "implementation of " + af.Action.MethodName
		}
		fmt.Fprintf(&b, "%d:%d %s\n", af.Anchor.Line+1, af.Anchor.Character+1, kind)
	}
	return b.String()
}

// uri resolves a project-relative path, refusing paths outside the root.
func (a *Agent) uri(path string) (string, error) {
	if path == "" {
		return "", errors.New("file_path is required")
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(a.rootPath, path)
	}
	if rel, err := filepath.Rel(a.rootPath, abs); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf("path %q is outside project root", path)
	}
	return symbol.URIFromPath(abs), nil
}

func (a *Agent) rel(path string) string {
	if r, err := filepath.Rel(a.rootPath, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}

// relative shortens absolute paths under the root in rendered output.
func (a *Agent) relative(text string) string {
	return strings.ReplaceAll(text, a.rootPath+string(filepath.Separator), "")
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg reads a JSON number argument.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return def
}

func position(args map[string]any) symbol.Position {
	line := intArg(args, "line", 1)
	char := intArg(args, "character", 1)
	return symbol.Position{Line: max(line-1, 0), Character: max(char-1, 0)}
}
