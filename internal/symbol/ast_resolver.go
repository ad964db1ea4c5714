package symbol

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// ASTResolver builds gopls-shaped outlines and workspace symbols from go/ast.
// It has no type information, so the precise lookups always come back empty.
type ASTResolver struct {
	rootPath string
}

func NewASTResolver(rootPath string) *ASTResolver {
	return &ASTResolver{rootPath: rootPath}
}

// Outline parses one file and returns its symbol tree.
func (r *ASTResolver) Outline(path string) ([]Symbol, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return outlineOf(fset, f), nil
}

func (r *ASTResolver) DocumentOutline(_ context.Context, uri string) ([]Symbol, error) {
	return r.Outline(PathFromURI(uri))
}

func (r *ASTResolver) FindImplementations(context.Context, string, Position) ([]Location, error) {
	return nil, nil
}

func (r *ASTResolver) FindTypeDefinition(context.Context, string, Position) ([]Location, error) {
	return nil, nil
}

func (r *ASTResolver) FindDefinitions(context.Context, string, Position) ([]Location, error) {
	return nil, nil
}

func (r *ASTResolver) FindWorkspaceSymbols(_ context.Context, query string) ([]WorkspaceSymbol, error) {
	return r.WorkspaceSymbols(query)
}

// WorkspaceSymbols returns every declaration under the root whose bare name
// contains query (case-insensitive).
func (r *ASTResolver) WorkspaceSymbols(query string) ([]WorkspaceSymbol, error) {
	var results []WorkspaceSymbol
	needle := strings.ToLower(query)

	err := filepath.WalkDir(r.rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == r.rootPath {
				return errors.Wrapf(err, "read workspace root %s", path)
			}
			return nil
		}

		if d.IsDir() {
			base := d.Name()
			if base == "vendor" || base == ".git" || base == "node_modules" || base == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil
		}

		uri := URIFromPath(path)
		pkg := f.Name.Name
		Walk(outlineOf(fset, f), func(parent *Symbol, s Symbol) bool {
			if strings.Contains(strings.ToLower(BareMethodName(s.Name)), needle) {
				container := pkg
				switch {
				case s.ContainerName != "":
					container = pkg + "." + s.ContainerName
				case parent != nil:
					container = pkg + "." + parent.Name
				}
				results = append(results, WorkspaceSymbol{
					Name:          s.Name,
					Kind:          s.Kind,
					ContainerName: container,
					Location:      Location{URI: uri, Range: s.SelectionRange},
				})
			}
			return true
		})
		return nil
	})

	return results, err
}

func outlineOf(fset *token.FileSet, f *ast.File) []Symbol {
	var out []Symbol
	for _, decl := range f.Decls {
		switch node := decl.(type) {
		case *ast.FuncDecl:
			out = append(out, funcSymbol(fset, node))
		case *ast.GenDecl:
			for _, spec := range node.Specs {
				out = append(out, specSymbols(fset, node, spec)...)
			}
		}
	}
	return out
}

func funcSymbol(fset *token.FileSet, fn *ast.FuncDecl) Symbol {
	s := Symbol{
		Name:           fn.Name.Name,
		Kind:           KindFunction,
		Range:          rangeOf(fset, fn.Pos(), fn.End()),
		SelectionRange: rangeOf(fset, fn.Name.Pos(), fn.Name.End()),
	}
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		recv := receiverName(fn.Recv.List[0].Type)
		s.Name = "(" + recv + ")." + fn.Name.Name
		s.Kind = KindMethod
		s.ContainerName = strings.TrimPrefix(recv, "*")
	}
	return s
}

func specSymbols(fset *token.FileSet, gen *ast.GenDecl, spec ast.Spec) []Symbol {
	switch sp := spec.(type) {
	case *ast.TypeSpec:
		start, end := sp.Pos(), sp.End()
		// an unparenthesised declaration starts at the "type" keyword
		if !gen.Lparen.IsValid() {
			start, end = gen.Pos(), gen.End()
		}
		s := Symbol{
			Name:           sp.Name.Name,
			Kind:           KindClass,
			Range:          rangeOf(fset, start, end),
			SelectionRange: rangeOf(fset, sp.Name.Pos(), sp.Name.End()),
		}
		switch t := sp.Type.(type) {
		case *ast.InterfaceType:
			s.Kind = KindInterface
			s.Children = fieldSymbols(fset, t.Methods, KindMethod)
		case *ast.StructType:
			s.Kind = KindStruct
			s.Children = fieldSymbols(fset, t.Fields, KindField)
		}
		return []Symbol{s}
	case *ast.ValueSpec:
		kind := KindVariable
		if gen.Tok == token.CONST {
			kind = KindConstant
		}
		var out []Symbol
		for _, ident := range sp.Names {
			out = append(out, Symbol{
				Name:           ident.Name,
				Kind:           kind,
				Range:          rangeOf(fset, sp.Pos(), sp.End()),
				SelectionRange: rangeOf(fset, ident.Pos(), ident.End()),
			})
		}
		return out
	}
	return nil
}

func fieldSymbols(fset *token.FileSet, fields *ast.FieldList, kind Kind) []Symbol {
	if fields == nil {
		return nil
	}
	var out []Symbol
	for _, field := range fields.List {
		// embedded members have no names and are not navigated
		for _, ident := range field.Names {
			out = append(out, Symbol{
				Name:           ident.Name,
				Kind:           kind,
				Range:          rangeOf(fset, field.Pos(), field.End()),
				SelectionRange: rangeOf(fset, ident.Pos(), ident.End()),
			})
		}
	}
	return out
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return "*" + receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.ParenExpr:
		return receiverName(t.X)
	}
	return "?"
}

// rangeOf converts token positions to zero-based line/character offsets.
// Characters are byte columns, which matches UTF-16 for ASCII source.
func rangeOf(fset *token.FileSet, from, to token.Pos) Range {
	start := fset.Position(from)
	end := fset.Position(to)
	return Range{
		Start: Position{Line: start.Line - 1, Character: start.Column - 1},
		End:   Position{Line: end.Line - 1, Character: end.Column - 1},
	}
}
