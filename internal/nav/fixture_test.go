package nav_test

import (
	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/nav/navtest"
	"github.com/0muji4/ifacenav/internal/symbol"
)

const (
	serviceURI = "file:///work/store/service.go"
	sqlURI     = "file:///work/store/sql.go"
	memURI     = "file:///work/store/memory.go"
	repoURI    = "file:///work/store/repo.go"
)

func pos(line, char int) symbol.Position {
	return symbol.Position{Line: line, Character: char}
}

func rng(startLine, startChar, endLine, endChar int) symbol.Range {
	return symbol.Range{Start: pos(startLine, startChar), End: pos(endLine, endChar)}
}

func loc(uri string, r symbol.Range) symbol.Location {
	return symbol.Location{URI: uri, Range: r}
}

func method(name string, r, sel symbol.Range) symbol.Symbol {
	return symbol.Symbol{Name: name, Kind: symbol.KindMethod, Range: r, SelectionRange: sel}
}

func iface(name string, r, sel symbol.Range, methods ...symbol.Symbol) symbol.Symbol {
	return symbol.Symbol{Name: name, Kind: symbol.KindInterface, Range: r, SelectionRange: sel, Children: methods}
}

// serviceOutline is
//
//	1 type Repo interface {
//	2 	Save(id string) error
//	3 }
//	...
//	10 func (s *SqlRepo) Save(id string) error {
var (
	repoSaveSel = rng(2, 1, 2, 5)
	repoRange   = rng(1, 0, 3, 1)
	sqlSaveSel  = rng(10, 18, 10, 22)
)

func serviceOutline() []symbol.Symbol {
	return []symbol.Symbol{
		iface("Repo", repoRange, rng(1, 5, 1, 9),
			method("Save", rng(2, 1, 2, 22), repoSaveSel),
		),
		{Name: "SqlRepo", Kind: symbol.KindStruct, Range: rng(5, 0, 7, 1), SelectionRange: rng(5, 5, 5, 12)},
		method("(s *SqlRepo).Save", rng(10, 0, 12, 1), sqlSaveSel),
	}
}

// sqlOutline holds an implementation whose interface lives in repo.go.
func sqlOutline() []symbol.Symbol {
	return []symbol.Symbol{
		{Name: "SqlRepo", Kind: symbol.KindStruct, Range: rng(2, 0, 4, 1), SelectionRange: rng(2, 5, 2, 12)},
		method("(*SqlRepo).Load", rng(6, 0, 8, 1), rng(6, 18, 6, 22)),
	}
}

func repoOutline() []symbol.Symbol {
	return []symbol.Symbol{
		iface("Loader", rng(4, 0, 7, 1), rng(4, 5, 4, 11),
			method("Load", rng(5, 1, 5, 30), rng(5, 1, 5, 5)),
			method("Close", rng(6, 1, 6, 14), rng(6, 1, 6, 6)),
		),
	}
}

func newNavigator(p nav.Provider) *nav.Navigator {
	return nav.New(p)
}

func newProvider() *navtest.Provider {
	return &navtest.Provider{
		Outlines: map[string][]symbol.Symbol{
			serviceURI: serviceOutline(),
			sqlURI:     sqlOutline(),
			repoURI:    repoOutline(),
		},
	}
}
