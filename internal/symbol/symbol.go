package symbol

// Position is a zero-based line/character offset in a text document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

// Range is a span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether pos lies inside r, both ends inclusive.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

// Location is a range inside a file identified by URI.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// Kind follows the LSP SymbolKind numbering so that provider results need no mapping.
type Kind int

const (
	KindFile          Kind = 1
	KindModule        Kind = 2
	KindNamespace     Kind = 3
	KindPackage       Kind = 4
	KindClass         Kind = 5
	KindMethod        Kind = 6
	KindProperty      Kind = 7
	KindField         Kind = 8
	KindConstructor   Kind = 9
	KindEnum          Kind = 10
	KindInterface     Kind = 11
	KindFunction      Kind = 12
	KindVariable      Kind = 13
	KindConstant      Kind = 14
	KindString        Kind = 15
	KindNumber        Kind = 16
	KindBoolean       Kind = 17
	KindArray         Kind = 18
	KindObject        Kind = 19
	KindKey           Kind = 20
	KindNull          Kind = 21
	KindEnumMember    Kind = 22
	KindStruct        Kind = 23
	KindEvent         Kind = 24
	KindOperator      Kind = 25
	KindTypeParameter Kind = 26
)

func (k Kind) String() string {
	switch k {
	case KindMethod:
		return "Method"
	case KindInterface:
		return "Interface"
	case KindFunction:
		return "Function"
	case KindStruct:
		return "Struct"
	case KindField:
		return "Field"
	case KindClass:
		return "Class"
	case KindVariable:
		return "Variable"
	case KindConstant:
		return "Constant"
	default:
		return "Other"
	}
}

// Symbol is one node of a document outline.
// Name may be receiver-decorated, e.g. "(*Service).GetUser".
type Symbol struct {
	Name           string   `json:"name"`
	Detail         string   `json:"detail,omitempty"`
	Kind           Kind     `json:"kind"`
	Range          Range    `json:"range"`
	SelectionRange Range    `json:"selectionRange"`
	Children       []Symbol `json:"children,omitempty"`
	ContainerName  string   `json:"containerName,omitempty"`
}

// WorkspaceSymbol is a flat result of a workspace-wide symbol search.
type WorkspaceSymbol struct {
	Name          string   `json:"name"`
	Kind          Kind     `json:"kind"`
	ContainerName string   `json:"containerName,omitempty"`
	Location      Location `json:"location"`
}
