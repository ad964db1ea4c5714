package nav

import (
	"context"

	"github.com/0muji4/ifacenav/internal/symbol"
)

type ActionKind int

const (
	ResolveImplementation ActionKind = iota
	ResolveInterface
)

func (k ActionKind) String() string {
	if k == ResolveInterface {
		return "interface"
	}
	return "implementation"
}

// Action is what activating an affordance runs.
//
// ResolveImplementation uses URI and Position. ResolveInterface uses
// MethodName and Position; when Target is set the interface method was found
// in the same document and activation navigates straight to it.
type Action struct {
	Kind       ActionKind       `json:"kind"`
	URI        string           `json:"uri"`
	MethodName string           `json:"methodName,omitempty"`
	Position   symbol.Position  `json:"position"`
	Target     *symbol.Location `json:"target,omitempty"`
}

type Affordance struct {
	Anchor symbol.Position `json:"anchor"`
	Title  string          `json:"title"`
	Action Action          `json:"action"`
}

// Lenses fetches the outline of uri and builds its affordances.
// An unavailable outline yields no affordances.
func (n *Navigator) Lenses(ctx context.Context, uri string) []Affordance {
	outline, err := n.provider.DocumentOutline(ctx, uri)
	if err != nil {
		n.logger.Debugw("no outline for document", "uri", uri, "error", err)
		return []Affordance{}
	}
	return n.BuildAffordances(uri, outline)
}

// BuildAffordances emits one implementation affordance per interface method
// followed by one interface affordance per function or method, each group in
// document order.
func (n *Navigator) BuildAffordances(uri string, outline []symbol.Symbol) []Affordance {
	out := []Affordance{}

	ifaces := symbol.Interfaces(outline)
	for _, iface := range ifaces {
		for _, m := range iface.Children {
			pos := m.SelectionRange.Start
			out = append(out, Affordance{
				Anchor: pos,
				Title:  n.implTitle,
				Action: Action{Kind: ResolveImplementation, URI: uri, Position: pos},
			})
		}
	}

	for _, impl := range symbol.Implementations(outline) {
		name := symbol.BareMethodName(impl.Name)
		pos := impl.SelectionRange.Start
		action := Action{Kind: ResolveInterface, URI: uri, MethodName: name, Position: pos}
		if m, ok := symbol.InterfaceMethodNamed(ifaces, name); ok {
			action.Target = &symbol.Location{URI: uri, Range: m.SelectionRange}
		}
		out = append(out, Affordance{Anchor: pos, Title: n.ifaceTitle, Action: action})
	}
	return out
}

// Run activates an affordance's action.
func (n *Navigator) Run(ctx context.Context, host Host, a Action) Outcome {
	switch {
	case a.Kind == ResolveImplementation:
		return n.ResolveImplementation(ctx, host, a.URI, a.Position)
	case a.Target != nil:
		return n.navigate(ctx, host, *a.Target)
	default:
		return n.ResolveInterface(ctx, host, a.MethodName, a.Position)
	}
}
