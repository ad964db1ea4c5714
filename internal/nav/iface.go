package nav

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/0muji4/ifacenav/internal/symbol"
)

const (
	msgNoActiveDocument = "No active text editor"
	msgNoSymbols        = "Could not get document symbols"
	msgNoMethodSymbol   = "Could not find method symbol for: %s"
	msgNoInterface      = "No interface found for method: %s"
	msgInterfaceError   = "Error finding interface: %v"
)

// ResolveInterface navigates from the implementation of methodName declared
// around pos in the active document to the interface method it satisfies.
//
// The type definition at the implementation wins; the interface method is
// looked up inside it and the type definition itself is the fallback target.
// Definitions are only consulted when there is no type definition.
func (n *Navigator) ResolveInterface(ctx context.Context, host Host, methodName string, pos symbol.Position) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Errorw("panic while resolving interface", "method", methodName, "panic", r)
			out = n.inform(ctx, host, SeverityError, fmt.Sprintf(msgInterfaceError, r))
		}
	}()

	uri, ok := host.ActiveDocument(ctx)
	if !ok {
		return n.inform(ctx, host, SeverityError, msgNoActiveDocument)
	}
	log := n.logger.With("uri", uri, "method", methodName, "line", pos.Line)

	outline, err := n.provider.DocumentOutline(ctx, uri)
	if err != nil {
		return n.failInterface(ctx, host, errors.Wrap(err, "document symbols"))
	}
	if len(outline) == 0 {
		return n.inform(ctx, host, SeverityInfo, msgNoSymbols)
	}

	impl, ok := symbol.ImplementationAt(outline, methodName, pos)
	if !ok {
		return n.inform(ctx, host, SeverityError, fmt.Sprintf(msgNoMethodSymbol, methodName))
	}
	at := impl.SelectionRange.Start

	typeDefs, err := n.provider.FindTypeDefinition(ctx, uri, at)
	if err != nil {
		return n.failInterface(ctx, host, err)
	}
	if len(typeDefs) > 0 {
		td := typeDefs[0]
		if r, ok := n.interfaceMethod(ctx, td, methodName); ok {
			log.Debugw("resolved by type definition", "target", td.URI)
			return n.navigate(ctx, host, symbol.Location{URI: td.URI, Range: r})
		}
		log.Debugw("method not found in type definition, using its range", "target", td.URI)
		return n.navigate(ctx, host, td)
	}

	defs, err := n.provider.FindDefinitions(ctx, uri, at)
	if err != nil {
		return n.failInterface(ctx, host, err)
	}
	for _, d := range defs {
		if r, ok := n.interfaceMethod(ctx, d, methodName); ok {
			log.Debugw("resolved by definition", "target", d.URI)
			return n.navigate(ctx, host, symbol.Location{URI: d.URI, Range: r})
		}
	}

	log.Debugw("no interface found", "definitions", len(defs))
	return n.inform(ctx, host, SeverityInfo, fmt.Sprintf(msgNoInterface, methodName))
}

func (n *Navigator) failInterface(ctx context.Context, host Host, err error) Outcome {
	n.logger.Warnw("interface resolution failed", "error", err)
	return n.inform(ctx, host, SeverityError, fmt.Sprintf(msgInterfaceError, err))
}

// interfaceMethod finds methodName in an interface of target's document whose
// range overlaps target's range in either direction. Failures read as absent.
func (n *Navigator) interfaceMethod(ctx context.Context, target symbol.Location, methodName string) (symbol.Range, bool) {
	outline, err := n.provider.DocumentOutline(ctx, target.URI)
	if err != nil {
		n.logger.Debugw("no outline for interface lookup", "uri", target.URI, "error", err)
		return symbol.Range{}, false
	}

	for _, iface := range symbol.Interfaces(outline) {
		if !iface.Range.Contains(target.Range.Start) && !target.Range.Contains(iface.Range.Start) {
			continue
		}
		for _, m := range iface.Children {
			if m.Name == methodName {
				return m.SelectionRange, true
			}
		}
	}
	return symbol.Range{}, false
}
