package nav

import (
	"context"
	"fmt"

	"github.com/0muji4/ifacenav/internal/symbol"
)

const (
	msgNoMethodName     = "Could not determine method name."
	placeholderPrecise  = "Select implementation to navigate to"
	placeholderByName   = "Select implementation of %s"
	msgNoImplementation = "No implementation found for %s"
)

// ResolveImplementation navigates from the interface method at pos in uri to
// its implementation. Provider results are authoritative; the name-based
// workspace search only runs when the provider finds nothing.
func (n *Navigator) ResolveImplementation(ctx context.Context, host Host, uri string, pos symbol.Position) Outcome {
	log := n.logger.With("uri", uri, "line", pos.Line, "character", pos.Character)

	locs, err := n.provider.FindImplementations(ctx, uri, pos)
	if err != nil {
		log.Debugw("implementation lookup failed, falling back to workspace search", "error", err)
	}
	if len(locs) > 0 {
		log.Debugw("resolved by provider", "candidates", len(locs))
		return n.pick(ctx, host, placeholderPrecise, preciseCandidates(locs))
	}

	outline, err := n.provider.DocumentOutline(ctx, uri)
	if err != nil {
		log.Debugw("no outline for document", "error", err)
	}
	name, ok := symbol.InterfaceMethodAt(outline, pos)
	if !ok {
		return n.inform(ctx, host, SeverityInfo, msgNoMethodName)
	}

	hits, err := n.provider.FindWorkspaceSymbols(ctx, name)
	if err != nil {
		log.Debugw("workspace symbol search failed", "method", name, "error", err)
	}
	var matches []symbol.WorkspaceSymbol
	for _, h := range hits {
		if h.Kind != symbol.KindMethod && h.Kind != symbol.KindFunction {
			continue
		}
		if symbol.BareMethodName(h.Name) != name {
			continue
		}
		// the interface member itself
		if h.Location.URI == uri && h.Location.Range.Contains(pos) {
			continue
		}
		matches = append(matches, h)
	}
	log.Debugw("resolved by workspace search", "method", name, "hits", len(hits), "matches", len(matches))

	if len(matches) == 0 {
		return n.inform(ctx, host, SeverityInfo, fmt.Sprintf(msgNoImplementation, name))
	}
	return n.pick(ctx, host, fmt.Sprintf(placeholderByName, name), workspaceCandidates(matches))
}
