package nav

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/0muji4/ifacenav/internal/symbol"
)

// pick navigates straight to a single candidate and asks the host to choose
// among several. A dismissed prompt is a silent no-op.
func (n *Navigator) pick(ctx context.Context, host Host, placeholder string, candidates []Candidate) Outcome {
	if len(candidates) == 1 {
		return n.navigate(ctx, host, candidates[0].Location)
	}

	idx, ok, err := host.Select(ctx, placeholder, candidates)
	if err != nil {
		n.logger.Warnw("selection prompt failed", "error", err)
		return Outcome{Kind: Failed, Message: err.Error()}
	}
	if !ok || idx < 0 || idx >= len(candidates) {
		n.logger.Debugw("selection dismissed", "candidates", len(candidates))
		return Outcome{Kind: Cancelled}
	}
	return n.navigate(ctx, host, candidates[idx].Location)
}

// preciseCandidates labels provider locations "<i>. <file>:<line>".
func preciseCandidates(locs []symbol.Location) []Candidate {
	locs = dedupLocations(locs)
	out := make([]Candidate, 0, len(locs))
	for i, loc := range locs {
		p := symbol.PathFromURI(loc.URI)
		out = append(out, Candidate{
			Label:       fmt.Sprintf("%d. %s:%d", i+1, filepath.Base(p), loc.Range.Start.Line+1),
			Description: p,
			Location:    loc,
		})
	}
	return out
}

// workspaceCandidates labels workspace hits "<i>. <container>".
func workspaceCandidates(hits []symbol.WorkspaceSymbol) []Candidate {
	seen := make(map[symbol.Location]bool, len(hits))
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		if seen[h.Location] {
			continue
		}
		seen[h.Location] = true

		container := h.ContainerName
		if container == "" {
			container = "unknown"
		}
		out = append(out, Candidate{
			Label:       fmt.Sprintf("%d. %s", len(out)+1, container),
			Description: symbol.PathFromURI(h.Location.URI),
			Location:    h.Location,
		})
	}
	return out
}

func dedupLocations(locs []symbol.Location) []symbol.Location {
	seen := make(map[symbol.Location]bool, len(locs))
	out := locs[:0:0]
	for _, l := range locs {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
