package nav

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/0muji4/ifacenav/internal/symbol"
)

var _ Host = (*Report)(nil)

// Report is a Host for callers that cannot prompt. It records navigations,
// messages and the last candidate list so they can be returned as data.
//
// Pick selects a candidate by its 1-based number. Zero leaves the prompt
// unanswered, which ends the resolution as Cancelled with the candidates kept
// in the report.
type Report struct {
	Active string `json:"-"`
	Pick   int    `json:"-"`

	mu          sync.Mutex
	Navigations []symbol.Location `json:"navigations,omitempty"`
	Messages    []ReportMessage   `json:"messages,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Candidates  []Candidate       `json:"candidates,omitempty"`
}

type ReportMessage struct {
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

func (r *Report) ActiveDocument(context.Context) (string, bool) {
	return r.Active, r.Active != ""
}

func (r *Report) Select(_ context.Context, placeholder string, candidates []Candidate) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Placeholder = placeholder
	r.Candidates = candidates

	if r.Pick < 1 {
		return 0, false, nil
	}
	if r.Pick > len(candidates) {
		return 0, false, errors.Newf("pick %d out of range: %d candidates", r.Pick, len(candidates))
	}
	return r.Pick - 1, true, nil
}

func (r *Report) Navigate(_ context.Context, loc symbol.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Navigations = append(r.Navigations, loc)
	return nil
}

func (r *Report) Inform(_ context.Context, severity Severity, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, ReportMessage{Severity: severity.String(), Text: message})
	return nil
}

// Render describes a finished resolution as plain text, one fact per line.
// Positions are printed 1-based as path:line:col.
func (r *Report) Render(out Outcome) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "outcome: %s\n", out.Kind)
	for _, loc := range r.Navigations {
		fmt.Fprintf(&b, "target: %s\n", FormatLocation(loc))
	}
	for _, m := range r.Messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Severity, m.Text)
	}
	if out.Kind == Cancelled && len(r.Candidates) > 0 {
		fmt.Fprintf(&b, "%s (pass pick to choose):\n", r.Placeholder)
		for _, c := range r.Candidates {
			fmt.Fprintf(&b, "  %s  %s\n", c.Label, FormatLocation(c.Location))
		}
	}
	if out.Kind == Failed && out.Message != "" && len(r.Messages) == 0 {
		fmt.Fprintf(&b, "error: %s\n", out.Message)
	}
	return b.String()
}

// FormatLocation prints loc as path:line:col with 1-based line and column.
func FormatLocation(loc symbol.Location) string {
	return fmt.Sprintf("%s:%d:%d", symbol.PathFromURI(loc.URI), loc.Range.Start.Line+1, loc.Range.Start.Character+1)
}
