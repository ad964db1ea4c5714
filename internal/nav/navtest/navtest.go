// Package navtest provides an in-memory Provider and a recording Host.
package navtest

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

var (
	_ nav.Provider = (*Provider)(nil)
	_ nav.Host     = (*Host)(nil)
)

// Provider answers from fixed data. Errs is keyed by method name.
type Provider struct {
	Outlines         map[string][]symbol.Symbol
	Implementations  []symbol.Location
	TypeDefinitions  []symbol.Location
	Definitions      []symbol.Location
	WorkspaceSymbols []symbol.WorkspaceSymbol
	Errs             map[string]error

	mu    sync.Mutex
	calls []string
}

func (p *Provider) record(method string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, method)
	return p.Errs[method]
}

// Calls lists the provider methods invoked so far, in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *Provider) Called(method string) bool {
	for _, c := range p.Calls() {
		if c == method {
			return true
		}
	}
	return false
}

func (p *Provider) DocumentOutline(_ context.Context, uri string) ([]symbol.Symbol, error) {
	if err := p.record("DocumentOutline"); err != nil {
		return nil, err
	}
	outline, ok := p.Outlines[uri]
	if !ok {
		return nil, errors.Newf("no outline for %s", uri)
	}
	return outline, nil
}

func (p *Provider) FindImplementations(context.Context, string, symbol.Position) ([]symbol.Location, error) {
	if err := p.record("FindImplementations"); err != nil {
		return nil, err
	}
	return p.Implementations, nil
}

func (p *Provider) FindTypeDefinition(context.Context, string, symbol.Position) ([]symbol.Location, error) {
	if err := p.record("FindTypeDefinition"); err != nil {
		return nil, err
	}
	return p.TypeDefinitions, nil
}

func (p *Provider) FindDefinitions(context.Context, string, symbol.Position) ([]symbol.Location, error) {
	if err := p.record("FindDefinitions"); err != nil {
		return nil, err
	}
	return p.Definitions, nil
}

func (p *Provider) FindWorkspaceSymbols(context.Context, string) ([]symbol.WorkspaceSymbol, error) {
	if err := p.record("FindWorkspaceSymbols"); err != nil {
		return nil, err
	}
	return p.WorkspaceSymbols, nil
}

type Message struct {
	Severity nav.Severity
	Text     string
}

type Prompt struct {
	Placeholder string
	Candidates  []nav.Candidate
}

// Host records everything a resolution asks of it. Select answers with
// Choice unless Dismiss is set.
type Host struct {
	Active    string
	Choice    int
	Dismiss   bool
	SelectErr error

	mu          sync.Mutex
	navigations []symbol.Location
	messages    []Message
	prompts     []Prompt
}

func (h *Host) ActiveDocument(context.Context) (string, bool) {
	return h.Active, h.Active != ""
}

func (h *Host) Select(_ context.Context, placeholder string, candidates []nav.Candidate) (int, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompts = append(h.prompts, Prompt{Placeholder: placeholder, Candidates: candidates})
	if h.SelectErr != nil {
		return 0, false, h.SelectErr
	}
	if h.Dismiss {
		return 0, false, nil
	}
	return h.Choice, true, nil
}

func (h *Host) Navigate(_ context.Context, loc symbol.Location) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.navigations = append(h.navigations, loc)
	return nil
}

func (h *Host) Inform(_ context.Context, severity nav.Severity, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, Message{Severity: severity, Text: message})
	return nil
}

func (h *Host) Navigations() []symbol.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]symbol.Location(nil), h.navigations...)
}

func (h *Host) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.messages...)
}

func (h *Host) Prompts() []Prompt {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Prompt(nil), h.prompts...)
}
