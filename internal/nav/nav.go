// Package nav links interface methods to their implementations and back.
//
// A Navigator produces affordances for one document and resolves them on
// activation. Every resolution talks to the user only through a Host and
// reports what happened as an Outcome.
package nav

import (
	"context"

	"go.uber.org/zap"

	"github.com/0muji4/ifacenav/internal/symbol"
)

// ProviderFactory opens the language intelligence for a workspace root.
type ProviderFactory func(ctx context.Context, rootPath string) (Provider, error)

// Provider is the language intelligence the resolvers consult.
type Provider interface {
	DocumentOutline(ctx context.Context, uri string) ([]symbol.Symbol, error)
	FindImplementations(ctx context.Context, uri string, pos symbol.Position) ([]symbol.Location, error)
	// FindTypeDefinition returns link results already normalised to their target.
	FindTypeDefinition(ctx context.Context, uri string, pos symbol.Position) ([]symbol.Location, error)
	FindDefinitions(ctx context.Context, uri string, pos symbol.Position) ([]symbol.Location, error)
	FindWorkspaceSymbols(ctx context.Context, query string) ([]symbol.WorkspaceSymbol, error)
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// Candidate is one selectable entry of a disambiguation prompt.
type Candidate struct {
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Location    symbol.Location `json:"location"`
}

// Host is the environment a resolution runs in.
type Host interface {
	// ActiveDocument returns the document the user is working in.
	ActiveDocument(ctx context.Context) (string, bool)
	// Select asks the user to choose one candidate. ok is false when the
	// prompt was dismissed.
	Select(ctx context.Context, placeholder string, candidates []Candidate) (index int, ok bool, err error)
	Navigate(ctx context.Context, loc symbol.Location) error
	Inform(ctx context.Context, severity Severity, message string) error
}

type OutcomeKind int

const (
	Navigated OutcomeKind = iota
	Informed
	Failed
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Navigated:
		return "navigated"
	case Informed:
		return "informed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

func (k OutcomeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Outcome is how a resolution ended.
type Outcome struct {
	Kind     OutcomeKind      `json:"kind"`
	Location *symbol.Location `json:"location,omitempty"`
	Message  string           `json:"message,omitempty"`
}

const (
	DefaultImplementationTitle = "↓ Go to Implementation"
	DefaultInterfaceTitle      = "↑ Go to Interface"
)

type Navigator struct {
	provider   Provider
	logger     *zap.SugaredLogger
	implTitle  string
	ifaceTitle string
}

type Option func(*Navigator)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithTitles overrides the affordance titles. Empty values keep the defaults.
func WithTitles(implementation, iface string) Option {
	return func(n *Navigator) {
		if implementation != "" {
			n.implTitle = implementation
		}
		if iface != "" {
			n.ifaceTitle = iface
		}
	}
}

func New(provider Provider, opts ...Option) *Navigator {
	n := &Navigator{
		provider:   provider,
		logger:     zap.NewNop().Sugar(),
		implTitle:  DefaultImplementationTitle,
		ifaceTitle: DefaultInterfaceTitle,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Navigator) navigate(ctx context.Context, host Host, loc symbol.Location) Outcome {
	if err := host.Navigate(ctx, loc); err != nil {
		n.logger.Warnw("navigation failed", "uri", loc.URI, "line", loc.Range.Start.Line, "error", err)
		return Outcome{Kind: Failed, Location: &loc, Message: err.Error()}
	}
	n.logger.Debugw("navigated", "uri", loc.URI, "line", loc.Range.Start.Line)
	return Outcome{Kind: Navigated, Location: &loc}
}

func (n *Navigator) inform(ctx context.Context, host Host, severity Severity, message string) Outcome {
	if err := host.Inform(ctx, severity, message); err != nil {
		n.logger.Warnw("failed to show message", "message", message, "error", err)
	}
	kind := Informed
	if severity == SeverityError {
		kind = Failed
	}
	return Outcome{Kind: kind, Message: message}
}
