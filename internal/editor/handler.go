package editor

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

const (
	CommandImplementation = "ifacenav.navigateToImplementation"
	CommandInterface      = "ifacenav.findAndNavigateToInterface"
)

const serverName = "ifacenav"

// DocumentSync is implemented by providers that want unsaved buffers.
type DocumentSync interface {
	DidOpen(ctx context.Context, uri, text string, version int) error
	DidChange(ctx context.Context, uri, text string, version int) error
	DidClose(ctx context.Context, uri string) error
}

// Handler serves code lenses and navigation commands to an LSP editor.
type Handler struct {
	factory nav.ProviderFactory
	navOpts []nav.Option
	logger  *zap.SugaredLogger
	version string

	protocol protocol.Handler

	// ctx bounds every resolution; Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	provider  nav.Provider
	navigator *nav.Navigator
	active    string
	shutdown  bool

	inflight sync.WaitGroup
	closing  sync.WaitGroup
}

func NewHandler(factory nav.ProviderFactory, version string, logger *zap.SugaredLogger, navOpts ...nav.Option) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		ctx:     ctx,
		cancel:  cancel,
		factory: factory,
		navOpts: append([]nav.Option{nav.WithLogger(logger)}, navOpts...),
		logger:  logger,
		version: version,
	}
	h.protocol = protocol.Handler{
		Initialize:              h.Initialize,
		Initialized:             h.Initialized,
		Shutdown:                h.Shutdown,
		SetTrace:                h.SetTrace,
		TextDocumentDidOpen:     h.TextDocumentDidOpen,
		TextDocumentDidChange:   h.TextDocumentDidChange,
		TextDocumentDidClose:    h.TextDocumentDidClose,
		TextDocumentCodeLens:    h.TextDocumentCodeLens,
		WorkspaceExecuteCommand: h.WorkspaceExecuteCommand,
	}
	return h
}

// Protocol returns the glsp handler to serve.
func (h *Handler) Protocol() glsp.Handler { return &h.protocol }

// RunStdio serves the editor over stdin/stdout until the connection closes.
func (h *Handler) RunStdio() error {
	err := glspserver.NewServer(&h.protocol, serverName, false).RunStdio()
	h.cancel()
	h.inflight.Wait()
	h.closing.Wait()
	closeProvider(h.release(), h.logger)
	return err
}

// Initialize opens the provider for the client's workspace root.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	root := rootPath(params)
	h.mu.Lock()
	switch {
	case h.shutdown:
		h.mu.Unlock()
		return nil, errors.New("server is shut down")
	case h.provider != nil:
		h.mu.Unlock()
		return nil, errors.New("server already initialized")
	}
	h.mu.Unlock()
	h.logger.Infow("editor initializing", "root", root)

	provider, err := h.factory(context.Background(), root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open language intelligence for %s", root)
	}

	h.mu.Lock()
	h.provider = provider
	h.navigator = nav.New(provider, h.navOpts...)
	h.mu.Unlock()

	capabilities := h.protocol.CreateServerCapabilities()
	full := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &full,
	}
	capabilities.CodeLensProvider = &protocol.CodeLensOptions{}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandImplementation, CommandInterface},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &h.version,
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.logger.Infow("editor initialized")
	return nil
}

// Shutdown cancels running resolutions and releases the provider once they
// have returned. A resolution waiting on a prompt needs the connection to
// read the answer, so this handler must return without waiting for it.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	h.logger.Infow("editor shutting down")
	h.cancel()

	h.mu.Lock()
	h.shutdown = true
	h.mu.Unlock()
	p := h.release()

	h.closing.Add(1)
	go func() {
		defer h.closing.Done()
		h.inflight.Wait()
		closeProvider(p, h.logger)
	}()
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	h.setActive(doc.URI)
	if ds, ok := h.sync(); ok {
		return ds.DidOpen(context.Background(), doc.URI, doc.Text, int(doc.Version))
	}
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	h.setActive(uri)

	ds, ok := h.sync()
	if !ok {
		return nil
	}
	// full sync: the last whole-document change wins
	for i := len(params.ContentChanges) - 1; i >= 0; i-- {
		if whole, ok := params.ContentChanges[i].(protocol.TextDocumentContentChangeEventWhole); ok {
			return ds.DidChange(context.Background(), uri, whole.Text, int(params.TextDocument.Version))
		}
	}
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	if ds, ok := h.sync(); ok {
		return ds.DidClose(context.Background(), params.TextDocument.URI)
	}
	return nil
}

// TextDocumentCodeLens returns one lens per affordance.
func (h *Handler) TextDocumentCodeLens(ctx *glsp.Context, params *protocol.CodeLensParams) ([]protocol.CodeLens, error) {
	n, err := h.ready()
	if err != nil {
		return nil, err
	}

	affordances := n.Lenses(context.Background(), params.TextDocument.URI)
	lenses := make([]protocol.CodeLens, 0, len(affordances))
	for _, a := range affordances {
		lenses = append(lenses, codeLens(a))
	}
	h.logger.Debugw("code lenses", "uri", params.TextDocument.URI, "count", len(lenses))
	return lenses, nil
}

// WorkspaceExecuteCommand starts a resolution and returns immediately.
// Prompts and navigation are requests to the client, which the connection
// can only answer once this handler has returned.
func (h *Handler) WorkspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	n, err := h.ready()
	if err != nil {
		return nil, err
	}

	action, err := decodeCommand(params.Command, params.Arguments)
	if err != nil {
		return nil, err
	}
	if action.URI == "" {
		action.URI = h.activeDocument()
	}

	host := &clientHost{notify: ctx.Notify, call: ctx.Call, active: action.URI}
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Errorw("panic in navigation command", "command", params.Command, "panic", r)
			}
		}()

		out := n.Run(h.ctx, host, action)
		h.logger.Infow("navigation command finished",
			"command", params.Command, "outcome", out.Kind.String(), "message", out.Message)
	}()
	return nil, nil
}

func (h *Handler) ready() (*nav.Navigator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.navigator == nil {
		return nil, errors.New("server not initialized")
	}
	return h.navigator, nil
}

func (h *Handler) sync() (DocumentSync, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.provider.(DocumentSync)
	return s, ok
}

func (h *Handler) setActive(uri string) {
	h.mu.Lock()
	h.active = uri
	h.mu.Unlock()
}

func (h *Handler) activeDocument() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// release detaches the provider so that no new work reaches it.
func (h *Handler) release() nav.Provider {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.provider
	h.provider = nil
	h.navigator = nil
	return p
}

func closeProvider(p nav.Provider, logger *zap.SugaredLogger) {
	if c, ok := p.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warnw("failed to close provider", "error", err)
		}
	}
}

func rootPath(params *protocol.InitializeParams) string {
	switch {
	case params.RootURI != nil && *params.RootURI != "":
		return symbol.PathFromURI(*params.RootURI)
	case len(params.WorkspaceFolders) > 0:
		return symbol.PathFromURI(params.WorkspaceFolders[0].URI)
	case params.RootPath != nil && *params.RootPath != "":
		return *params.RootPath
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
