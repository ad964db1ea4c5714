package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/jsonrpc2"
	"go.uber.org/zap"

	"github.com/0muji4/ifacenav/internal/symbol"
)

var _ CodeAnalyzer = (*Client)(nil)

const shutdownTimeout = 3 * time.Second

// ErrClosed is returned by calls made after the connection to gopls ended.
var ErrClosed = errors.New("gopls connection closed")

// Client is a JSON-RPC session with gopls.
type Client struct {
	cmd    *exec.Cmd
	conn   *jsonrpc2.Conn
	logger *zap.SugaredLogger

	mu     sync.Mutex
	closed bool
}

type options struct {
	goplsPath string
	goplsArgs []string
	logger    *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*options)

// WithGopls overrides the gopls binary and its arguments.
func WithGopls(path string, args ...string) Option {
	return func(o *options) {
		if path != "" {
			o.goplsPath = path
		}
		if len(args) > 0 {
			o.goplsArgs = args
		}
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		goplsPath: "gopls",
		goplsArgs: []string{"serve"},
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient starts gopls and returns once the initialize handshake is done.
func NewClient(ctx context.Context, rootPath string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve workspace root %s", rootPath)
	}

	bin, err := exec.LookPath(o.goplsPath)
	if err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "gopls not found"),
			"install it with: go install golang.org/x/tools/gopls@latest")
	}

	cmd := exec.Command(bin, o.goplsArgs...)
	cmd.Dir = absRoot
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gopls stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gopls stdout pipe")
	}
	cmd.Stderr = &stderrWriter{logger: o.logger}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start gopls process")
	}

	c := newClient(processStream{ReadCloser: stdout, WriteCloser: stdin}, o.logger)
	c.cmd = cmd

	if err := c.initialize(ctx, symbol.URIFromPath(absRoot)); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewStreamClient speaks LSP over an existing stream, e.g. a gopls started
// with -listen or an in-process peer.
func NewStreamClient(ctx context.Context, rwc io.ReadWriteCloser, rootURI string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	c := newClient(rwc, o.logger)
	if err := c.initialize(ctx, rootURI); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func newClient(rwc io.ReadWriteCloser, logger *zap.SugaredLogger) *Client {
	c := &Client{logger: logger}
	c.conn = jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(c.handle).SuppressErrClosed()),
		jsonrpc2.SetLogger(zap.NewStdLog(logger.Desugar())),
	)
	return c
}

func (c *Client) initialize(ctx context.Context, rootURI string) error {
	params := InitializeParams{
		ProcessID: os.Getpid(),
		RootURI:   rootURI,
		Capabilities: ClientCapabilities{
			TextDocument: TextDocumentClientCapabilities{
				DocumentSymbol: DocumentSymbolCapabilities{HierarchicalDocumentSymbolSupport: true},
				TypeDefinition: LinkCapabilities{LinkSupport: true},
				Definition:     LinkCapabilities{LinkSupport: true},
				Implementation: LinkCapabilities{LinkSupport: true},
			},
		},
		// "pkg.T.M" keeps the receiver recoverable in workspace/symbol results
		InitializationOptions: map[string]any{"symbolStyle": "Package"},
	}

	if err := c.call(ctx, "initialize", params, nil); err != nil {
		return errors.Wrapf(err, "gopls initialize failed for workspace %s", rootURI)
	}
	if err := c.notify("initialized", struct{}{}); err != nil {
		return errors.Wrap(err, "gopls initialized notification failed")
	}
	c.logger.Debugw("gopls session initialized", "root", rootURI)
	return nil
}

// Close shuts the session down and waits for gopls to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.conn.Call(ctx, "shutdown", nil, nil); err != nil {
		c.logger.Debugw("gopls shutdown request failed", "error", err)
	}
	_ = c.conn.Notify(ctx, "exit", nil)

	err := c.conn.Close()
	if errors.Is(err, jsonrpc2.ErrClosed) {
		err = nil
	}
	if c.cmd == nil {
		return err
	}

	exited := make(chan error, 1)
	go func() { exited <- c.cmd.Wait() }()
	select {
	case werr := <-exited:
		c.logger.Debugw("gopls exited", "error", werr)
	case <-time.After(shutdownTimeout):
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		<-exited
	}
	return err
}

// DocumentOutline returns the hierarchical symbols of one document.
func (c *Client) DocumentOutline(ctx context.Context, uri string) ([]symbol.Symbol, error) {
	params := DocumentSymbolParams{TextDocument: TextDocumentIdentifier{URI: uri}}

	var raw []documentSymbolOrInformation
	if err := c.call(ctx, "textDocument/documentSymbol", params, &raw); err != nil {
		return nil, errors.Wrapf(err, "gopls documentSymbol %s", uri)
	}
	return outlineFromWire(raw), nil
}

func (c *Client) FindImplementations(ctx context.Context, uri string, pos symbol.Position) ([]symbol.Location, error) {
	locs, err := c.locations(ctx, "textDocument/implementation", uri, pos)
	return locs, errors.Wrapf(err, "gopls implementation at %s:%d:%d", uri, pos.Line, pos.Character)
}

func (c *Client) FindTypeDefinition(ctx context.Context, uri string, pos symbol.Position) ([]symbol.Location, error) {
	locs, err := c.locations(ctx, "textDocument/typeDefinition", uri, pos)
	return locs, errors.Wrapf(err, "gopls typeDefinition at %s:%d:%d", uri, pos.Line, pos.Character)
}

func (c *Client) FindDefinitions(ctx context.Context, uri string, pos symbol.Position) ([]symbol.Location, error) {
	locs, err := c.locations(ctx, "textDocument/definition", uri, pos)
	return locs, errors.Wrapf(err, "gopls definition at %s:%d:%d", uri, pos.Line, pos.Character)
}

// FindWorkspaceSymbols runs workspace/symbol and rewrites names into the
// outline form so that bare-name matching works across both sources.
func (c *Client) FindWorkspaceSymbols(ctx context.Context, query string) ([]symbol.WorkspaceSymbol, error) {
	var raw []symbolInformation
	if err := c.call(ctx, "workspace/symbol", WorkspaceSymbolParams{Query: query}, &raw); err != nil {
		return nil, errors.Wrapf(err, "gopls workspace/symbol %q", query)
	}

	out := make([]symbol.WorkspaceSymbol, 0, len(raw))
	for _, s := range raw {
		out = append(out, symbol.WorkspaceSymbol{
			Name:          outlineName(s.Name, s.Kind),
			Kind:          s.Kind,
			ContainerName: s.ContainerName,
			Location:      s.Location,
		})
	}
	return out, nil
}

func (c *Client) DidOpen(ctx context.Context, uri, text string, version int) error {
	return c.notify("textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: uri, LanguageID: "go", Version: version, Text: text},
	})
}

func (c *Client) DidChange(ctx context.Context, uri, text string, version int) error {
	return c.notify("textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: uri, Version: version},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: text}},
	})
}

func (c *Client) DidClose(ctx context.Context, uri string) error {
	return c.notify("textDocument/didClose", DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	})
}

// --- Internal Helpers ---

func (c *Client) locations(ctx context.Context, method, uri string, pos symbol.Position) ([]symbol.Location, error) {
	params := TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
		Position:     pos,
	}
	var raw json.RawMessage
	if err := c.call(ctx, method, params, &raw); err != nil {
		return nil, err
	}
	return decodeLocations(raw)
}

// decodeLocations accepts null, a single Location/LocationLink, or an array of either.
func decodeLocations(raw json.RawMessage) ([]symbol.Location, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var many []locationOrLink
	if raw[0] != '[' {
		var one locationOrLink
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, errors.Wrap(err, "failed to parse location")
		}
		many = append(many, one)
	} else if err := json.Unmarshal(raw, &many); err != nil {
		return nil, errors.Wrap(err, "failed to parse locations")
	}

	out := make([]symbol.Location, 0, len(many))
	for _, l := range many {
		out = append(out, l.location())
	}
	return out, nil
}

// outlineFromWire converts a documentSymbol result. Flat SymbolInformation
// results are re-nested under their interface by containerName.
func outlineFromWire(raw []documentSymbolOrInformation) []symbol.Symbol {
	if len(raw) == 0 {
		return nil
	}
	out := make([]symbol.Symbol, 0, len(raw))
	flat := false
	for _, s := range raw {
		sym := s.Symbol
		if s.Location != nil {
			flat = true
			sym.Range = s.Location.Range
			sym.SelectionRange = s.Location.Range
		}
		out = append(out, sym)
	}
	if !flat {
		return out
	}

	nested := make([]symbol.Symbol, 0, len(out))
	for _, s := range out {
		parent := -1
		for i := len(nested) - 1; i >= 0; i-- {
			n := nested[i]
			if n.Kind == symbol.KindInterface && s.ContainerName == n.Name && n.Range.Contains(s.Range.Start) {
				parent = i
				break
			}
		}
		if parent >= 0 {
			nested[parent].Children = append(nested[parent].Children, s)
			continue
		}
		nested = append(nested, s)
	}
	return nested
}

// outlineName rewrites gopls workspace symbol names ("pkg.T.M") into the
// outline form ("(T).M") for methods and drops qualifiers elsewhere.
func outlineName(name string, kind symbol.Kind) string {
	if strings.HasPrefix(name, "(") {
		return name
	}
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name
	}
	member := name[i+1:]
	if kind != symbol.KindMethod {
		return member
	}
	owner := name[:i]
	if j := strings.LastIndex(owner, "."); j >= 0 {
		owner = owner[j+1:]
	}
	return "(" + owner + ")." + member
}

// call sends a request and waits for its response.
func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	err := c.conn.Call(ctx, method, params, result)
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc2.Error
	switch {
	case errors.As(err, &rpcErr):
		return errors.Newf("JSON-RPC error %d on method %s: %s", rpcErr.Code, method, rpcErr.Message)
	case errors.Is(err, jsonrpc2.ErrClosed):
		return ErrClosed
	case ctx.Err() != nil:
		return err
	}
	return errors.Wrapf(err, "JSON-RPC call %s failed", method)
}

func (c *Client) notify(method string, params interface{}) error {
	err := c.conn.Notify(context.Background(), method, params)
	if errors.Is(err, jsonrpc2.ErrClosed) {
		return ErrClosed
	}
	return errors.Wrapf(err, "failed to send %s", method)
}

// handle answers the requests gopls sends to its client. Only
// workspace/configuration needs a shaped answer: one null per item.
func (c *Client) handle(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	if req.Notif {
		c.logger.Debugw("gopls notification", "method", req.Method)
		return nil, nil
	}
	if req.Method != "workspace/configuration" || req.Params == nil {
		return nil, nil
	}

	var params struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return make([]interface{}, len(params.Items)), nil
}

// processStream joins the pipes of a child process into one stream.
type processStream struct {
	io.ReadCloser
	io.WriteCloser
}

func (s processStream) Close() error {
	werr := s.WriteCloser.Close()
	if rerr := s.ReadCloser.Close(); rerr != nil {
		return rerr
	}
	return werr
}

// stderrWriter forwards gopls stderr into the logger.
type stderrWriter struct {
	logger *zap.SugaredLogger
}

func (w *stderrWriter) Write(p []byte) (int, error) {
	if line := strings.TrimSpace(string(p)); line != "" {
		w.logger.Debugw("gopls stderr", "line", line)
	}
	return len(p), nil
}
