package editor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/nav/navtest"
	"github.com/0muji4/ifacenav/internal/symbol"
)

const (
	serviceURI = "file:///work/store/service.go"
	sqlURI     = "file:///work/store/sql.go"
)

func rng(sl, sc, el, ec int) symbol.Range {
	return symbol.Range{Start: symbol.Position{Line: sl, Character: sc}, End: symbol.Position{Line: el, Character: ec}}
}

func serviceOutline() []symbol.Symbol {
	return []symbol.Symbol{
		{
			Name: "Repo", Kind: symbol.KindInterface, Range: rng(1, 0, 3, 1), SelectionRange: rng(1, 5, 1, 9),
			Children: []symbol.Symbol{
				{Name: "Save", Kind: symbol.KindMethod, Range: rng(2, 1, 2, 22), SelectionRange: rng(2, 1, 2, 5)},
			},
		},
		{Name: "(s *SqlRepo).Save", Kind: symbol.KindMethod, Range: rng(10, 0, 12, 1), SelectionRange: rng(10, 18, 10, 22)},
		{Name: "(s *SqlRepo).Close", Kind: symbol.KindMethod, Range: rng(14, 0, 16, 1), SelectionRange: rng(14, 18, 14, 23)},
	}
}

type call struct {
	Method string
	Params json.RawMessage
}

// fakeClient plays the editor side of server-to-client traffic.
type fakeClient struct {
	mu       sync.Mutex
	notified []call
	called   []call
	// pick is the action title answered to showMessageRequest; empty dismisses.
	pick string
}

func (c *fakeClient) glspContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			raw, _ := json.Marshal(params)
			c.mu.Lock()
			c.notified = append(c.notified, call{method, raw})
			c.mu.Unlock()
		},
		Call: func(method string, params any, result any) {
			raw, _ := json.Marshal(params)
			c.mu.Lock()
			c.called = append(c.called, call{method, raw})
			pick := c.pick
			c.mu.Unlock()

			var answer any
			switch method {
			case protocol.ServerWindowShowDocument:
				answer = protocol.ShowDocumentResult{Success: true}
			case protocol.ServerWindowShowMessageRequest:
				if pick != "" {
					answer = protocol.MessageActionItem{Title: pick}
				}
			}
			data, _ := json.Marshal(answer)
			_ = json.Unmarshal(data, result)
		},
	}
}

func (c *fakeClient) calls(method string) []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []call
	for _, cl := range c.called {
		if cl.Method == method {
			out = append(out, cl)
		}
	}
	return out
}

func (c *fakeClient) notifications() []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]call(nil), c.notified...)
}

// syncProvider records document sync and Close.
type syncProvider struct {
	*navtest.Provider

	mu     sync.Mutex
	events []string
	closed bool
}

func (p *syncProvider) DidOpen(_ context.Context, uri, text string, version int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "open "+uri+" "+text)
	return nil
}

func (p *syncProvider) DidChange(_ context.Context, uri, text string, version int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "change "+uri+" "+text)
	return nil
}

func (p *syncProvider) DidClose(_ context.Context, uri string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "close "+uri)
	return nil
}

func (p *syncProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func newInitialized(t *testing.T, p nav.Provider) (*Handler, *fakeClient) {
	t.Helper()
	var gotRoot string
	h := NewHandler(func(_ context.Context, root string) (nav.Provider, error) {
		gotRoot = root
		return p, nil
	}, "test", zap.NewNop().Sugar())

	client := &fakeClient{}
	root := "file:///work"
	_, err := h.Initialize(client.glspContext(), &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)
	require.Equal(t, "/work", gotRoot)
	return h, client
}

func provider() *navtest.Provider {
	return &navtest.Provider{Outlines: map[string][]symbol.Symbol{serviceURI: serviceOutline()}}
}

func TestInitializeAdvertisesLensesAndCommands(t *testing.T) {
	h := NewHandler(func(context.Context, string) (nav.Provider, error) { return provider(), nil }, "1.2.3", zap.NewNop().Sugar())
	root := "file:///work"

	res, err := h.Initialize((&fakeClient{}).glspContext(), &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)

	result, ok := res.(protocol.InitializeResult)
	require.True(t, ok)
	assert.NotNil(t, result.Capabilities.CodeLensProvider)
	require.NotNil(t, result.Capabilities.ExecuteCommandProvider)
	assert.Equal(t, []string{CommandImplementation, CommandInterface}, result.Capabilities.ExecuteCommandProvider.Commands)
	assert.Equal(t, "ifacenav", result.ServerInfo.Name)
	assert.Equal(t, "1.2.3", *result.ServerInfo.Version)
}

func TestCodeLensRequiresInitialize(t *testing.T) {
	h := NewHandler(nil, "test", zap.NewNop().Sugar())

	_, err := h.TextDocumentCodeLens((&fakeClient{}).glspContext(), &protocol.CodeLensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: serviceURI},
	})
	assert.ErrorContains(t, err, "not initialized")
}

func TestCodeLenses(t *testing.T) {
	h, client := newInitialized(t, provider())

	lenses, err := h.TextDocumentCodeLens(client.glspContext(), &protocol.CodeLensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: serviceURI},
	})
	require.NoError(t, err)
	require.Len(t, lenses, 3)

	down := lenses[0]
	assert.Equal(t, protocol.Position{Line: 2, Character: 1}, down.Range.Start)
	assert.Equal(t, nav.DefaultImplementationTitle, down.Command.Title)
	assert.Equal(t, CommandImplementation, down.Command.Command)
	assert.Equal(t, []any{serviceURI, protocol.Position{Line: 2, Character: 1}}, down.Command.Arguments)

	up := lenses[1]
	assert.Equal(t, CommandInterface, up.Command.Command)
	require.Len(t, up.Command.Arguments, 4, "local interface method carries its target")
	assert.Equal(t, "Save", up.Command.Arguments[0])
	assert.Equal(t, protocol.Location{URI: serviceURI, Range: toProtocolRange(rng(2, 1, 2, 5))}, up.Command.Arguments[3])

	deferred := lenses[2]
	assert.Len(t, deferred.Command.Arguments, 3)
}

// executeLens feeds a lens command back through JSON the way an editor would.
func executeLens(t *testing.T, h *Handler, client *fakeClient, lens protocol.CodeLens) {
	t.Helper()
	raw, err := json.Marshal(lens.Command.Arguments)
	require.NoError(t, err)
	var args []any
	require.NoError(t, json.Unmarshal(raw, &args))

	res, err := h.WorkspaceExecuteCommand(client.glspContext(), &protocol.ExecuteCommandParams{
		Command:   lens.Command.Command,
		Arguments: args,
	})
	require.NoError(t, err)
	assert.Nil(t, res)
	h.inflight.Wait()
}

func TestExecuteImplementationNavigates(t *testing.T) {
	p := provider()
	p.Implementations = []symbol.Location{{URI: sqlURI, Range: rng(10, 18, 10, 22)}}
	h, client := newInitialized(t, p)
	lenses, err := h.TextDocumentCodeLens(client.glspContext(), &protocol.CodeLensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: serviceURI},
	})
	require.NoError(t, err)

	executeLens(t, h, client, lenses[0])

	shows := client.calls(protocol.ServerWindowShowDocument)
	require.Len(t, shows, 1)
	var params protocol.ShowDocumentParams
	require.NoError(t, json.Unmarshal(shows[0].Params, &params))
	assert.Equal(t, sqlURI, params.URI)
	assert.Equal(t, protocol.UInteger(10), params.Selection.Start.Line)
	assert.True(t, *params.TakeFocus)
}

func TestExecuteInterfaceFastPath(t *testing.T) {
	p := provider()
	h, client := newInitialized(t, p)
	lenses, err := h.TextDocumentCodeLens(client.glspContext(), &protocol.CodeLensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: serviceURI},
	})
	require.NoError(t, err)
	before := len(p.Calls())

	executeLens(t, h, client, lenses[1])

	assert.Len(t, p.Calls(), before, "fast path asks the provider nothing")
	shows := client.calls(protocol.ServerWindowShowDocument)
	require.Len(t, shows, 1)
	var params protocol.ShowDocumentParams
	require.NoError(t, json.Unmarshal(shows[0].Params, &params))
	assert.Equal(t, protocol.UInteger(2), params.Selection.Start.Line)
}

func TestExecuteInterfaceUsesActiveDocument(t *testing.T) {
	p := provider()
	h, client := newInitialized(t, p)
	require.NoError(t, h.TextDocumentDidOpen(client.glspContext(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: serviceURI, LanguageID: "go", Version: 1, Text: "package store"},
	}))

	res, err := h.WorkspaceExecuteCommand(client.glspContext(), &protocol.ExecuteCommandParams{
		Command:   CommandInterface,
		Arguments: []any{"Close", map[string]any{"line": 14.0, "character": 18.0}},
	})
	require.NoError(t, err)
	assert.Nil(t, res)
	h.inflight.Wait()

	notes := client.notifications()
	require.Len(t, notes, 1)
	var msg protocol.ShowMessageParams
	require.NoError(t, json.Unmarshal(notes[0].Params, &msg))
	assert.Equal(t, protocol.MessageTypeInfo, msg.Type)
	assert.Equal(t, "No interface found for method: Close", msg.Message)
}

func TestExecuteSelectionPrompt(t *testing.T) {
	p := provider()
	p.Implementations = []symbol.Location{
		{URI: sqlURI, Range: rng(10, 18, 10, 22)},
		{URI: "file:///work/store/memory.go", Range: rng(3, 18, 3, 22)},
	}
	h, client := newInitialized(t, p)
	client.pick = "2. memory.go:4"

	res, err := h.WorkspaceExecuteCommand(client.glspContext(), &protocol.ExecuteCommandParams{
		Command:   CommandImplementation,
		Arguments: []any{serviceURI, map[string]any{"line": 2.0, "character": 1.0}},
	})
	require.NoError(t, err)
	assert.Nil(t, res)
	h.inflight.Wait()

	prompts := client.calls(protocol.ServerWindowShowMessageRequest)
	require.Len(t, prompts, 1)
	var req protocol.ShowMessageRequestParams
	require.NoError(t, json.Unmarshal(prompts[0].Params, &req))
	assert.Equal(t, "Select implementation to navigate to", req.Message)
	assert.Equal(t, []protocol.MessageActionItem{{Title: "1. sql.go:11"}, {Title: "2. memory.go:4"}}, req.Actions)

	shows := client.calls(protocol.ServerWindowShowDocument)
	require.Len(t, shows, 1)
	var params protocol.ShowDocumentParams
	require.NoError(t, json.Unmarshal(shows[0].Params, &params))
	assert.Equal(t, "file:///work/store/memory.go", params.URI)
}

func TestExecuteSelectionDismissed(t *testing.T) {
	p := provider()
	p.Implementations = []symbol.Location{
		{URI: sqlURI, Range: rng(10, 18, 10, 22)},
		{URI: "file:///work/store/memory.go", Range: rng(3, 18, 3, 22)},
	}
	h, client := newInitialized(t, p)

	_, err := h.WorkspaceExecuteCommand(client.glspContext(), &protocol.ExecuteCommandParams{
		Command:   CommandImplementation,
		Arguments: []any{serviceURI, map[string]any{"line": 2.0, "character": 1.0}},
	})
	require.NoError(t, err)
	h.inflight.Wait()

	assert.Len(t, client.calls(protocol.ServerWindowShowMessageRequest), 1)
	assert.Empty(t, client.calls(protocol.ServerWindowShowDocument))
	assert.Empty(t, client.notifications())
}

func TestDecodeCommandErrors(t *testing.T) {
	_, err := decodeCommand("ifacenav.unknown", nil)
	assert.ErrorContains(t, err, "unknown command")

	_, err = decodeCommand(CommandImplementation, []any{serviceURI})
	assert.ErrorContains(t, err, "expects (uri, position)")

	_, err = decodeCommand(CommandInterface, []any{42.0, map[string]any{}})
	assert.Error(t, err)
}

func TestDocumentSyncIsForwarded(t *testing.T) {
	p := &syncProvider{Provider: provider()}
	h, client := newInitialized(t, p)
	ctx := client.glspContext()

	require.NoError(t, h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: serviceURI, Version: 1, Text: "v1"},
	}))
	require.NoError(t, h.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: serviceURI}, Version: 2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "v2"}},
	}))
	require.NoError(t, h.TextDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: serviceURI},
	}))
	require.NoError(t, h.Shutdown(ctx))
	h.closing.Wait()

	assert.Equal(t, []string{
		"open " + serviceURI + " v1",
		"change " + serviceURI + " v2",
		"close " + serviceURI,
	}, p.events)
	assert.True(t, p.closed)

	_, err := h.TextDocumentCodeLens(ctx, &protocol.CodeLensParams{TextDocument: protocol.TextDocumentIdentifier{URI: serviceURI}})
	assert.Error(t, err, "shut down handler no longer serves lenses")
}

func TestInitializeTwiceIsRejected(t *testing.T) {
	p := &syncProvider{Provider: provider()}
	opened := 0
	h := NewHandler(func(context.Context, string) (nav.Provider, error) {
		opened++
		return p, nil
	}, "test", zap.NewNop().Sugar())
	client := &fakeClient{}
	root := "file:///work"

	_, err := h.Initialize(client.glspContext(), &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)
	_, err = h.Initialize(client.glspContext(), &protocol.InitializeParams{RootURI: &root})
	assert.ErrorContains(t, err, "already initialized")
	assert.Equal(t, 1, opened)
	assert.False(t, p.closed)

	require.NoError(t, h.Shutdown(client.glspContext()))
	_, err = h.Initialize(client.glspContext(), &protocol.InitializeParams{RootURI: &root})
	assert.ErrorContains(t, err, "shut down")
	h.closing.Wait()
	assert.True(t, p.closed)
	assert.Equal(t, 1, opened)
}
