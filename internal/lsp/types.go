package lsp

import "github.com/0muji4/ifacenav/internal/symbol"

type InitializeParams struct {
	ProcessID             int                `json:"processId"`
	RootURI               string             `json:"rootUri"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	InitializationOptions map[string]any     `json:"initializationOptions,omitempty"`
}

type ClientCapabilities struct {
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
}

type TextDocumentClientCapabilities struct {
	DocumentSymbol DocumentSymbolCapabilities `json:"documentSymbol"`
	TypeDefinition LinkCapabilities           `json:"typeDefinition"`
	Definition     LinkCapabilities           `json:"definition"`
	Implementation LinkCapabilities           `json:"implementation"`
}

type DocumentSymbolCapabilities struct {
	HierarchicalDocumentSymbolSupport bool `json:"hierarchicalDocumentSymbolSupport"`
}

type LinkCapabilities struct {
	LinkSupport bool `json:"linkSupport"`
}

type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     symbol.Position        `json:"position"`
}

type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type WorkspaceSymbolParams struct {
	Query string `json:"query"`
}

type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// locationOrLink decodes either a Location or a LocationLink.
type locationOrLink struct {
	URI         string       `json:"uri"`
	Range       symbol.Range `json:"range"`
	TargetURI   string       `json:"targetUri"`
	TargetRange symbol.Range `json:"targetRange"`
}

// location prefers the link target fields when present.
func (l locationOrLink) location() symbol.Location {
	if l.TargetURI != "" {
		return symbol.Location{URI: l.TargetURI, Range: l.TargetRange}
	}
	return symbol.Location{URI: l.URI, Range: l.Range}
}

// symbolInformation is the flat shape returned by workspace/symbol and by
// servers without hierarchical documentSymbol support.
type symbolInformation struct {
	Name          string          `json:"name"`
	Kind          symbol.Kind     `json:"kind"`
	ContainerName string          `json:"containerName,omitempty"`
	Location      symbol.Location `json:"location"`
}

// documentSymbolOrInformation decodes an element of a documentSymbol result,
// which may be either shape.
type documentSymbolOrInformation struct {
	symbol.Symbol
	Location *symbol.Location `json:"location,omitempty"`
}
