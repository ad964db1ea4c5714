package editor

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

var _ nav.Host = (*clientHost)(nil)

// clientHost drives the editor through server-to-client requests.
type clientHost struct {
	notify glsp.NotifyFunc
	call   glsp.CallFunc
	active string
}

func (c *clientHost) ActiveDocument(context.Context) (string, bool) {
	return c.active, c.active != ""
}

// Select shows the candidates as message actions. A null answer means the
// prompt was dismissed.
func (c *clientHost) Select(ctx context.Context, placeholder string, candidates []nav.Candidate) (int, bool, error) {
	actions := make([]protocol.MessageActionItem, 0, len(candidates))
	for _, cand := range candidates {
		actions = append(actions, protocol.MessageActionItem{Title: cand.Label})
	}

	var picked *protocol.MessageActionItem
	err := c.request(ctx, protocol.ServerWindowShowMessageRequest, protocol.ShowMessageRequestParams{
		Type:    protocol.MessageTypeInfo,
		Message: placeholder,
		Actions: actions,
	}, &picked)
	if err != nil {
		return 0, false, errors.Wrap(err, "selection prompt")
	}

	if picked == nil {
		return 0, false, nil
	}
	for i, cand := range candidates {
		if cand.Label == picked.Title {
			return i, true, nil
		}
	}
	return 0, false, nil
}

func (c *clientHost) Navigate(ctx context.Context, loc symbol.Location) error {
	sel := toProtocolRange(loc.Range)
	var result protocol.ShowDocumentResult
	err := c.request(ctx, protocol.ServerWindowShowDocument, protocol.ShowDocumentParams{
		URI:       loc.URI,
		TakeFocus: &protocol.True,
		Selection: &sel,
	}, &result)
	if err != nil {
		return errors.Wrapf(err, "show %s", loc.URI)
	}

	if !result.Success {
		return errors.Newf("client did not show %s", loc.URI)
	}
	return nil
}

func (c *clientHost) Inform(_ context.Context, severity nav.Severity, message string) error {
	typ := protocol.MessageTypeInfo
	if severity == nav.SeverityError {
		typ = protocol.MessageTypeError
	}
	c.notify(protocol.ServerWindowShowMessage, protocol.ShowMessageParams{Type: typ, Message: message})
	return nil
}

// request sends a server-to-client request and waits for the answer until ctx
// is done. On cancellation the call is abandoned; it ends with the connection.
func (c *clientHost) request(ctx context.Context, method string, params, result any) error {
	var answer json.RawMessage
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.call(method, params, &answer)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if len(answer) == 0 {
		return nil
	}
	return json.Unmarshal(answer, result)
}
