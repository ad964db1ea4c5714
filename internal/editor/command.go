package editor

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

// codeLens renders an affordance as a command lens.
//
//	navigateToImplementation(uri, position)
//	findAndNavigateToInterface(methodName, position, uri[, target])
func codeLens(a nav.Affordance) protocol.CodeLens {
	anchor := toProtocolPosition(a.Anchor)
	cmd := protocol.Command{Title: a.Title}

	switch a.Action.Kind {
	case nav.ResolveImplementation:
		cmd.Command = CommandImplementation
		cmd.Arguments = []any{a.Action.URI, toProtocolPosition(a.Action.Position)}
	case nav.ResolveInterface:
		cmd.Command = CommandInterface
		cmd.Arguments = []any{a.Action.MethodName, toProtocolPosition(a.Action.Position), a.Action.URI}
		if t := a.Action.Target; t != nil {
			cmd.Arguments = append(cmd.Arguments, protocol.Location{URI: t.URI, Range: toProtocolRange(t.Range)})
		}
	}
	return protocol.CodeLens{Range: protocol.Range{Start: anchor, End: anchor}, Command: &cmd}
}

// decodeCommand turns executeCommand arguments back into an action.
func decodeCommand(command string, args []any) (nav.Action, error) {
	var a nav.Action
	switch command {
	case CommandImplementation:
		a.Kind = nav.ResolveImplementation
		if len(args) < 2 {
			return a, errors.Newf("%s expects (uri, position), got %d arguments", command, len(args))
		}
		if err := decodeArg(args, 0, &a.URI); err != nil {
			return a, err
		}
		if err := decodeArg(args, 1, &a.Position); err != nil {
			return a, err
		}

	case CommandInterface:
		a.Kind = nav.ResolveInterface
		if len(args) < 2 {
			return a, errors.Newf("%s expects (methodName, position[, uri, target]), got %d arguments", command, len(args))
		}
		if err := decodeArg(args, 0, &a.MethodName); err != nil {
			return a, err
		}
		if err := decodeArg(args, 1, &a.Position); err != nil {
			return a, err
		}
		if len(args) > 2 && args[2] != nil {
			if err := decodeArg(args, 2, &a.URI); err != nil {
				return a, err
			}
		}
		if len(args) > 3 && args[3] != nil {
			var target symbol.Location
			if err := decodeArg(args, 3, &target); err != nil {
				return a, err
			}
			a.Target = &target
		}

	default:
		return a, errors.Newf("unknown command %q", command)
	}
	return a, nil
}

func decodeArg(args []any, i int, into any) error {
	raw, err := json.Marshal(args[i])
	if err != nil {
		return errors.Wrapf(err, "argument %d", i)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return errors.Wrapf(err, "argument %d", i)
	}
	return nil
}

func toProtocolPosition(p symbol.Position) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(p.Line), Character: protocol.UInteger(p.Character)}
}

func toProtocolRange(r symbol.Range) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(r.Start), End: toProtocolPosition(r.End)}
}
