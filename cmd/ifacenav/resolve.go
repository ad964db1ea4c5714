package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/0muji4/ifacenav/internal/app"
	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

var pick int

var implCmd = &cobra.Command{
	Use:   "impl <path:line[:col]>",
	Short: "Resolve the implementations of an interface method",
	Long: `Print the location of the implementation of the interface method whose name
is at path:line:col. When several implementations match, a numbered list is
shown and the choice is read from stdin; --pick answers it up front.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, pos, err := parseLocation(args[0])
		if err != nil {
			return err
		}
		uri := symbol.URIFromPath(path)
		return resolve(cmd, uri, func(n *nav.Navigator, host nav.Host) nav.Outcome {
			return n.ResolveImplementation(cmd.Context(), host, uri, pos)
		})
	},
}

var ifaceCmd = &cobra.Command{
	Use:   "iface <method> <path:line[:col]>",
	Short: "Resolve the interface method an implementation satisfies",
	Long: `Print the location of the interface method satisfied by the function or
method named <method> declared around path:line.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, pos, err := parseLocation(args[1])
		if err != nil {
			return err
		}
		return resolve(cmd, symbol.URIFromPath(path), func(n *nav.Navigator, host nav.Host) nav.Outcome {
			return n.ResolveInterface(cmd.Context(), host, args[0], pos)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{implCmd, ifaceCmd} {
		c.Flags().IntVar(&pick, "pick", 0, "Choose the n-th candidate (1-based) instead of prompting")
	}
}

func resolve(cmd *cobra.Command, uri string, run func(*nav.Navigator, nav.Host) nav.Outcome) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	p, n, err := openNavigator(cmd.Context(), root)
	if err != nil {
		return err
	}
	defer app.Close(p, application.Logger)

	host := newTerminalHost(uri, pick, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	out := run(n, host)
	application.Logger.Debugw("resolution finished", "outcome", out.Kind.String(), "message", out.Message)

	if out.Kind == nav.Failed {
		return errors.Newf("navigation failed: %s", out.Message)
	}
	return nil
}
