package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

var _ nav.Host = (*terminalHost)(nil)

// terminalHost prints targets to out and talks to the user on errOut.
// Without pick, Select reads a candidate number from in; an empty line or EOF
// dismisses the prompt.
type terminalHost struct {
	active string
	pick   int
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func newTerminalHost(active string, pick int, in io.Reader, out, errOut io.Writer) *terminalHost {
	return &terminalHost{active: active, pick: pick, in: bufio.NewReader(in), out: out, errOut: errOut}
}

func (h *terminalHost) ActiveDocument(context.Context) (string, bool) {
	return h.active, h.active != ""
}

func (h *terminalHost) Select(_ context.Context, placeholder string, candidates []nav.Candidate) (int, bool, error) {
	if h.pick > 0 {
		if h.pick > len(candidates) {
			return 0, false, errors.Newf("--pick %d out of range: %d candidates", h.pick, len(candidates))
		}
		return h.pick - 1, true, nil
	}

	fmt.Fprintln(h.errOut, placeholder)
	for _, c := range candidates {
		fmt.Fprintf(h.errOut, "  %s  %s\n", c.Label, c.Description)
	}
	fmt.Fprint(h.errOut, "> ")

	line, err := h.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, false, errors.Wrap(err, "read selection")
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(candidates) {
		return 0, false, nil
	}
	return n - 1, true, nil
}

func (h *terminalHost) Navigate(_ context.Context, loc symbol.Location) error {
	_, err := fmt.Fprintln(h.out, nav.FormatLocation(loc))
	return err
}

func (h *terminalHost) Inform(_ context.Context, severity nav.Severity, message string) error {
	_, err := fmt.Fprintf(h.errOut, "%s: %s\n", severity, message)
	return err
}

// parseLocation splits "path:line[:col]" into an absolute path and a
// zero-based position.
func parseLocation(arg string) (string, symbol.Position, error) {
	parts := strings.Split(arg, ":")
	var nums []int
	for len(parts) > 1 && len(nums) < 2 {
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		parts = parts[:len(parts)-1]
	}
	if len(nums) == 0 {
		return "", symbol.Position{}, errors.Newf("want path:line[:col], got %q", arg)
	}

	line, col := nums[0], 1
	if len(nums) == 2 {
		col = nums[1]
	}
	if line < 1 || col < 1 {
		return "", symbol.Position{}, errors.Newf("line and column start at 1 in %q", arg)
	}

	path, err := filepath.Abs(strings.Join(parts, ":"))
	if err != nil {
		return "", symbol.Position{}, errors.Wrapf(err, "resolve %s", arg)
	}
	return path, symbol.Position{Line: line - 1, Character: col - 1}, nil
}
