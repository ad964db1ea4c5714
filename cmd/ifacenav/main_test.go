package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0muji4/ifacenav/internal/nav"
	"github.com/0muji4/ifacenav/internal/symbol"
)

var project = map[string]string{
	"store/repo.go": `package store

type Repo interface {
	Save(id string) error
}
`,
	"store/sql.go": `package store

type SqlRepo struct{}

func (s *SqlRepo) Save(id string) error { return nil }
`,
	"store/mem.go": `package store

type MemRepo struct{}

func (m *MemRepo) Save(id string) error { return nil }
`,
	"store/repo_test.go": `package store
`,
}

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range project {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

// execute runs the CLI against the offline provider.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("IFACENAV_PROVIDER", "ast")
	t.Setenv("IFACENAV_LOG_LEVEL", "error")
	pick, lensesChanged, lensesJSON = 0, false, false

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		arg     string
		path    string
		pos     symbol.Position
		wantErr bool
	}{
		{arg: "/w/repo.go:4:2", path: "/w/repo.go", pos: symbol.Position{Line: 3, Character: 1}},
		{arg: "/w/repo.go:4", path: "/w/repo.go", pos: symbol.Position{Line: 3}},
		{arg: "/w/a:b.go:10:3", path: "/w/a:b.go", pos: symbol.Position{Line: 9, Character: 2}},
		{arg: "/w/repo.go", wantErr: true},
		{arg: "/w/repo.go:0:1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			path, pos, err := parseLocation(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.path), path)
			assert.Equal(t, tt.pos, pos)
		})
	}
}

func TestTerminalHostPrompt(t *testing.T) {
	candidates := []nav.Candidate{
		{Label: "1. store.MemRepo", Description: "/w/store/mem.go"},
		{Label: "2. store.SqlRepo", Description: "/w/store/sql.go"},
	}
	ctx := context.Background()

	var out, errOut bytes.Buffer
	h := newTerminalHost("", 0, strings.NewReader("2\n"), &out, &errOut)
	idx, ok, err := h.Select(ctx, "Select implementation of Save", candidates)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "Select implementation of Save\n"+
		"  1. store.MemRepo  /w/store/mem.go\n"+
		"  2. store.SqlRepo  /w/store/sql.go\n> ", errOut.String())

	for _, input := range []string{"", "\n", "x\n", "9\n"} {
		h = newTerminalHost("", 0, strings.NewReader(input), &out, &errOut)
		_, ok, err = h.Select(ctx, "pick", candidates)
		require.NoError(t, err)
		assert.False(t, ok, "input %q dismisses", input)
	}

	h = newTerminalHost("", 1, strings.NewReader(""), &out, &errOut)
	idx, ok, err = h.Select(ctx, "pick", candidates)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	h = newTerminalHost("", 3, strings.NewReader(""), &out, &errOut)
	_, _, err = h.Select(ctx, "pick", candidates)
	assert.ErrorContains(t, err, "out of range")
}

func TestLensesCommand(t *testing.T) {
	root := writeProject(t)

	stdout, _, err := execute(t, "", "lenses", "--root", root)
	require.NoError(t, err)
	assert.Equal(t,
		filepath.Join("store", "mem.go")+":5:19\t↑ Go to Interface\tSave\n"+
			filepath.Join("store", "repo.go")+":4:2\t↓ Go to Implementation\n"+
			filepath.Join("store", "sql.go")+":5:19\t↑ Go to Interface\tSave\n",
		stdout)
}

func TestImplCommandPromptsOnStdin(t *testing.T) {
	root := writeProject(t)
	loc := filepath.Join(root, "store", "repo.go") + ":4:2"

	stdout, stderr, err := execute(t, "2\n", "impl", "--root", root, loc)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Select implementation of Save")
	assert.Equal(t, filepath.Join(root, "store", "sql.go")+":5:19\n", stdout)

	stdout, _, err = execute(t, "", "impl", "--root", root, "--pick", "1", loc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "store", "mem.go")+":5:19\n", stdout)
}

func TestMissingRootIsAnError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	_, _, err := execute(t, "", "impl", "--root", missing, filepath.Join(missing, "repo.go")+":4:2")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIfaceCommandReportsMessages(t *testing.T) {
	root := writeProject(t)
	loc := filepath.Join(root, "store", "sql.go") + ":5"

	stdout, stderr, err := execute(t, "", "iface", "--root", root, "Save", loc)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, "info: No interface found for method: Save\n", stderr)

	_, stderr, err = execute(t, "", "iface", "--root", root, "Load", loc)
	assert.ErrorContains(t, err, "navigation failed")
	assert.Contains(t, stderr, "error: Could not find method symbol for: Load\n")
}
