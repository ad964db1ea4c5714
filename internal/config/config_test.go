package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ifacenav.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderGopls, cfg.Provider.Kind)
	assert.Equal(t, []string{"serve"}, cfg.Provider.GoplsArgs)
	assert.Equal(t, "↓ Go to Implementation", cfg.Lens.ImplementationTitle)
	assert.Equal(t, 300, cfg.Watch.DebounceMS)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  kind: ast
lens:
  interface_title: "up"
log:
  json: true
  level: debug
watch:
  include: ["internal/**/*.go"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAST, cfg.Provider.Kind)
	assert.Equal(t, "gopls", cfg.Provider.GoplsPath, "unset keys keep defaults")
	assert.Equal(t, "up", cfg.Lens.InterfaceTitle)
	assert.Equal(t, "↓ Go to Implementation", cfg.Lens.ImplementationTitle)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"internal/**/*.go"}, cfg.Watch.Include)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("IFACENAV_GOPLS", "/opt/gopls")
	t.Setenv("IFACENAV_PROVIDER", "AST")
	t.Setenv("IFACENAV_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "provider:\n  kind: gopls\n"))
	require.NoError(t, err)

	assert.Equal(t, "/opt/gopls", cfg.Provider.GoplsPath)
	assert.Equal(t, ProviderAST, cfg.Provider.Kind)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "provider: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "provider:\n  kind: clangd\n"))
	assert.ErrorContains(t, err, `unknown provider kind "clangd"`)
}
