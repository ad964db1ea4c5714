package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGopls = "gopls"
	ProviderAST   = "ast"
)

// Config is the ifacenav configuration file.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Lens     LensConfig     `yaml:"lens"`
	Agent    AgentConfig    `yaml:"agent"`
	Log      LogConfig      `yaml:"log"`
	Watch    WatchConfig    `yaml:"watch"`
}

type ProviderConfig struct {
	// Kind is "gopls" or "ast".
	Kind      string   `yaml:"kind"`
	GoplsPath string   `yaml:"gopls_path"`
	GoplsArgs []string `yaml:"gopls_args"`
}

type LensConfig struct {
	ImplementationTitle string `yaml:"implementation_title"`
	InterfaceTitle      string `yaml:"interface_title"`
}

type AgentConfig struct {
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

type LogConfig struct {
	JSON  bool   `yaml:"json"`
	Level string `yaml:"level"`
}

type WatchConfig struct {
	DebounceMS int      `yaml:"debounce_ms"`
	Include    []string `yaml:"include"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Kind:      ProviderGopls,
			GoplsPath: "gopls",
			GoplsArgs: []string{"serve"},
		},
		Lens: LensConfig{
			ImplementationTitle: "↓ Go to Implementation",
			InterfaceTitle:      "↑ Go to Interface",
		},
		Agent: AgentConfig{
			Model: "gemini-2.5-flash",
			SystemPrompt: "You help Go developers move between interface methods and their implementations. " +
				"Use the tools to look symbols up; answer with file:line locations.",
		},
		Log:   LogConfig{Level: "info"},
		Watch: WatchConfig{DebounceMS: 300, Include: []string{"**/*.go"}},
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("IFACENAV_GOPLS"); v != "" {
		cfg.Provider.GoplsPath = v
	}
	if v := os.Getenv("IFACENAV_PROVIDER"); v != "" {
		cfg.Provider.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("IFACENAV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderGopls, ProviderAST:
	default:
		return errors.Newf("unknown provider kind %q (want %q or %q)", c.Provider.Kind, ProviderGopls, ProviderAST)
	}
	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS)
	}
	return nil
}
