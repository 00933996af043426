package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/parleyhq/parley/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr              = ":8080"
	DefaultRequestTimeout    = 120 * time.Second
	DefaultMaxToolIterations = 8
	DefaultMongoDatabase     = "parley"
)

// MCPServer describes an external MCP tool server started as a subprocess.
type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Config holds all process-wide settings. It is loaded once at startup and
// treated as read-only afterwards.
type Config struct {
	// LLMClient selects the provider: openai, anthropic, gemini, bedrock or mock.
	LLMClient string `yaml:"llm"`
	Model     string `yaml:"model"`

	// Addr is the HTTP listen address. Overridable via PARLEY_ADDR.
	Addr string `yaml:"addr"`

	// SystemPromptPath points at a plain-text system prompt file. Empty means
	// the built-in default prompt.
	SystemPromptPath string `yaml:"system_prompt"`

	// RequestTimeout bounds a single /invoke round trip, e.g. "90s".
	RequestTimeout string `yaml:"request_timeout"`

	// MaxToolIterations caps the LLM -> tool -> LLM loop per invocation.
	MaxToolIterations int `yaml:"max_tool_iterations"`

	// Tools selects active tools by name; doublestar globs are supported
	// ("*", "get_*", "docs:*"). Empty selects every registered tool.
	Tools []string `yaml:"tools"`

	AdditionalMCPServers []MCPServer `yaml:"additional_mcp_servers"`

	// MongoDatabase names the database used by sessions and storage-backed
	// tools when MONGO_CONNECTION_STRING is set.
	MongoDatabase string `yaml:"mongo_database"`

	// Settings carries arbitrary deployment-specific keys for custom tools.
	Settings map[string]string `yaml:"settings"`

	// MongoURI comes from MONGO_CONNECTION_STRING, never from YAML.
	MongoURI string `yaml:"-"`
}

// Load builds the configuration from .env files, YAML config files and the
// environment. The user-level file (~/.parley/config.yaml) is loaded first,
// then the project-level file (./.parley/config.yaml) on top of it.
func Load() (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{
		LLMClient:         "mock",
		Addr:              DefaultAddr,
		MaxToolIterations: DefaultMaxToolIterations,
		MongoDatabase:     DefaultMongoDatabase,
	}

	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".parley", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			if err := loadFromFile(userPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectPath := filepath.Join(wd, ".parley", "config.yaml")
	if _, err := os.Stat(projectPath); err == nil {
		if err := loadFromFile(projectPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	cfg.MongoURI = os.Getenv("MONGO_CONNECTION_STRING")
	if addr := os.Getenv("PARLEY_ADDR"); addr != "" {
		cfg.Addr = addr
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites fields present in the YAML, so the project-level
	// file replaces matching keys from the user-level file.
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) validate() error {
	switch c.LLMClient {
	case "openai", "anthropic", "gemini", "bedrock", "mock", "":
	default:
		return errors.New("unknown llm client %q (expected openai, anthropic, gemini, bedrock or mock)", c.LLMClient)
	}
	if c.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
			return errors.Wrapf(err, "invalid request_timeout %q", c.RequestTimeout)
		}
	}
	if c.MaxToolIterations < 1 {
		return errors.New("max_tool_iterations must be at least 1")
	}
	return nil
}

// InvokeTimeout returns the parsed per-request timeout, or the default.
func (c *Config) InvokeTimeout() time.Duration {
	if c.RequestTimeout == "" {
		return DefaultRequestTimeout
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return DefaultRequestTimeout
	}
	return d
}

// ToolPatterns returns the configured tool selection, defaulting to all tools.
func (c *Config) ToolPatterns() []string {
	if len(c.Tools) == 0 {
		return []string{"*"}
	}
	return c.Tools
}

// Setting returns a free-form custom setting, or the given fallback when the
// key is absent.
func (c *Config) Setting(key, fallback string) string {
	if v, ok := c.Settings[key]; ok {
		return v
	}
	return fallback
}
