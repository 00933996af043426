package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("MONGO_CONNECTION_STRING", "")
	t.Setenv("PARLEY_ADDR", "")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.LLMClient)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultMaxToolIterations, cfg.MaxToolIterations)
	assert.Equal(t, DefaultMongoDatabase, cfg.MongoDatabase)
	assert.Equal(t, DefaultRequestTimeout, cfg.InvokeTimeout())
	assert.Empty(t, cfg.MongoURI)
}

func TestLoadProjectConfigOverridesDefaults(t *testing.T) {
	isolate(t)

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := filepath.Join(wd, ".parley")
	require.NoError(t, os.MkdirAll(dir, 0755))
	yaml := `
llm: openai
model: gpt-4o
addr: ":9090"
request_timeout: 30s
tools:
  - get_weather
settings:
  team: platform
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLMClient)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.InvokeTimeout())
	assert.Equal(t, []string{"get_weather"}, cfg.ToolPatterns())
	assert.Equal(t, "platform", cfg.Setting("team", "none"))
	assert.Equal(t, "none", cfg.Setting("missing", "none"))
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PARLEY_ADDR", ":7000")
	t.Setenv("MONGO_CONNECTION_STRING", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	isolate(t)

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := filepath.Join(wd, ".parley")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("llm: cohere\n"), 0644))

	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm client")
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	isolate(t)

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := filepath.Join(wd, ".parley")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("request_timeout: soon\n"), 0644))

	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request_timeout")
}

func TestToolPatternsDefaultToEverything(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, []string{"*"}, cfg.ToolPatterns())
}
