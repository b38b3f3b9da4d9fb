package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "openai", cfg.LLMClient)
	assert.True(t, cfg.Policy.ToolsEnabled)
	assert.True(t, cfg.Policy.AutoExecuteNonDestructive)
	assert.False(t, cfg.Policy.AutoExecuteDestructive)
	assert.Equal(t, 4096, cfg.Context.TokenWindowSize)
	assert.Equal(t, 0.8, cfg.Context.CompressionThreshold)
	assert.Equal(t, 10, cfg.Context.RecentMessagesToKeep)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.True(t, cfg.ReevaluationEnabled)
}

func TestLoadFromFileMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: claude-sonnet-4-5
max_retries: 5
context:
  token_window_size: 8192
  compression_threshold: 0.7
  recent_messages_to_keep: 6
allowed_commands:
  - "^git status$"
`), 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(path, cfg))

	assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 8192, cfg.Context.TokenWindowSize)
	assert.Equal(t, 6, cfg.Context.RecentMessagesToKeep)
	assert.Equal(t, []string{"^git status$"}, cfg.AllowedCommands)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, "openai", cfg.LLMClient)
	assert.True(t, cfg.Policy.ToolsEnabled)
}

func TestGetToolset(t *testing.T) {
	cfg := Default()

	// No toolsets configured: every tool is active.
	ts, err := cfg.GetToolset("coding")
	require.NoError(t, err)
	assert.Nil(t, ts)

	cfg.Toolsets = []Toolset{
		{Name: "default", Tools: []string{"FILE_EXPLORER"}},
		{Name: "web", Tools: []string{"WEB_SEARCH", "WEB_SCRAPER"}},
	}

	ts, err = cfg.GetToolset("web")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, []string{"WEB_SEARCH", "WEB_SCRAPER"}, ts.Tools)

	// Unknown names fall back to default.
	ts, err = cfg.GetToolset("nonexistent")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, "default", ts.Name)

	// Empty name means default too.
	ts, err = cfg.GetToolset("")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, "default", ts.Name)
}

func TestGetToolsetMissingDefault(t *testing.T) {
	cfg := Default()
	cfg.Toolsets = []Toolset{{Name: "web", Tools: []string{"WEB_SEARCH"}}}
	_, err := cfg.GetToolset("")
	assert.Error(t, err)
}
