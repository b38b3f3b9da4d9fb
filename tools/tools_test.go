package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adder-cli/adder/config"
)

func newTestRegistry(t *testing.T, cfg *config.Config, ts *config.Toolset) *Registry {
	t.Helper()
	r, err := NewRegistry(cfg, ts)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestRegistryBuiltins(t *testing.T) {
	r := newTestRegistry(t, config.Default(), nil)

	names := make([]string, 0)
	for _, spec := range r.Specs() {
		names = append(names, spec.ToolName)
	}
	assert.Equal(t, []string{"FILE_EXPLORER", "FILE_MANAGER", "SHELL", "WEB_SCRAPER"}, names)

	// WEB_SEARCH appears only when credentials are configured.
	cfg := config.Default()
	cfg.WebSearch = config.WebSearch{APIKey: "key", SearchEngineID: "cx"}
	r = newTestRegistry(t, cfg, nil)
	_, ok := r.Get("WEB_SEARCH")
	assert.True(t, ok)
}

func TestRegistryToolsetFilter(t *testing.T) {
	ts := &config.Toolset{Name: "readonly", Tools: []string{"file_explorer"}}
	r := newTestRegistry(t, config.Default(), ts)

	_, ok := r.Get("FILE_EXPLORER")
	assert.True(t, ok, "toolset matching is case-insensitive")
	_, ok = r.Get("FILE_MANAGER")
	assert.False(t, ok)
	assert.Len(t, r.Specs(), 1)
}

func TestRegistryMethodSpec(t *testing.T) {
	r := newTestRegistry(t, config.Default(), nil)

	m, err := r.MethodSpec("FILE_MANAGER", "delete_file")
	require.NoError(t, err)
	assert.True(t, m.Destructive)

	m, err = r.MethodSpec("FILE_EXPLORER", "read_file")
	require.NoError(t, err)
	assert.False(t, m.Destructive)

	_, err = r.MethodSpec("NOPE", "read_file")
	assert.Error(t, err)
	_, err = r.MethodSpec("FILE_EXPLORER", "nope")
	assert.Error(t, err)
}

func TestFileExplorer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("remember the milk"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	tool := &FileExplorerTool{fsAccess: &config.FilesystemAccess{}}
	ctx := context.Background()

	out, err := tool.Execute(ctx, "read_file", map[string]interface{}{"path": filepath.Join(dir, "notes.txt")})
	require.NoError(t, err)
	assert.Equal(t, "remember the milk", out)

	out, err = tool.Execute(ctx, "list_directory", map[string]interface{}{"path": dir})
	require.NoError(t, err)
	assert.Equal(t, "notes.txt\nsub/", out)

	_, err = tool.Execute(ctx, "read_file", map[string]interface{}{"path": filepath.Join(dir, "missing.txt")})
	assert.Error(t, err)

	_, err = tool.Execute(ctx, "read_file", map[string]interface{}{})
	assert.Error(t, err)
}

func TestFileExplorerHiddenPaths(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, ".adder", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(secret), 0755))
	require.NoError(t, os.WriteFile(secret, []byte("llm: openai"), 0644))

	tool := &FileExplorerTool{fsAccess: &config.FilesystemAccess{
		Hidden: []string{"**/.adder", "**/.adder/**"},
	}}
	_, err := tool.Execute(context.Background(), "read_file", map[string]interface{}{"path": secret})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hidden")
}

func TestFileManager(t *testing.T) {
	dir := t.TempDir()
	tool := &FileManagerTool{fsAccess: &config.FilesystemAccess{
		ReadOnly: []string{"**/*.lock"},
	}}
	ctx := context.Background()
	target := filepath.Join(dir, "out.txt")

	out, err := tool.Execute(ctx, "create_file", map[string]interface{}{"path": target, "content": "hello"})
	require.NoError(t, err)
	assert.Contains(t, out, "5 bytes")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = tool.Execute(ctx, "create_file", map[string]interface{}{"path": filepath.Join(dir, "deps.lock"), "content": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	_, err = tool.Execute(ctx, "delete_file", map[string]interface{}{"path": target})
	require.NoError(t, err)
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestShellAllowlist(t *testing.T) {
	ctx := context.Background()

	tool := &ShellTool{allowedCommands: []string{`^echo( .*)?$`}}
	out, err := tool.Execute(ctx, "run_command", map[string]interface{}{"command": "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", strings.TrimSpace(out))

	_, err = tool.Execute(ctx, "run_command", map[string]interface{}{"command": "rm -rf /"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the list of allowed commands")

	// Empty allowlist denies everything.
	tool = &ShellTool{}
	_, err = tool.Execute(ctx, "run_command", map[string]interface{}{"command": "echo hello"})
	assert.Error(t, err)
}

func TestIsCommandAllowed(t *testing.T) {
	allowed := []string{`^git (status|log)$`, `((broken`}

	tests := []struct {
		command string
		want    bool
	}{
		{"git status", true},
		{"git log", true},
		{"git push", false},
		{"((broken", true}, // invalid regex degrades to a literal match
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		got, err := isCommandAllowed(tt.command, allowed)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "command %q", tt.command)
	}
}

func TestIsPathRestricted(t *testing.T) {
	patterns := []string{".adder", ".adder/**", "**/*.pem"}

	for path, want := range map[string]bool{
		".adder":                  true,
		".adder/conversations.json": true,
		"certs/server.pem":        true,
		"README.md":               false,
	} {
		got, err := isPathRestricted(path, patterns)
		require.NoError(t, err)
		assert.Equal(t, want, got, "path %q", path)
	}
}
