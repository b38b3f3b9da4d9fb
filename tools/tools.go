// Package tools defines the capability providers the agent can invoke.
// Every tool declares a spec listing its methods, their parameters, and
// whether each method is destructive; the execution policy is enforced
// by the gateway using those declared flags, never caller-supplied
// data.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/adder-cli/adder/config"
	"github.com/adder-cli/adder/errors"
	"github.com/adder-cli/adder/tools/mcp"
)

// ParameterSpec describes one argument of a tool method.
type ParameterSpec struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// MethodSpec describes one callable method of a tool. Destructive
// methods may mutate or delete external state and are subject to
// stricter confirmation policy.
type MethodSpec struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Parameters  map[string]ParameterSpec `json:"parameters"`
	Destructive bool                     `json:"destructive"`
}

// Spec is a tool's self-description.
type Spec struct {
	ToolName    string       `json:"tool_name"`
	Description string       `json:"description"`
	Methods     []MethodSpec `json:"methods"`
}

// Method finds a method spec by name.
func (s Spec) Method(name string) (MethodSpec, bool) {
	for _, m := range s.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodSpec{}, false
}

// Tool is a capability provider: a fixed spec plus an executor.
type Tool interface {
	Spec() Spec
	Execute(ctx context.Context, method string, args map[string]interface{}) (string, error)
}

// Registry holds all active tools, keyed by tool name.
type Registry struct {
	tools      map[string]Tool
	order      []string
	mcpClients []*mcp.Client
}

// NewRegistry builds the registry for a configuration, registering the
// built-in tools, any configured MCP servers, and filtering by the
// given toolset (nil toolset activates everything).
func NewRegistry(cfg *config.Config, ts *config.Toolset) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}

	r.register(ts, &FileExplorerTool{fsAccess: &cfg.FilesystemAccess})
	r.register(ts, &FileManagerTool{fsAccess: &cfg.FilesystemAccess})
	r.register(ts, &ShellTool{allowedCommands: cfg.AllowedCommands})
	if cfg.WebSearch.APIKey != "" {
		r.register(ts, NewWebSearchTool(cfg.WebSearch))
	}
	r.register(ts, NewWebScraperTool())

	for _, server := range cfg.AdditionalMCPServers {
		client, err := mcp.NewClient(server.Name, server.Command, server.Args)
		if err != nil {
			slog.Warn("skipping MCP server", "server", server.Name, "error", err)
			continue
		}
		r.mcpClients = append(r.mcpClients, client)
		r.register(ts, newMCPTool(client))
	}

	return r, nil
}

// Register adds a tool unconditionally, replacing any tool with the
// same name.
func (r *Registry) Register(t Tool) {
	r.register(nil, t)
}

func (r *Registry) register(ts *config.Toolset, t Tool) {
	name := t.Spec().ToolName
	if ts != nil && !toolsetAllows(ts, name) {
		return
	}
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

func toolsetAllows(ts *config.Toolset, name string) bool {
	for _, allowed := range ts.Tools {
		if strings.EqualFold(allowed, name) {
			return true
		}
	}
	return false
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs returns every active tool spec in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Spec())
	}
	return out
}

// MethodSpec resolves a tool+method pair against the registry.
func (r *Registry) MethodSpec(tool, method string) (MethodSpec, error) {
	t, ok := r.tools[tool]
	if !ok {
		return MethodSpec{}, errors.New("tool '%s' not found", tool)
	}
	m, ok := t.Spec().Method(method)
	if !ok {
		return MethodSpec{}, errors.New("method '%s' not found in tool '%s'", method, tool)
	}
	return m, nil
}

// Close stops any MCP server subprocesses.
func (r *Registry) Close() {
	for _, client := range r.mcpClients {
		if err := client.Stop(); err != nil {
			slog.Warn("failed to stop MCP server", "server", client.Name, "error", err)
		}
	}
}

// isPathRestricted checks whether a path matches any of the glob
// patterns.
func isPathRestricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// isCommandAllowed checks a command against the allowlist, treating
// each entry as a regular expression with a literal-match fallback for
// invalid patterns.
func isCommandAllowed(command string, allowed []string) (bool, error) {
	if len(strings.Fields(command)) == 0 {
		return false, nil
	}
	for _, pattern := range allowed {
		re, err := regexp.Compile(pattern)
		if err != nil {
			slog.Warn("invalid regex in allowed_commands", "pattern", pattern, "error", err)
			if command == pattern {
				return true, nil
			}
			continue
		}
		if re.MatchString(command) {
			return true, nil
		}
	}
	return false, nil
}

// stringArg extracts a required string argument.
func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing or invalid '%s' argument", key)
	}
	return v, nil
}
