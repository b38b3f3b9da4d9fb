package tools

import (
	"context"
	"strings"

	"github.com/adder-cli/adder/tools/mcp"
)

// mcpTool exposes one MCP server as a capability provider whose
// methods are the server's remote tools.
type mcpTool struct {
	client *mcp.Client
}

func newMCPTool(client *mcp.Client) *mcpTool {
	return &mcpTool{client: client}
}

func (t *mcpTool) Spec() Spec {
	spec := Spec{
		ToolName:    "MCP_" + strings.ToUpper(t.client.Name),
		Description: "Tools provided by the '" + t.client.Name + "' MCP server.",
	}
	for _, remote := range t.client.Tools() {
		spec.Methods = append(spec.Methods, MethodSpec{
			Name:        remote.Name,
			Description: remote.Description,
			// Parameter schemas live on the server; arguments pass
			// through untouched.
			Parameters:  map[string]ParameterSpec{},
			Destructive: !remote.ReadOnly,
		})
	}
	return spec
}

func (t *mcpTool) Execute(ctx context.Context, method string, args map[string]interface{}) (string, error) {
	return t.client.Call(ctx, method, args)
}
