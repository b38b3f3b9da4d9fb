// Package mcp manages connections to external MCP server subprocesses
// and exposes their remote tools to the agent.
package mcp

import (
	"context"
	"os"
	"os/exec"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adder-cli/adder/errors"
)

// RemoteTool describes one tool offered by an MCP server.
type RemoteTool struct {
	Name        string
	Description string
	// ReadOnly reflects the server's read-only annotation; tools
	// without the hint are treated as destructive.
	ReadOnly bool
}

// Client manages the connection to a single MCP server subprocess.
type Client struct {
	Name  string
	cmd   *exec.Cmd
	conn  *mcpsdk.ClientSession
	tools []RemoteTool
}

// NewClient starts the MCP server subprocess, connects, and discovers
// its tools.
func NewClient(name, command string, args []string) (*Client, error) {
	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr

	mcpClient := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "adder", Version: "v1.0.0"}, nil)
	ctx := context.Background()
	conn, err := mcpClient.Connect(ctx, mcpsdk.NewCommandTransport(cmd))
	if err != nil {
		cmd.Process.Kill()
		return nil, errors.Wrapf(err, "failed to connect to MCP server '%s'", name)
	}

	client := &Client{Name: name, cmd: cmd, conn: conn}

	params := &mcpsdk.ListToolsParams{}
	for {
		list, err := conn.ListTools(ctx, params)
		if err != nil {
			cmd.Process.Kill()
			return nil, errors.Wrapf(err, "failed to list tools from MCP server '%s'", name)
		}
		for _, t := range list.Tools {
			readOnly := t.Annotations != nil && t.Annotations.ReadOnlyHint
			client.tools = append(client.tools, RemoteTool{
				Name:        t.Name,
				Description: t.Description,
				ReadOnly:    readOnly,
			})
		}
		if list.NextCursor == "" {
			break
		}
		params.Cursor = list.NextCursor
	}

	return client, nil
}

// Tools lists the discovered remote tools.
func (c *Client) Tools() []RemoteTool {
	return c.tools
}

// Call invokes a remote tool and concatenates its text content.
func (c *Client) Call(ctx context.Context, tool string, args map[string]interface{}) (string, error) {
	result, err := c.conn.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      tool,
		Arguments: args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to call tool '%s' on MCP server '%s'", tool, c.Name)
	}
	out := ""
	for _, content := range result.Content {
		if text, ok := content.(*mcpsdk.TextContent); ok {
			out += text.Text
		}
	}
	return out, nil
}

// Stop terminates the MCP server subprocess.
func (c *Client) Stop() error {
	if c.conn != nil {
		c.conn.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		return c.cmd.Process.Kill()
	}
	return nil
}
