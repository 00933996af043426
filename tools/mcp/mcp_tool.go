// Package mcp connects to external MCP tool servers and exposes their tools
// through the same interface as the built-in ones. Each configured server runs
// as a subprocess speaking MCP over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/parleyhq/parley/errors"
)

// Client manages the connection to a single MCP server subprocess and the
// tools it advertises.
type Client struct {
	Name  string
	cmd   *exec.Cmd
	conn  *mcpsdk.ClientSession
	tools map[string]*Tool
}

// NewClient starts the MCP server subprocess, connects, and discovers its
// tools. The caller owns the client and must Stop it at shutdown.
func NewClient(ctx context.Context, name, command string, args []string) (*Client, error) {
	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr

	mcpClient := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "parley", Version: "v1.0.0"}, nil)
	conn, err := mcpClient.Connect(ctx, mcpsdk.NewCommandTransport(cmd))
	if err != nil {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return nil, errors.Wrapf(err, "failed to connect to MCP server %q", name)
	}

	c := &Client{
		Name:  name,
		cmd:   cmd,
		conn:  conn,
		tools: make(map[string]*Tool),
	}

	params := &mcpsdk.ListToolsParams{}
	for {
		list, err := conn.ListTools(ctx, params)
		if err != nil {
			_ = c.Stop()
			return nil, errors.Wrapf(err, "failed to list tools from MCP server %q", name)
		}
		for _, t := range list.Tools {
			c.tools[t.Name] = &Tool{
				serverName:  name,
				toolName:    t.Name,
				description: t.Description,
				inputSchema: decodeSchema(t.InputSchema),
				client:      c,
			}
		}
		if list.NextCursor == "" {
			break
		}
		params.Cursor = list.NextCursor
	}

	slog.Info("MCP server initialized", "server", name, "tools", len(c.tools))
	return c, nil
}

// Tools returns all tools advertised by this server.
func (c *Client) Tools() []*Tool {
	out := make([]*Tool, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, t)
	}
	return out
}

// Stop closes the connection and terminates the subprocess.
func (c *Client) Stop() error {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		slog.Info("terminating MCP server", "server", c.Name)
		return c.cmd.Process.Kill()
	}
	return nil
}

// Tool is a single tool served by an external MCP server. It satisfies the
// tools.Tool interface of the parent package.
type Tool struct {
	serverName  string
	toolName    string
	description string
	inputSchema map[string]interface{}
	client      *Client
}

// Name qualifies the tool with its server name so tools from different
// servers never collide in the registry.
func (t *Tool) Name() string {
	return t.serverName + ":" + t.toolName
}

func (t *Tool) Description() string { return t.description }

// Parameters returns the input schema advertised by the server, or a
// permissive empty object when the server did not provide one.
func (t *Tool) Parameters() map[string]interface{} {
	if t.inputSchema != nil {
		return t.inputSchema
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// Execute forwards the call to the MCP server and concatenates the text
// content blocks of the result.
func (t *Tool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	result, err := t.client.conn.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      t.toolName,
		Arguments: args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to call tool %q", t.Name())
	}

	var out string
	for _, content := range result.Content {
		if text, ok := content.(*mcpsdk.TextContent); ok {
			out += text.Text
		}
	}
	return out, nil
}

// decodeSchema converts whatever schema representation the SDK hands back
// into a plain map for the provider clients.
func decodeSchema(schema interface{}) map[string]interface{} {
	if schema == nil {
		return nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
