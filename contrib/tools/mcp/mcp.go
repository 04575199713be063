// Package mcp exposes tools served by an MCP server as local tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/reagent/tool"
)

// ToolError is returned when the MCP server reports an error response.
type ToolError struct {
	Name    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("mcp tool %s: %s", e.Name, e.Message)
}

// Client wraps an MCP client session.
type Client struct {
	session *sdkmcp.ClientSession
}

// Connect establishes a session with an MCP server over the given transport.
func Connect(ctx context.Context, transport sdkmcp.Transport) (*Client, error) {
	impl := &sdkmcp.Implementation{Name: "reagent", Version: "0.1.0"}
	session, err := sdkmcp.NewClient(impl, nil).Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp connect: %w", err)
	}
	return &Client{session: session}, nil
}

// Close terminates the session.
func (c *Client) Close() error {
	return c.session.Close()
}

// ListAllTools returns the full set of tools exposed by the MCP server.
func (c *Client) ListAllTools(ctx context.Context) ([]*sdkmcp.Tool, error) {
	params := &sdkmcp.ListToolsParams{}
	var tools []*sdkmcp.Tool
	for {
		res, err := c.session.ListTools(ctx, params)
		if err != nil {
			return nil, err
		}
		tools = append(tools, res.Tools...)
		if res.NextCursor == "" {
			break
		}
		params.Cursor = res.NextCursor
	}
	return tools, nil
}

// CallTool invokes a remote MCP tool and returns the textual response.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	result, err := c.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", err
	}

	message := normalizeContent(result.Content)
	if result.IsError {
		if message == "" {
			message = "tool returned error without message"
		}
		return "", &ToolError{Name: name, Message: message}
	}
	return message, nil
}

// Tools converts the remote tool definitions into local tools. A tool input
// that parses as a JSON object is forwarded as arguments; anything else is
// wrapped under the schema's first required property.
func (c *Client) Tools(ctx context.Context) ([]tool.Tool, error) {
	defs, err := c.ListAllTools(ctx)
	if err != nil {
		return nil, err
	}

	tools := make([]tool.Tool, 0, len(defs))
	for _, def := range defs {
		if def == nil {
			continue
		}
		description := def.Description
		if description == "" && def.Annotations != nil {
			description = def.Annotations.Title
		}
		tools = append(tools, &remoteTool{
			client:      c,
			name:        def.Name,
			description: description,
			argName:     firstRequiredProperty(def.InputSchema),
		})
	}
	return tools, nil
}

// RegisterTools fetches remote tools and registers them with a local
// registry, replacing same-named entries.
func (c *Client) RegisterTools(ctx context.Context, registry *tool.Registry) error {
	tools, err := c.Tools(ctx)
	if err != nil {
		return err
	}
	for _, t := range tools {
		if err := registry.Upsert(t); err != nil {
			return fmt.Errorf("register tool %s: %w", t.Name(), err)
		}
	}
	return nil
}

type remoteTool struct {
	client      *Client
	name        string
	description string
	argName     string
}

func (t *remoteTool) Name() string        { return t.name }
func (t *remoteTool) Description() string { return t.description }

func (t *remoteTool) Invoke(ctx context.Context, input string) (string, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil || args == nil {
		args = map[string]any{t.argName: input}
	}
	return t.client.CallTool(ctx, t.name, args)
}

func normalizeContent(content []sdkmcp.Content) string {
	if len(content) == 0 {
		return ""
	}
	parts := make([]string, 0, len(content))
	for _, c := range content {
		switch v := c.(type) {
		case *sdkmcp.TextContent:
			parts = append(parts, v.Text)
		default:
			if data, err := json.Marshal(c); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// firstRequiredProperty picks the argument name a bare string input maps to.
func firstRequiredProperty(schema any) string {
	raw, err := json.Marshal(schema)
	if err != nil {
		return "input"
	}
	var parsed struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Required) == 0 {
		return "input"
	}
	return parsed.Required[0]
}
