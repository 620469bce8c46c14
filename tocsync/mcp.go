// CLAUDE:SUMMARY Registers pagetoc_list, pagetoc_navigate, pagetoc_cycle_corner, pagetoc_toggle_collapse and pagetoc_markdown MCP tools via kit.RegisterMCPTool.
package tocsync

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/pagetoc/kit"
)

// RegisterMCP registers the TOC tools on an MCP server.
func (e *Engine) RegisterMCP(srv *mcp.Server) {
	ep := e.endpoints()

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "pagetoc_list",
		Description: "List the table of contents of the page: entries in document order, the active entry and the overlay placement.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, ep.list, noArgs)

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "pagetoc_navigate",
		Description: "Scroll the page to a heading by id, as clicking its TOC entry would. found=false when the heading no longer exists.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Heading element id"},
		}, []string{"id"}),
	}, ep.navigate, func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r NavigateRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	})

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "pagetoc_cycle_corner",
		Description: "Move the overlay to the next corner (top-left, top-right, bottom-right, bottom-left) and remember it.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, ep.corner, noArgs)

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "pagetoc_toggle_collapse",
		Description: "Collapse or expand the overlay entry list and remember the choice.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, ep.collapse, noArgs)

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "pagetoc_markdown",
		Description: "Render the table of contents as a nested markdown list of fragment links.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, ep.markdown, noArgs)
}

func noArgs(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return &kit.MCPDecodeResult{Request: nil}, nil
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
