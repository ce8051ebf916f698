// Package mcpserve exposes FSML mapping as an MCP tool.
package mcpserve

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolMap is the name of the mapping tool.
const ToolMap = "fsml_map"

// Mapper writes the FSML document for a path. *walk.Engine implements it.
type Mapper interface {
	Produce(ctx context.Context, path string, w io.Writer) error
}

type handler struct {
	m  Mapper
	mu sync.Mutex // one traversal at a time
}

// New returns a stdio-ready MCP server with the mapping tool registered.
func New(m Mapper, version string) *server.MCPServer {
	s := server.NewMCPServer("fsmap", version, server.WithToolCapabilities(false))
	h := &handler{m: m}

	tool := mcp.NewTool(ToolMap,
		mcp.WithDescription("Map a file hierarchy to an FSML document: nested dir, file and link elements with lstat attributes and extracted file metadata"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the directory or file to map")),
	)
	s.AddTool(tool, h.fsmlMap)
	return s
}

func (h *handler) fsmlMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	if err := h.m.Produce(ctx, path, &b); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}
