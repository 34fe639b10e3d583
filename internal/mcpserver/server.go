// Package mcpserver exposes the start page to LLM clients as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/speeddial/internal/apperr"
	"github.com/starford/speeddial/internal/dashboard"
)

// ExportURI names the resource holding the native backup document.
const ExportURI = "speeddial://export"

// Server wraps the MCP server with start-page tools.
type Server struct {
	mcp *server.MCPServer
	svc *dashboard.Service

	allowLoopback bool
}

// Option configures a Server.
type Option func(*Server)

// WithLoopbackFetch lets set_background download from loopback hosts.
func WithLoopbackFetch() Option {
	return func(s *Server) { s.allowLoopback = true }
}

// New creates a new MCP server with all tools registered.
func New(svc *dashboard.Service, opts ...Option) *Server {
	s := &Server{svc: svc}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		"Speed Dial",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List tile pages in display order and report the active page."),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("list_tiles",
		mcp.WithDescription("List the tiles on a page ordered by position."),
		mcp.WithString("page_id", mcp.Description("Page id; defaults to the active page")),
	), s.listTiles)

	s.mcp.AddTool(mcp.NewTool("create_tile",
		mcp.WithDescription("Add a shortcut tile to the end of a page. "+
			"A missing scheme becomes https:// and a missing title becomes the host name."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Target URL")),
		mcp.WithString("page_id", mcp.Description("Page id; defaults to the active page")),
		mcp.WithString("title", mcp.Description("Display title")),
		mcp.WithString("image_url", mcp.Description("Optional icon image URL")),
	), s.createTile)

	s.mcp.AddTool(mcp.NewTool("delete_tile",
		mcp.WithDescription("Delete a tile by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Tile id")),
	), s.deleteTile)

	s.mcp.AddTool(mcp.NewTool("move_tile",
		mcp.WithDescription("Move a tile within its page. Indices are zero-based; "+
			"new_index is the tile's index after the move."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page id")),
		mcp.WithNumber("old_index", mcp.Required(), mcp.Description("Current index")),
		mcp.WithNumber("new_index", mcp.Required(), mcp.Description("Target index")),
	), s.moveTile)

	s.mcp.AddTool(mcp.NewTool("export_state",
		mcp.WithDescription("Return the native backup document (settings, pages, tiles)."),
	), s.exportState)

	s.mcp.AddTool(mcp.NewTool("set_background",
		mcp.WithDescription("Set the page background from an image URL or a base64 data URI. "+
			"Supported formats: png, jpg, jpeg, gif, webp."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
	), s.setBackground)

	s.mcp.AddResource(
		mcp.NewResource(ExportURI, "Start page backup",
			mcp.WithResourceDescription("Native backup document of the current start page."),
			mcp.WithMIMEType("application/json"),
		),
		s.readExportResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into a tool result. Store failures mention
// that the change was applied but not saved.
func toolError(err error) *mcp.CallToolResult {
	if apperr.IsStoreError(err) {
		return mcp.NewToolResultError(fmt.Sprintf("applied but not saved: %v", err))
	}
	if errors.Is(err, apperr.ErrImport) {
		return mcp.NewToolResultError("invalid file")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listPages(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"pages":        s.svc.Pages(ctx),
		"activePageId": s.svc.ActivePageID(ctx),
	}), nil
}

func (s *Server) listTiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tiles, err := s.svc.Tiles(ctx, req.GetString("page_id", ""))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(tiles), nil
}

func (s *Server) createTile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tile, err := s.svc.CreateTile(ctx, req.GetString("page_id", ""), dashboard.TileInput{
		URL:      rawURL,
		Title:    req.GetString("title", ""),
		ImageURL: req.GetString("image_url", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(tile), nil
}

func (s *Server) deleteTile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteTile(ctx, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) moveTile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := req.RequireString("page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	oldIndex, err := req.RequireInt("old_index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newIndex, err := req.RequireInt("new_index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tiles, err := s.svc.ReorderTiles(ctx, pageID, oldIndex, newIndex)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(tiles), nil
}

func (s *Server) exportState(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.svc.Export(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readExportResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := s.svc.Export(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ExportURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
