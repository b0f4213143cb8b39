// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the highlight collection to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/library"
)

const exportFormatURI = "pocketnotes://export-format"

// Server wraps the MCP server with collection tools.
type Server struct {
	mcp *server.MCPServer
	svc *library.Service
}

// New creates a new MCP server with all collection tools registered.
// svc must already be loaded.
func New(svc *library.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"PocketNotes",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_books",
		mcp.WithDescription("List every matched book with its metadata and highlight count."),
	), s.listBooks)

	s.mcp.AddTool(mcp.NewTool("get_book",
		mcp.WithDescription("Return the rendered vault page (frontmatter, book info and notes) of one book."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Book id as returned by list_books")),
	), s.getBook)

	s.mcp.AddTool(mcp.NewTool("query_notes",
		mcp.WithDescription("Return highlights whose field contains any of the given values. "+
			"Call get_export_format for the list of queryable fields."),
		mcp.WithString("field", mcp.Required(), mcp.Description("Note field, e.g. highlight_color or page_number")),
		mcp.WithString("values", mcp.Required(), mcp.Description("Comma-separated accepted values")),
	), s.queryNotes)

	s.mcp.AddTool(mcp.NewTool("search_highlights",
		mcp.WithDescription("Full-text search through highlight text, annotations and book names."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchHighlights)

	s.mcp.AddTool(mcp.NewTool("get_export_format",
		mcp.WithDescription("Returns the description of the exported Markdown page format and the queryable note fields."),
	), s.getExportFormat)

	s.mcp.AddResource(
		mcp.NewResource(exportFormatURI, "Export Format",
			mcp.WithResourceDescription("Markdown page format produced for every book."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readExportFormatResource,
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

func (s *Server) listBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Books())
}

func (s *Server) getBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.RenderBook(id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("book not found: %d", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(page)), nil
}

func (s *Server) queryNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("values")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return mcp.NewToolResultError("values: at least one non-empty value is required"), nil
	}
	notes, err := s.svc.Query(collection.Query{field: values})
	if errors.Is(err, apperr.ErrNoResults) {
		return mcp.NewToolResultText("no results"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(notes)
}

func (s *Server) searchHighlights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits)
}

func (s *Server) getExportFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ExportFormatContract), nil
}

func (s *Server) readExportFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      exportFormatURI,
			MIMEType: "text/markdown",
			Text:     ExportFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
