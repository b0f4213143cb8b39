package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/library"
	"github.com/starford/pocketnotes/internal/parser"
	"github.com/starford/pocketnotes/internal/snapshot"
	"github.com/starford/pocketnotes/internal/storage"
	"github.com/starford/pocketnotes/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	lib := testutil.NewLibrary(t)
	lib.AddBook(t, "Herbert, Frank - Dune (1965) - Chilton.epub")
	lib.AddNotes(t, "Dune.html", "Dune",
		testutil.Block{Color: "bm-color-yellow", Page: "40", Text: "The spice must flow"},
		testutil.Block{Color: "bm-color-red", Page: "12", Text: "Fear is the mind-killer"},
	)

	local, err := storage.NewFS(lib.Root)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := snapshot.Open(filepath.Join(t.TempDir(), "mcp.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { snap.Close() })

	b := &collection.Builder{
		Store:    local,
		BooksDir: lib.BooksDir,
		NotesDir: lib.NotesDir,
		Parser:   parser.New(testutil.Colors(), nil),
		Logger:   logger,
	}
	svc := library.NewService(b, snap, nil, nil, logger)
	if err := svc.Load(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_books":
		result, err = srv.listBooks(ctx, req)
	case "get_book":
		result, err = srv.getBook(ctx, req)
	case "query_notes":
		result, err = srv.queryNotes(ctx, req)
	case "search_highlights":
		result, err = srv.searchHighlights(ctx, req)
	case "get_export_format":
		result, err = srv.getExportFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListBooks(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_books", nil)
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var books []library.BookSummary
	if err := json.Unmarshal([]byte(resultText(r)), &books); err != nil {
		t.Fatal(err)
	}
	if len(books) != 1 || books[0].Name != "Dune" || books[0].Notes != 2 {
		t.Errorf("books = %+v", books)
	}
}

func TestGetBook(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_book", map[string]any{"id": float64(0)})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.HasPrefix(text, "---\n") || !strings.Contains(text, "Fear is the mind-killer(pg. 12)") {
		t.Errorf("page = %q", text)
	}
	if strings.Index(text, "mind-killer") > strings.Index(text, "spice must flow") {
		t.Error("notes not sorted by page")
	}
}

func TestGetBookMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_book", map[string]any{"id": float64(42)})
	if !r.IsError {
		t.Error("expected error for missing book")
	}
}

func TestQueryNotes(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "query_notes", map[string]any{"field": "page_number", "values": "12, 99"})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "mind-killer") || strings.Contains(text, "spice") {
		t.Errorf("query result = %q", text)
	}
}

func TestQueryNotesNoResults(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "query_notes", map[string]any{"field": "page_number", "values": "99"})
	if r.IsError || resultText(r) != "no results" {
		t.Errorf("result = %q (error=%v)", resultText(r), r.IsError)
	}
}

func TestQueryNotesUnknownField(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "query_notes", map[string]any{"field": "colour", "values": "red"})
	if !r.IsError {
		t.Error("expected error for unknown field")
	}
}

func TestSearchHighlights(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_highlights", map[string]any{"query": "spice"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var hits []snapshot.Hit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].PageNumber != 40 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestGetExportFormat(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_export_format", nil))
	for _, want := range []string{"generator: pocketnotes", "highlight_color", "date_created"} {
		if !strings.Contains(text, want) {
			t.Errorf("contract missing %q", want)
		}
	}
}

func TestExportFormatResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readExportFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != exportFormatURI || tc.Text != ExportFormatContract {
		t.Errorf("resource = %+v", contents[0])
	}
}
