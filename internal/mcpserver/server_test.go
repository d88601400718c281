package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/marlowe/inkwell/internal/fetch"
	"github.com/marlowe/inkwell/internal/index"
	"github.com/marlowe/inkwell/internal/llm"
	"github.com/marlowe/inkwell/internal/parse"
	"github.com/marlowe/inkwell/internal/sse"
	"github.com/marlowe/inkwell/internal/storage"
	"github.com/marlowe/inkwell/internal/studio"
)

var testBody = strings.TrimSpace(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 4))

type stubModel struct{ reply string }

func (s *stubModel) Complete(_ context.Context, _ llm.Prompts) (string, error) {
	return s.reply, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, _ string) (*fetch.Result, error) {
	return nil, os.ErrNotExist
}

func testServer(t *testing.T) (*Server, *stubModel) {
	t.Helper()

	dataDir := t.TempDir()
	store, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	csvLog := storage.NewCSVLog(filepath.Join(dataDir, storage.MasterCSV))

	db, err := index.Open(filepath.Join(dataDir, "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	broker := sse.NewBroker(time.Millisecond)
	t.Cleanup(broker.Close)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	model := &stubModel{}
	svc := studio.NewService(store, csvLog, db, model, stubFetcher{}, broker, studio.Config{Mode: parse.ModeStrict}, logger)

	return New(svc), model
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "generate_drafts":
		result, err = srv.generateDrafts(ctx, req)
	case "list_sources":
		result, err = srv.listSources(ctx, req)
	case "read_draft":
		result, err = srv.readDraft(ctx, req)
	case "search_drafts":
		result, err = srv.searchDrafts(ctx, req)
	case "get_reply_contract":
		result, err = srv.getReplyContract(ctx, req)
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

func TestGenerateAndListSources(t *testing.T) {
	srv, model := testServer(t)
	model.reply = "**Fox Draft**\n\n" + testBody

	r := callTool(t, srv, "generate_drafts", map[string]interface{}{
		"url":        "https://www.youtube.com/watch?v=abc123",
		"title":      "My Video",
		"transcript": "Speaker one said a lot of interesting things about habits.",
	})
	if r.IsError {
		t.Fatalf("generate error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"Count": 1`) {
		t.Errorf("generate result = %s", resultText(r))
	}

	r = callTool(t, srv, "list_sources", map[string]interface{}{})
	if !strings.Contains(resultText(r), "My Video") {
		t.Errorf("list result = %s", resultText(r))
	}
}

func TestGenerateMissingURL(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "generate_drafts", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing url")
	}
}

func TestReadDraft(t *testing.T) {
	srv, model := testServer(t)
	model.reply = "**Fox Draft**\n\n" + testBody

	gen := callTool(t, srv, "generate_drafts", map[string]interface{}{
		"url":        "https://www.youtube.com/watch?v=abc123",
		"title":      "My Video",
		"transcript": "Speaker one said a lot of interesting things about habits.",
	})
	if gen.IsError {
		t.Fatalf("generate error: %s", resultText(gen))
	}

	var id string
	for _, line := range strings.Split(resultText(gen), "\n") {
		if strings.Contains(line, `"SourceID"`) {
			parts := strings.Split(line, `"`)
			id = parts[3]
		}
	}
	if id == "" {
		t.Fatalf("no source id in %s", resultText(gen))
	}

	r := callTool(t, srv, "read_draft", map[string]interface{}{"source_id": id})
	if r.IsError || !strings.Contains(resultText(r), "Fox Draft") {
		t.Errorf("read result = %s", resultText(r))
	}
}

func TestReadDraftMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_draft", map[string]interface{}{"source_id": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown source")
	}
}

func TestSearchDrafts(t *testing.T) {
	srv, model := testServer(t)
	model.reply = "**Fox Draft**\n\n" + testBody

	callTool(t, srv, "generate_drafts", map[string]interface{}{
		"url":        "https://www.youtube.com/watch?v=abc123",
		"title":      "My Video",
		"transcript": "Speaker one said a lot of interesting things about habits.",
	})

	r := callTool(t, srv, "search_drafts", map[string]interface{}{"query": "fox"})
	if r.IsError || !strings.Contains(resultText(r), "Fox Draft") {
		t.Errorf("search result = %s", resultText(r))
	}
}

func TestGetReplyContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_reply_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "**First Draft Title**") || !strings.Contains(text, "Key Insight:") {
		t.Errorf("contract = %q", text)
	}
}
