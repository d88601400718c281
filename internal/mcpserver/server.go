// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Inkwell tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marlowe/inkwell/internal/studio"
)

// Server wraps the MCP server with Inkwell tools.
type Server struct {
	mcp *server.MCPServer
	svc *studio.Service
}

// New creates a new MCP server with all Inkwell tools registered.
func New(svc *studio.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Inkwell",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("generate_drafts",
		mcp.WithDescription("Run the full draft pipeline for a source URL: fetch or "+
			"accept content, prompt the model, parse the reply and persist the drafts. "+
			"Runs synchronously and returns the run summary."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Source URL (YouTube video or web article)")),
		mcp.WithString("title", mcp.Description("Source title override (videos only)")),
		mcp.WithString("transcript", mcp.Description("Transcript text for video sources")),
		mcp.WithBoolean("force", mcp.Description("Regenerate even when drafts already exist")),
	), s.generateDrafts)

	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List all processed sources with their draft counts, newest first."),
	), s.listSources)

	s.mcp.AddTool(mcp.NewTool("read_draft",
		mcp.WithDescription("Read all drafts of one source, including notes and structured fields."),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source id from list_sources")),
	), s.readDraft)

	s.mcp.AddTool(mcp.NewTool("search_drafts",
		mcp.WithDescription("Full-text search through draft titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDrafts)

	s.mcp.AddTool(mcp.NewTool("get_reply_contract",
		mcp.WithDescription("Returns the model reply format contract the draft parser "+
			"expects. Call this before producing draft text by hand."),
	), s.getReplyContract)

	// Resource: model reply contract.
	s.mcp.AddResource(
		mcp.NewResource("inkwell://reply-format", "Model Reply Contract",
			mcp.WithResourceDescription("Delimited reply layout that the draft parser accepts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readReplyFormatResource,
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

func (s *Server) generateDrafts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	greq := studio.GenerateRequest{
		URL:        url,
		Title:      req.GetString("title", ""),
		Transcript: req.GetString("transcript", ""),
		Force:      req.GetBool("force", false),
	}

	res, err := s.svc.Generate(ctx, greq, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sources, err := s.svc.ListSources(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(sources, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("source_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.SourceDetail(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchDrafts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getReplyContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ReplyFormatContract), nil
}

func (s *Server) readReplyFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "inkwell://reply-format",
			MIMEType: "text/markdown",
			Text:     ReplyFormatContract,
		},
	}, nil
}
