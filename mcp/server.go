// Package mcp exposes the answering engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/memory"
	"github.com/sweetpotato0/nyaya/pkg/logging"
	"github.com/sweetpotato0/nyaya/rag/legal"
)

const (
	ToolAsk    = "ask_legal_question"
	ToolRecall = "recall_case"
)

// Engine is the part of *legal.Engine the tools need.
type Engine interface {
	Ask(ctx context.Context, req legal.Request) *legal.Response
	Recall(ctx context.Context, caseID string) (*memory.Record, error)
}

// Server wraps the MCP SDK server with the legal tools registered.
type Server struct {
	MCPServer *sdkmcp.Server

	engine Engine
	log    *slog.Logger
}

// NewServer builds the tool server. version is advertised to clients.
func NewServer(engine Engine, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{
			Name:    "nyaya",
			Title:   "Indian legal information assistant",
			Version: version,
		}, nil),
		engine: engine,
		log:    logging.WithComponent("mcp"),
	}
	s.registerTools()
	return s
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("serving MCP over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name: ToolAsk,
		Description: "Answer a question about Indian law with cited statutes, similar cases and civic action steps. " +
			"Returns general legal information, not legal advice.",
	}, s.handleAsk)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        ToolRecall,
		Description: "Load a previously answered question by its case id.",
	}, s.handleRecall)
}

type askInput struct {
	Query  string `json:"query" jsonschema:"the legal question in plain language"`
	UserID string `json:"user_id,omitempty" jsonschema:"optional caller id used to group stored interactions"`
}

type recallInput struct {
	CaseID string `json:"case_id" jsonschema:"case id returned by ask_legal_question"`
}

func (s *Server) handleAsk(ctx context.Context, _ *sdkmcp.CallToolRequest, in askInput) (*sdkmcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, nil, fmt.Errorf("query is required")
	}
	resp := s.engine.Ask(ctx, legal.Request{Query: in.Query, UserID: in.UserID})
	s.log.Info("tool call", "tool", ToolAsk, "case_id", resp.CaseID, "confidence", resp.Confidence)
	return jsonResult(resp)
}

func (s *Server) handleRecall(ctx context.Context, _ *sdkmcp.CallToolRequest, in recallInput) (*sdkmcp.CallToolResult, any, error) {
	rec, err := s.engine.Recall(ctx, in.CaseID)
	switch {
	case errors.Is(err, errorskg.ErrNotFound):
		return nil, nil, fmt.Errorf("case %q not found", in.CaseID)
	case err != nil:
		s.log.Warn("recall failed", "case_id", in.CaseID, "error", err)
		return nil, nil, fmt.Errorf("recall case: %w", err)
	}
	return jsonResult(rec)
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
