package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested email"`
	Session  string `json:"session,omitempty" jsonschema:"session to query (default: default)"`
	K        int    `json:"k,omitempty" jsonschema:"number of messages used as context (default: retrieval.top_k)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string         `json:"answer"`
	Grounded bool           `json:"grounded" jsonschema:"false when the answer was not found in the messages"`
	Sources  []SourceOutput `json:"sources"`
}

// SourceOutput is one message used as context.
type SourceOutput struct {
	ID       string  `json:"id"`
	Subject  string  `json:"subject,omitempty"`
	From     string  `json:"from,omitempty"`
	Received string  `json:"received,omitempty"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// IngestInput is the input schema for the ingest_day tool.
type IngestInput struct {
	Date    string `json:"date" jsonschema:"day to ingest as YYYY-MM-DD"`
	Session string `json:"session,omitempty" jsonschema:"session to rebuild (default: default)"`
}

// IngestOutput is the output schema for the ingest_day tool.
type IngestOutput struct {
	Session  string `json:"session"`
	Source   string `json:"source"`
	Day      string `json:"day"`
	Messages int    `json:"messages"`
	Units    int    `json:"units"`
}

// ListSessionsInput is the (empty) input schema for the list_sessions tool.
type ListSessionsInput struct{}

// ListSessionsOutput is the output schema for the list_sessions tool.
type ListSessionsOutput struct {
	Sessions []SessionOutput `json:"sessions"`
}

// SessionOutput describes one built session.
type SessionOutput struct {
	Name    string `json:"name"`
	Units   int    `json:"units"`
	Model   string `json:"model"`
	BuiltAt string `json:"built_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the ingested email of a session",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List the sessions that have been ingested",
	}, s.handleListSessions)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name: "ingest_day",
			Description: fmt.Sprintf("Fetch the email received on one day from %s and rebuild a session from it",
				s.ports.Ingest.SourceName()),
		}, s.handleIngestDay)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, toolError("ask", fmt.Errorf("%w: question is empty", domain.ErrInvalidInput))
	}

	h, err := s.ports.Sessions.Open(ctx, input.Session)
	if err != nil {
		return nil, AskOutput{}, toolError("ask", err)
	}

	record, err := s.ports.QA.AnswerWithK(ctx, h, input.Question, input.K)
	if err != nil {
		return nil, AskOutput{}, toolError("ask", err)
	}

	output := AskOutput{
		Answer:   record.Answer,
		Grounded: record.Grounded,
		Sources:  make([]SourceOutput, len(record.Sources)),
	}
	for i, src := range record.Sources {
		output.Sources[i] = SourceOutput{
			ID:       src.ID,
			Subject:  src.Metadata[domain.MetaSubject],
			From:     src.Metadata[domain.MetaFrom],
			Received: src.Metadata[domain.MetaReceived],
			Score:    src.Score,
			Content:  src.Content,
		}
	}
	return nil, output, nil
}

// handleIngestDay handles the ingest_day tool invocation.
func (s *Server) handleIngestDay(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(input.Date))
	if err != nil {
		return nil, IngestOutput{}, toolError("ingest_day",
			fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidInput, input.Date))
	}

	_, report, err := s.ports.Ingest.IngestDay(ctx, input.Session, day)
	if err != nil {
		return nil, IngestOutput{}, toolError("ingest_day", err)
	}

	return nil, IngestOutput{
		Session:  report.Session,
		Source:   report.Source,
		Day:      report.Day,
		Messages: report.Fetched,
		Units:    report.Units,
	}, nil
}

// handleListSessions handles the list_sessions tool invocation.
func (s *Server) handleListSessions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSessionsInput,
) (*mcp.CallToolResult, ListSessionsOutput, error) {
	sessions, err := s.ports.Sessions.List(ctx)
	if err != nil {
		return nil, ListSessionsOutput{}, toolError("list_sessions", err)
	}

	output := ListSessionsOutput{Sessions: make([]SessionOutput, len(sessions))}
	for i, info := range sessions {
		output.Sessions[i] = SessionOutput{
			Name:    info.Name,
			Units:   info.Units,
			Model:   info.Model,
			BuiltAt: info.BuiltAt.UTC().Format(time.RFC3339),
		}
	}
	return nil, output, nil
}
