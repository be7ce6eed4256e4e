package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for mailqa resources.
	uriScheme = "mailqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Sessions that have been ingested",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{session}/messages",
		Name:        "session-messages",
		Description: "Messages indexed in a session",
		MIMEType:    "application/json",
	}, s.handleMessagesResource)
}

// handleSessionsResource returns every known session.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	_, out, err := s.handleListSessions(ctx, nil, ListSessionsInput{})
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, out.Sessions)
}

// handleMessagesResource returns the units of one session.
func (s *Server) handleMessagesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	session := extractSession(req.Params.URI)
	if session == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	h, err := s.ports.Sessions.Open(ctx, session)
	if errors.Is(err, domain.ErrEmptyIndex) || errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	type messageInfo struct {
		ID       string `json:"id"`
		Subject  string `json:"subject,omitempty"`
		From     string `json:"from,omitempty"`
		Received string `json:"received,omitempty"`
		Content  string `json:"content"`
	}

	units := h.Units()
	infos := make([]messageInfo, len(units))
	for i, u := range units {
		infos[i] = messageInfo{
			ID:       u.ID,
			Subject:  u.Metadata[domain.MetaSubject],
			From:     u.Metadata[domain.MetaFrom],
			Received: u.Metadata[domain.MetaReceived],
			Content:  u.Content,
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSession extracts the session name from a URI like
// mailqa://sessions/{session}/messages.
func extractSession(uri string) string {
	const prefix = uriScheme + "sessions/"
	const suffix = "/messages"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}
	return strings.TrimSuffix(uri, suffix)
}
