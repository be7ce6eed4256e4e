package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

func TestExtractSession(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid session URI", uri: "mailqa://sessions/work/messages", expected: "work"},
		{name: "invalid prefix", uri: "file://sessions/work/messages", expected: ""},
		{name: "missing messages suffix", uri: "mailqa://sessions/work", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSession(tt.uri))
		})
	}
}

func TestServer_handleMessagesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the units of the session", func(t *testing.T) {
		h := buildHandle(t, "work", domain.TextUnit{
			ID:       "u1",
			Content:  "Lunch is on Friday.",
			Metadata: map[string]string{domain.MetaSubject: "Lunch", domain.MetaFrom: "ops@example.com"},
		})
		sessions := &mockSessionService{handle: h}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Sessions: sessions})
		require.NoError(t, err)

		uri := "mailqa://sessions/work/messages"
		res, err := server.handleMessagesResource(ctx, &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: uri},
		})

		require.NoError(t, err)
		assert.Equal(t, "work", sessions.opened)
		require.Len(t, res.Contents, 1)
		assert.Equal(t, uri, res.Contents[0].URI)

		var got []map[string]string
		require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "u1", got[0]["id"])
		assert.Equal(t, "Lunch", got[0]["subject"])
		assert.Equal(t, "Lunch is on Friday.", got[0]["content"])
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{QA: &mockQAService{}, Sessions: &mockSessionService{err: domain.ErrEmptyIndex}})
		require.NoError(t, err)

		_, err = server.handleMessagesResource(ctx, &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "mailqa://sessions/nope/messages"},
		})
		require.Error(t, err)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		sessions := &mockSessionService{}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Sessions: sessions})
		require.NoError(t, err)

		_, err = server.handleMessagesResource(ctx, &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "mailqa://sessions/work"},
		})
		require.Error(t, err)
		assert.Empty(t, sessions.opened)
	})
}

func TestServer_handleSessionsResource(t *testing.T) {
	sessions := &mockSessionService{sessions: []domain.SessionInfo{{Name: "default", Units: 2}}}
	server, err := NewServer(&Ports{QA: &mockQAService{}, Sessions: sessions})
	require.NoError(t, err)

	res, err := server.handleSessionsResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "mailqa://sessions"},
	})

	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	assert.Contains(t, res.Contents[0].Text, `"name": "default"`)
}
