package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		qa := &mockQAService{record: &domain.AnswerRecord{
			Question: "When is the budget review?",
			Answer:   "Tuesday at 10am.",
			Grounded: true,
			Sources: []domain.Source{{
				ID:      "u1",
				Content: "The budget review is Tuesday at 10am.",
				Metadata: map[string]string{
					domain.MetaSubject:  "Budget",
					domain.MetaFrom:     "finance@example.com",
					domain.MetaReceived: "2024-05-02T09:00:00Z",
				},
				Score: 0.91,
			}},
		}}
		sessions := &mockSessionService{}
		server, err := NewServer(&Ports{QA: qa, Sessions: sessions})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "When is the budget review?", Session: "work", K: 2})

		require.NoError(t, err)
		assert.Equal(t, "work", sessions.opened)
		assert.Equal(t, 2, qa.k)
		assert.Equal(t, "Tuesday at 10am.", output.Answer)
		assert.True(t, output.Grounded)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "u1", output.Sources[0].ID)
		assert.Equal(t, "Budget", output.Sources[0].Subject)
		assert.Equal(t, "finance@example.com", output.Sources[0].From)
		assert.Equal(t, 0.91, output.Sources[0].Score)
	})

	t.Run("not grounded answer has empty sources", func(t *testing.T) {
		qa := &mockQAService{record: &domain.AnswerRecord{Answer: "Not in the emails."}}
		server, err := NewServer(&Ports{QA: qa, Sessions: &mockSessionService{}})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "Who won?"})

		require.NoError(t, err)
		assert.False(t, output.Grounded)
		assert.NotNil(t, output.Sources)
		assert.Empty(t, output.Sources)
	})

	t.Run("empty question is rejected before opening the session", func(t *testing.T) {
		sessions := &mockSessionService{}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Sessions: sessions})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "   "})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, sessions.opened)
	})

	t.Run("generation failure is reported", func(t *testing.T) {
		qa := &mockQAService{err: errors.Join(domain.ErrGenerationService, errors.New("503"))}
		server, err := NewServer(&Ports{QA: qa, Sessions: &mockSessionService{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ask failed")
		assert.ErrorIs(t, err, domain.ErrGenerationService)
	})
}

func TestServer_handleIngestDay(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests the parsed day", func(t *testing.T) {
		ingest := &mockIngestService{report: domain.IngestReport{
			Source: "maildir", Day: "2024-05-02", Fetched: 3, Units: 3,
		}}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Sessions: &mockSessionService{}, Ingest: ingest})
		require.NoError(t, err)

		_, output, err := server.handleIngestDay(ctx, nil, IngestInput{Date: "2024-05-02", Session: "work"})

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), ingest.day)
		assert.Equal(t, "work", output.Session)
		assert.Equal(t, 3, output.Messages)
		assert.Equal(t, 3, output.Units)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		server, err := NewServer(&Ports{QA: &mockQAService{}, Sessions: &mockSessionService{}, Ingest: &mockIngestService{}})
		require.NoError(t, err)

		_, _, err = server.handleIngestDay(ctx, nil, IngestInput{Date: "02/05/2024"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("auth failure carries a hint", func(t *testing.T) {
		ingest := &mockIngestService{err: domain.ErrAuthRequired}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Sessions: &mockSessionService{}, Ingest: ingest})
		require.NoError(t, err)

		_, _, err = server.handleIngestDay(ctx, nil, IngestInput{Date: "2024-05-02"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "mailqa auth login")
	})
}

func TestServer_handleListSessions(t *testing.T) {
	built := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
	sessions := &mockSessionService{sessions: []domain.SessionInfo{
		{Name: "default", Units: 4, Model: "lexical-hash-512", BuiltAt: built},
		{Name: "work", Units: 0, Model: "text-embedding-3-small", BuiltAt: built},
	}}
	server, err := NewServer(&Ports{QA: &mockQAService{}, Sessions: sessions})
	require.NoError(t, err)

	_, output, err := server.handleListSessions(context.Background(), nil, ListSessionsInput{})

	require.NoError(t, err)
	require.Len(t, output.Sessions, 2)
	assert.Equal(t, "default", output.Sessions[0].Name)
	assert.Equal(t, 4, output.Sessions[0].Units)
	assert.Equal(t, "2024-05-02T08:30:00Z", output.Sessions[0].BuiltAt)
}
