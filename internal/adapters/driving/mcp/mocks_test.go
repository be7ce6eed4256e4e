package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailqa/internal/adapters/driven/embedding/lexical"
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// mockQAService is a mock implementation of driving.QAService.
type mockQAService struct {
	record   *domain.AnswerRecord
	err      error
	question string
	k        int
}

func (m *mockQAService) Answer(ctx context.Context, h *vectorindex.Handle, question string) (*domain.AnswerRecord, error) {
	return m.AnswerWithK(ctx, h, question, 0)
}

func (m *mockQAService) AnswerWithK(
	_ context.Context, _ *vectorindex.Handle, question string, k int,
) (*domain.AnswerRecord, error) {
	m.question = question
	m.k = k
	return m.record, m.err
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	handle   *vectorindex.Handle
	sessions []domain.SessionInfo
	err      error
	opened   string
}

func (m *mockSessionService) Open(_ context.Context, session string) (*vectorindex.Handle, error) {
	m.opened = session
	return m.handle, m.err
}

func (m *mockSessionService) List(_ context.Context) ([]domain.SessionInfo, error) {
	return m.sessions, m.err
}

func (m *mockSessionService) Drop(_ context.Context, _ string) error {
	return m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report domain.IngestReport
	err    error
	day    time.Time
}

func (m *mockIngestService) IngestDay(
	_ context.Context, session string, day time.Time,
) (*vectorindex.Handle, domain.IngestReport, error) {
	m.day = day
	report := m.report
	report.Session = session
	return nil, report, m.err
}

func (m *mockIngestService) IngestItems(
	_ context.Context, _ string, _ []string,
) (*vectorindex.Handle, domain.IngestReport, error) {
	return nil, m.report, m.err
}

func (m *mockIngestService) SourceName() string {
	return "maildir"
}

// buildHandle indexes units with the offline embedder.
func buildHandle(t *testing.T, session string, units ...domain.TextUnit) *vectorindex.Handle {
	t.Helper()
	ix := vectorindex.New(lexical.NewEmbeddingService(64))
	h, err := ix.Build(context.Background(), session, units)
	require.NoError(t, err)
	return h
}
