package tui

import (
	"context"
	"time"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// MockQAService implements driving.QAService for testing.
type MockQAService struct {
	Record *domain.AnswerRecord
	Err    error
}

func (m *MockQAService) Answer(ctx context.Context, h *vectorindex.Handle, question string) (*domain.AnswerRecord, error) {
	return m.AnswerWithK(ctx, h, question, 0)
}

func (m *MockQAService) AnswerWithK(
	_ context.Context, _ *vectorindex.Handle, _ string, _ int,
) (*domain.AnswerRecord, error) {
	return m.Record, m.Err
}

// MockSessionService implements driving.SessionService for testing.
type MockSessionService struct {
	Sessions []domain.SessionInfo
	OpenErr  error
	Opened   []string
}

func (m *MockSessionService) Open(_ context.Context, session string) (*vectorindex.Handle, error) {
	m.Opened = append(m.Opened, session)
	return nil, m.OpenErr
}

func (m *MockSessionService) List(_ context.Context) ([]domain.SessionInfo, error) {
	return m.Sessions, nil
}

func (m *MockSessionService) Drop(_ context.Context, _ string) error {
	return nil
}

// MockIngestService implements driving.IngestService for testing.
type MockIngestService struct{}

func (m *MockIngestService) IngestDay(
	_ context.Context, session string, day time.Time,
) (*vectorindex.Handle, domain.IngestReport, error) {
	return nil, domain.IngestReport{Session: session, Day: day.Format(time.DateOnly)}, nil
}

func (m *MockIngestService) IngestItems(
	_ context.Context, session string, _ []string,
) (*vectorindex.Handle, domain.IngestReport, error) {
	return nil, domain.IngestReport{Session: session}, nil
}

func (m *MockIngestService) SourceName() string {
	return "maildir"
}
