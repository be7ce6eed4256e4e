package ask

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailqa/internal/adapters/driven/embedding/lexical"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

type mockQAService struct {
	record   *domain.AnswerRecord
	err      error
	question string
}

func (m *mockQAService) Answer(ctx context.Context, h *vectorindex.Handle, question string) (*domain.AnswerRecord, error) {
	return m.AnswerWithK(ctx, h, question, 0)
}

func (m *mockQAService) AnswerWithK(
	_ context.Context, _ *vectorindex.Handle, question string, _ int,
) (*domain.AnswerRecord, error) {
	m.question = question
	return m.record, m.err
}

type mockSessionService struct {
	handle *vectorindex.Handle
	err    error
	opened string
}

func (m *mockSessionService) Open(_ context.Context, session string) (*vectorindex.Handle, error) {
	m.opened = session
	return m.handle, m.err
}

func (m *mockSessionService) List(_ context.Context) ([]domain.SessionInfo, error) {
	return nil, m.err
}

func (m *mockSessionService) Drop(_ context.Context, _ string) error {
	return m.err
}

type mockIngestService struct {
	handle *vectorindex.Handle
	report domain.IngestReport
	err    error
	day    time.Time
}

func (m *mockIngestService) IngestDay(
	_ context.Context, _ string, day time.Time,
) (*vectorindex.Handle, domain.IngestReport, error) {
	m.day = day
	return m.handle, m.report, m.err
}

func (m *mockIngestService) IngestItems(
	_ context.Context, _ string, _ []string,
) (*vectorindex.Handle, domain.IngestReport, error) {
	return m.handle, m.report, m.err
}

func (m *mockIngestService) SourceName() string {
	return "maildir"
}

func buildHandle(t *testing.T) *vectorindex.Handle {
	t.Helper()
	ix := vectorindex.New(lexical.NewEmbeddingService(64))
	h, err := ix.Build(context.Background(), domain.DefaultSession, []domain.TextUnit{
		{ID: "m1", Content: "The budget review moved to Tuesday.", Metadata: map[string]string{domain.MetaSubject: "Budget"}},
		{ID: "m2", Content: "Lunch is on Friday."},
	})
	require.NoError(t, err)
	return h
}

// drain runs cmd and any batched commands, returning the messages produced.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, drain(c)...)
	}
	return out
}

func find[T any](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T among %d messages", zero, len(msgs))
	return zero
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestView(qa *mockQAService, sessions *mockSessionService, ingest driving.IngestService) *View {
	v := NewView(nil, nil, qa, sessions, ingest, "")
	v.SetDimensions(100, 40)
	return v
}

func TestNewView(t *testing.T) {
	v := newTestView(&mockQAService{}, &mockSessionService{}, &mockIngestService{})

	assert.Equal(t, domain.DefaultSession, v.Session())
	assert.Equal(t, time.Now().Format(time.DateOnly), v.Date().Value())
	assert.Nil(t, v.Handle())
	assert.False(t, v.Busy())
	assert.False(t, v.ShowingSources())
}

func TestView_InitOpensSession(t *testing.T) {
	sessions := &mockSessionService{err: domain.ErrEmptyIndex}
	v := NewView(nil, nil, &mockQAService{}, sessions, nil, "work")

	opened := find[messages.SessionOpened](t, drain(v.Init()))

	assert.Equal(t, "work", sessions.opened)
	assert.Equal(t, "work", opened.Session)
	assert.Equal(t, "Date", v.FocusedField())
}

func TestView_SessionOpened(t *testing.T) {
	t.Run("never built", func(t *testing.T) {
		v := newTestView(&mockQAService{}, &mockSessionService{}, nil)

		v.Update(messages.SessionOpened{Session: domain.DefaultSession, Err: domain.ErrEmptyIndex})

		assert.Nil(t, v.Handle())
		assert.Equal(t, status.StateReady, v.Status().State())
		assert.Contains(t, v.Status().Message(), "is empty")
		assert.Equal(t, "Date", v.FocusedField())
	})

	t.Run("built", func(t *testing.T) {
		v := newTestView(&mockQAService{}, &mockSessionService{}, nil)
		h := buildHandle(t)

		v.Update(messages.SessionOpened{Session: domain.DefaultSession, Handle: h})

		assert.Same(t, h, v.Handle())
		assert.Equal(t, "Question", v.FocusedField())
		assert.Contains(t, v.View(), "[default: 2 units]")
	})

	t.Run("failure", func(t *testing.T) {
		v := newTestView(&mockQAService{}, &mockSessionService{}, nil)

		v.Update(messages.SessionOpened{Session: domain.DefaultSession, Err: errors.New("disk gone")})

		assert.Equal(t, status.StateError, v.Status().State())
		assert.Contains(t, v.Status().Message(), "disk gone")
	})

	t.Run("stale session ignored", func(t *testing.T) {
		v := newTestView(&mockQAService{}, &mockSessionService{}, nil)

		v.Update(messages.SessionOpened{Session: "other", Handle: buildHandle(t)})

		assert.Nil(t, v.Handle())
	})
}

func TestView_Ingest(t *testing.T) {
	h := buildHandle(t)
	ingest := &mockIngestService{
		handle: h,
		report: domain.IngestReport{Session: domain.DefaultSession, Day: "2024-05-02", Fetched: 2, Units: 2},
	}
	v := newTestView(&mockQAService{}, &mockSessionService{}, ingest)
	v.Date().SetValue("2024-05-02")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, status.StateIngesting, v.Status().State())
	assert.Contains(t, v.Status().Message(), "from maildir")

	completed := find[messages.IngestCompleted](t, drain(cmd))
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), ingest.day)

	v.Update(completed)
	assert.Same(t, h, v.Handle())
	assert.False(t, v.Busy())
	assert.Equal(t, "Indexed 2 units from 2 messages.", v.Status().Message())
	assert.Equal(t, "Question", v.FocusedField())
}

func TestView_IngestEmptyDay(t *testing.T) {
	v := newTestView(&mockQAService{}, &mockSessionService{}, &mockIngestService{})

	v.Update(messages.IngestCompleted{Report: domain.IngestReport{Day: "2024-05-04"}})

	assert.Equal(t, "No messages on 2024-05-04.", v.Status().Message())
	assert.Equal(t, "Date", v.FocusedField())
}

func TestView_IngestErrors(t *testing.T) {
	tests := []struct {
		name     string
		ingest   driving.IngestService
		date     string
		expected string
	}{
		{name: "bad date", ingest: &mockIngestService{}, date: "May 2", expected: "YYYY-MM-DD"},
		{name: "no source", ingest: nil, date: "2024-05-02", expected: ErrNoSource.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestView(&mockQAService{}, &mockSessionService{}, tt.ingest)
			v.Date().SetValue(tt.date)

			_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

			assert.Nil(t, cmd)
			assert.Equal(t, status.StateError, v.Status().State())
			assert.Contains(t, v.Status().Message(), tt.expected)
		})
	}

	t.Run("service failure", func(t *testing.T) {
		v := newTestView(&mockQAService{}, &mockSessionService{}, &mockIngestService{})

		v.Update(messages.IngestCompleted{Err: domain.ErrAuthRequired})

		assert.Equal(t, status.StateError, v.Status().State())
		assert.Contains(t, v.Status().Message(), domain.ErrAuthRequired.Error())
	})
}

func TestView_Ask(t *testing.T) {
	qa := &mockQAService{record: &domain.AnswerRecord{
		Question: "When is the budget review?",
		Answer:   "Tuesday.",
		Grounded: true,
		Sources: []domain.Source{
			{ID: "m1", Content: "The budget review moved to Tuesday.", Score: 0.9},
		},
	}}
	v := newTestView(qa, &mockSessionService{}, nil)
	v.Update(messages.SessionOpened{Session: domain.DefaultSession, Handle: buildHandle(t)})

	v.Update(keyRunes("When is the budget review?"))
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, status.StateAnswering, v.Status().State())

	completed := find[messages.AnswerCompleted](t, drain(cmd))
	assert.Equal(t, "When is the budget review?", qa.question)

	v.Update(completed)
	assert.Same(t, qa.record, v.Record())
	assert.Contains(t, v.View(), "Tuesday.")
	assert.Contains(t, v.Status().Message(), "1 sources")

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.True(t, v.ShowingSources())
	assert.Contains(t, v.View(), "Sources (1)")
}

func TestView_AskNotGrounded(t *testing.T) {
	v := newTestView(&mockQAService{}, &mockSessionService{}, nil)

	v.Update(messages.AnswerCompleted{Record: &domain.AnswerRecord{Answer: "I could not find that."}})

	assert.Contains(t, v.View(), "not found in the ingested messages")
}

func TestView_AskWithoutCorpus(t *testing.T) {
	v := newTestView(&mockQAService{}, &mockSessionService{}, nil)
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v.Update(keyRunes("anything?"))

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, status.StateError, v.Status().State())
	assert.Contains(t, v.Status().Message(), "ingest a day first")
}

func TestView_EmptyQuestionIgnored(t *testing.T) {
	v := newTestView(&mockQAService{}, &mockSessionService{}, nil)
	v.Update(messages.SessionOpened{Session: domain.DefaultSession, Handle: buildHandle(t)})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, status.StateReady, v.Status().State())
}

func TestView_BusyIgnoresInput(t *testing.T) {
	v := newTestView(&mockQAService{}, &mockSessionService{}, &mockIngestService{})
	v.Init()
	v.Date().SetValue("2024-05-02")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, v.Busy())

	v.Update(keyRunes("x"))
	v.Update(tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, "2024-05-02", v.Date().Value())
	assert.Equal(t, "Date", v.FocusedField())
}

func TestView_FieldKeys(t *testing.T) {
	v := newTestView(&mockQAService{}, &mockSessionService{}, nil)
	v.Init()

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "Question", v.FocusedField())

	v.Update(keyRunes("hello"))
	assert.Equal(t, "hello", v.Question().Value())

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, v.Question().Value())

	v.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "Date", v.FocusedField())
}

func TestView_SetSession(t *testing.T) {
	sessions := &mockSessionService{err: domain.ErrEmptyIndex}
	v := newTestView(&mockQAService{}, sessions, nil)
	v.Update(messages.SessionOpened{Session: domain.DefaultSession, Handle: buildHandle(t)})

	cmd := v.SetSession("work")

	assert.Equal(t, "work", v.Session())
	assert.Nil(t, v.Handle())
	find[messages.SessionOpened](t, drain(cmd))
	assert.Equal(t, "work", sessions.opened)
}
