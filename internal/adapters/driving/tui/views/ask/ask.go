// Package ask provides the main view of the TUI: pick a day, ingest it,
// then ask questions about it.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// ErrNoSource is reported when ingesting without a configured message source.
var ErrNoSource = errors.New("no message source configured")

const (
	fieldDate = iota
	fieldQuestion
)

// View is the ask screen: a date field, a question field, the answer and
// the sources it was drawn from.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	date      *input.Field
	question  *input.Field
	answer    viewport.Model
	sources   *list.SourceList
	statusbar *status.Bar

	qa       driving.QAService
	sessions driving.SessionService
	ingest   driving.IngestService
	ctx      context.Context

	session     string
	handle      *vectorindex.Handle
	record      *domain.AnswerRecord
	focus       int
	showSources bool
	width       int
	height      int
}

// NewView creates an ask view bound to session. ingest may be nil, in which
// case only previously built sessions can be queried.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	qa driving.QAService,
	sessions driving.SessionService,
	ingest driving.IngestService,
	session string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if session == "" {
		session = domain.DefaultSession
	}

	date := input.NewField(s, "Date", "YYYY-MM-DD", len(time.DateOnly))
	date.SetValue(time.Now().Format(time.DateOnly))

	v := &View{
		styles:    s,
		keymap:    km,
		date:      date,
		question:  input.NewField(s, "Question", "What did I miss?", 500),
		answer:    viewport.New(80, 10),
		sources:   list.NewSourceList(s),
		statusbar: status.NewBar(s, km),
		qa:        qa,
		sessions:  sessions,
		ingest:    ingest,
		ctx:       context.Background(),
		session:   session,
		width:     80,
		height:    24,
	}
	v.statusbar.SetSession(session, 0)
	v.setAnswerText(v.styles.Muted.Render("Ask a question about the ingested messages."))
	return v
}

// WithContext sets the context passed to service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init focuses the date field and loads the session.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.setFocus(fieldDate), v.openSession())
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.SessionOpened:
		return v, v.handleSessionOpened(msg)

	case messages.IngestCompleted:
		return v, v.handleIngestCompleted(msg)

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.statusbar, cmd = v.statusbar.Update(msg)
	if cmd != nil {
		return v, cmd
	}
	return v.updateFocused(msg)
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	// Input is ignored while a service call is in flight.
	if v.Busy() {
		return v, nil
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Submit):
		if v.focus == fieldDate {
			return v, v.startIngest()
		}
		return v, v.startAsk()

	case keymap.Matches(key, v.keymap.NextField), keymap.Matches(key, v.keymap.PrevField):
		return v, v.setFocus(1 - v.focus)

	case keymap.Matches(key, v.keymap.Clear):
		v.focused().Reset()
		return v, nil

	case keymap.Matches(key, v.keymap.ToggleSources):
		v.showSources = !v.showSources
		v.layout()
		return v, nil

	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.answer, cmd = v.answer.Update(msg)
		return v, cmd

	case v.showSources && (keymap.Matches(key, v.keymap.Up) || keymap.Matches(key, v.keymap.Down)):
		if keymap.Matches(key, v.keymap.Up) {
			v.sources.MoveUp()
		} else {
			v.sources.MoveDown()
		}
		return v, nil
	}

	return v.updateFocused(msg)
}

func (v *View) updateFocused(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	if v.focus == fieldDate {
		v.date, cmd = v.date.Update(msg)
	} else {
		v.question, cmd = v.question.Update(msg)
	}
	return v, cmd
}

func (v *View) focused() *input.Field {
	if v.focus == fieldDate {
		return v.date
	}
	return v.question
}

func (v *View) setFocus(field int) tea.Cmd {
	v.focus = field
	if field == fieldDate {
		v.question.Blur()
		return v.date.Focus()
	}
	v.date.Blur()
	return v.question.Focus()
}

// openSession loads the stored corpus of the current session.
func (v *View) openSession() tea.Cmd {
	if v.sessions == nil {
		return nil
	}
	ctx, svc, session := v.ctx, v.sessions, v.session
	return func() tea.Msg {
		h, err := svc.Open(ctx, session)
		return messages.SessionOpened{Session: session, Handle: h, Err: err}
	}
}

func (v *View) startIngest() tea.Cmd {
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(v.date.Value()))
	if err != nil {
		v.fail(fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput))
		return nil
	}
	if v.ingest == nil {
		v.fail(ErrNoSource)
		return nil
	}

	tick := v.statusbar.SetState(status.StateIngesting)
	v.statusbar.SetMessage(fmt.Sprintf("Ingesting %s from %s...", day.Format(time.DateOnly), v.ingest.SourceName()))

	ctx, svc, session := v.ctx, v.ingest, v.session
	return tea.Batch(tick, func() tea.Msg {
		h, report, err := svc.IngestDay(ctx, session, day)
		return messages.IngestCompleted{Handle: h, Report: report, Err: err}
	})
}

func (v *View) startAsk() tea.Cmd {
	question := strings.TrimSpace(v.question.Value())
	if question == "" {
		return nil
	}
	if v.handle == nil {
		v.fail(fmt.Errorf("%w: ingest a day first", domain.ErrEmptyIndex))
		return nil
	}

	tick := v.statusbar.SetState(status.StateAnswering)
	ctx, svc, h := v.ctx, v.qa, v.handle
	return tea.Batch(tick, func() tea.Msg {
		record, err := svc.Answer(ctx, h, question)
		return messages.AnswerCompleted{Record: record, Err: err}
	})
}

func (v *View) handleSessionOpened(msg messages.SessionOpened) tea.Cmd {
	if msg.Session != v.session {
		return nil
	}
	if errors.Is(msg.Err, domain.ErrEmptyIndex) {
		v.setHandle(nil)
		v.statusbar.Clear()
		v.statusbar.SetMessage(fmt.Sprintf("Session %q is empty. Press Enter on a date to ingest it.", v.session))
		return nil
	}
	if msg.Err != nil {
		v.fail(msg.Err)
		return nil
	}

	v.setHandle(msg.Handle)
	v.statusbar.Clear()
	return v.setFocus(fieldQuestion)
}

func (v *View) handleIngestCompleted(msg messages.IngestCompleted) tea.Cmd {
	if msg.Err != nil {
		v.fail(msg.Err)
		return nil
	}

	v.setHandle(msg.Handle)
	v.statusbar.Clear()
	if msg.Report.Empty() {
		v.statusbar.SetMessage(fmt.Sprintf("No messages on %s.", msg.Report.Day))
		return nil
	}
	v.statusbar.SetMessage(fmt.Sprintf("Indexed %d units from %d messages.", msg.Report.Units, msg.Report.Fetched))
	return v.setFocus(fieldQuestion)
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.fail(msg.Err)
		return
	}

	v.record = msg.Record
	v.statusbar.Clear()

	text := msg.Record.Answer
	if !msg.Record.Grounded {
		text += "\n\n" + v.styles.Muted.Render("(not found in the ingested messages)")
	}
	v.setAnswerText(text)
	v.sources.SetSources(msg.Record.Sources)
	if len(msg.Record.Sources) > 0 {
		v.statusbar.SetMessage(fmt.Sprintf("%d sources (ctrl+s to show)", len(msg.Record.Sources)))
	}
}

func (v *View) setHandle(h *vectorindex.Handle) {
	v.handle = h
	v.statusbar.SetSession(v.session, h.Len())
}

func (v *View) setAnswerText(text string) {
	v.answer.SetContent(lipgloss.NewStyle().Width(v.answer.Width).Render(text))
	v.answer.GotoTop()
}

func (v *View) fail(err error) {
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the ask screen.
func (v *View) View() string {
	title := v.styles.Title.Render("mailqa")
	fields := lipgloss.JoinVertical(lipgloss.Left, v.date.View(), v.question.View())
	answer := v.styles.Panel.Render(v.answer.View())

	parts := []string{title, fields, answer}
	if v.showSources {
		parts = append(parts, v.sources.View())
	}
	parts = append(parts, v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetDimensions sets the view size and lays out its components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.layout()
}

func (v *View) layout() {
	v.date.SetWidth(v.width)
	v.question.SetWidth(v.width)
	v.statusbar.SetWidth(v.width)

	// Title, two framed fields, panel border and status bar.
	reserved := 12
	answerHeight := v.height - reserved
	if v.showSources {
		sourcesHeight := answerHeight / 2
		v.sources.SetDimensions(v.width, sourcesHeight)
		answerHeight -= sourcesHeight
	}
	if answerHeight < 3 {
		answerHeight = 3
	}
	v.answer.Width = v.width - 4
	v.answer.Height = answerHeight
}

// SetSession switches to another session and loads it.
func (v *View) SetSession(name string) tea.Cmd {
	if name == "" {
		name = domain.DefaultSession
	}
	v.session = name
	v.record = nil
	v.setHandle(nil)
	v.sources.SetSources(nil)
	v.setAnswerText(v.styles.Muted.Render("Ask a question about the ingested messages."))
	v.statusbar.Clear()
	return v.openSession()
}

// Session returns the current session name.
func (v *View) Session() string {
	return v.session
}

// Handle returns the loaded corpus, or nil.
func (v *View) Handle() *vectorindex.Handle {
	return v.handle
}

// Record returns the last answer, or nil.
func (v *View) Record() *domain.AnswerRecord {
	return v.record
}

// Busy reports whether an ingest or answer is in flight.
func (v *View) Busy() bool {
	return v.statusbar.State().Busy()
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.statusbar
}

// ShowingSources reports whether the sources panel is visible.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// FocusedField returns the label of the focused field.
func (v *View) FocusedField() string {
	return v.focused().Label()
}

// Date returns the date field.
func (v *View) Date() *input.Field {
	return v.date
}

// Question returns the question field.
func (v *View) Question() *input.Field {
	return v.question
}
