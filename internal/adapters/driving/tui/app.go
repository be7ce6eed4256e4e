package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/views/sessions"
	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	askView      *ask.View
	sessionsView *sessions.View

	// currentView tracks which view is active; previousView is restored
	// when the help view closes.
	currentView  messages.ViewType
	previousView messages.ViewType

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// Option configures an App.
type Option func(*options)

type options struct {
	session string
}

// WithSession sets the session loaded at startup.
func WithSession(name string) Option {
	return func(o *options) {
		o.session = name
	}
}

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts ...Option) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	o := options{session: domain.DefaultSession}
	for _, opt := range opts {
		opt(&o)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		askView:      ask.NewView(s, km, ports.QA, ports.Sessions, ports.Ingest, o.session),
		sessionsView: sessions.NewView(s, km, ports.Sessions),
		currentView:  messages.ViewAsk,
	}, nil
}

// WithContext sets the context passed to service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.sessionsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("mailqa"),
		a.askView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.SessionSelected:
		a.currentView = messages.ViewAsk
		return a, a.askView.SetSession(msg.Name)

	case messages.SessionsLoaded:
		a.sessionsView, cmd = a.sessionsView.Update(msg)
		return a, cmd

	case messages.SessionOpened, messages.IngestCompleted, messages.AnswerCompleted:
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Spinner ticks and cursor blinks belong to the ask view.
	a.askView, cmd = a.askView.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	if keymap.Matches(keyStr, a.keymap.Quit) {
		return a, tea.Quit
	}

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewAsk:
		if !a.askView.Busy() {
			switch {
			case keymap.Matches(keyStr, a.keymap.Help):
				return a, a.switchView(messages.ViewHelp)
			case keymap.Matches(keyStr, a.keymap.Sessions):
				return a, a.switchView(messages.ViewSessions)
			}
		}
		a.askView, cmd = a.askView.Update(msg)

	case messages.ViewSessions:
		a.sessionsView, cmd = a.sessionsView.Update(msg)

	case messages.ViewHelp:
		if keymap.Matches(keyStr, a.keymap.Clear) || keymap.Matches(keyStr, a.keymap.Help) {
			a.currentView = a.previousView
		}
	}
	return a, cmd
}

func (a *App) switchView(view messages.ViewType) tea.Cmd {
	if view == messages.ViewHelp {
		a.previousView = a.currentView
	}
	a.currentView = view
	if view == messages.ViewSessions {
		return a.sessionsView.Refresh()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSessions:
		return a.sessionsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewAsk:
	}
	return a.askView.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Keybindings"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(a.styles.Label.Render(h.Key))
			b.WriteString(a.styles.Normal.Render(h.Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render(status.HelpLine([]key.Binding{a.keymap.Clear, a.keymap.Quit})))
	return b.String()
}

// SetDimensions sets the terminal size on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.askView.SetDimensions(width, height)
	a.sessionsView.SetDimensions(width, height)
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Session returns the session the ask view is bound to.
func (a *App) Session() string {
	return a.askView.Session()
}

// Err returns the last reported error.
func (a *App) Err() error {
	return a.err
}

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}
