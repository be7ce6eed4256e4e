// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateIngesting State = "ingesting"
	StateAnswering State = "answering"
	StateError     State = "error"
)

// Busy reports whether the state represents work in progress.
func (s State) Busy() bool {
	return s == StateIngesting || s == StateAnswering
}

// Bar displays application status, the active session and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	state   State
	message string
	session string
	units   int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Warning

	return &Bar{
		styles:  s,
		keymap:  km,
		spinner: sp,
		state:   StateReady,
		width:   80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update advances the spinner while work is in progress.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return s, nil
	}
	if !s.state.Busy() {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	// Width includes the style's horizontal padding.
	inner := s.width - s.styles.StatusBar.GetHorizontalPadding()
	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	session := s.renderSession()

	switch s.state {
	case StateIngesting:
		return s.spinner.View() + " " + s.styles.Warning.Render(s.messageOr("Ingesting...")) + session
	case StateAnswering:
		return s.spinner.View() + " " + s.styles.Warning.Render(s.messageOr("Thinking...")) + session
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: "+s.message) + session
		}
		return s.styles.Error.Render("Error") + session
	case StateReady:
	}
	return s.styles.Muted.Render(s.messageOr("Ready")) + session
}

func (s *Bar) renderSession() string {
	if s.session == "" {
		return ""
	}
	return s.styles.Muted.Render(fmt.Sprintf("  [%s: %d units]", s.session, s.units))
}

func (s *Bar) messageOr(fallback string) string {
	if s.message != "" {
		return s.message
	}
	return fallback
}

func (s *Bar) renderRight() string {
	return s.styles.Muted.Render(HelpLine(s.keymap.ShortHelp()))
}

// HelpLine formats bindings as "key: desc | key: desc".
func HelpLine(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return strings.Join(hints, " | ")
}

// SetState sets the current state and clears the message. It returns the
// spinner tick command when the new state is busy.
func (s *Bar) SetState(state State) tea.Cmd {
	s.state = state
	s.message = ""
	if state.Busy() {
		return s.spinner.Tick
	}
	return nil
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetSession records the active session and its size.
func (s *Bar) SetSession(name string, units int) {
	s.session = name
	s.units = units
}

// Session returns the active session name.
func (s *Bar) Session() string {
	return s.session
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
