// Package sessions provides the session picker view for the TUI.
package sessions

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
)

// View lists built sessions and lets the user switch between them.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	service  driving.SessionService
	ctx      context.Context
	sessions []domain.SessionInfo
	selected int
	err      error
	width    int
	height   int
}

// NewView creates a new session picker.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.SessionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:  s,
		keymap:  km,
		service: service,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context passed to the session service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the session list.
func (v *View) Init() tea.Cmd {
	return v.Refresh()
}

// Refresh reloads the session list.
func (v *View) Refresh() tea.Cmd {
	if v.service == nil {
		return nil
	}
	ctx, svc := v.ctx, v.service
	return func() tea.Msg {
		sessions, err := svc.List(ctx)
		return messages.SessionsLoaded{Sessions: sessions, Err: err}
	}
}

// Update handles messages for the session picker.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SessionsLoaded:
		v.err = msg.Err
		v.sessions = msg.Sessions
		if v.selected >= len(v.sessions) {
			v.selected = 0
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Clear):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewAsk}
		}

	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}

	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.sessions)-1 {
			v.selected++
		}

	case keymap.Matches(key, v.keymap.Submit):
		if len(v.sessions) == 0 {
			return v, nil
		}
		name := v.sessions[v.selected].Name
		return v, func() tea.Msg {
			return messages.SessionSelected{Name: name}
		}
	}
	return v, nil
}

// View renders the session picker.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sessions"))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.sessions) == 0:
		b.WriteString(v.styles.Muted.Render("No sessions yet. Ingest a day to create one."))
	default:
		for i, s := range v.sessions {
			line := fmt.Sprintf("%-20s %5d units  %-24s %s",
				s.Name, s.Units, s.Model, s.BuiltAt.Local().Format("2006-01-02 15:04"))
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render("> " + line))
			} else {
				b.WriteString(v.styles.Normal.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(status.HelpLine(v.keymap.ListHelp())))
	return b.String()
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Sessions returns the loaded sessions.
func (v *View) Sessions() []domain.SessionInfo {
	return v.sessions
}

// Selected returns the index of the highlighted session.
func (v *View) Selected() int {
	return v.selected
}
