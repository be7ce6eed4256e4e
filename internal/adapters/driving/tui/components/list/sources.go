// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// SourceList displays the messages an answer was drawn from, in rank order.
type SourceList struct {
	sources  []domain.Source
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &SourceList{styles: s, width: 80, height: 10}
}

// Update handles list navigation keys.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			l.MoveUp()
		case tea.KeyDown:
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list. The selected source is expanded to show its
// sender, time and a preview of its content.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.sources)+4)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))))

	for i := range l.sources {
		lines = append(lines, l.renderSource(i, &l.sources[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *SourceList) renderSource(index int, src *domain.Source) string {
	title := domain.TextUnit{ID: src.ID, Content: src.Content, Metadata: src.Metadata}.Title()
	maxTitle := l.width - 14
	if maxTitle < 10 {
		maxTitle = 10
	}
	title = truncate(title, maxTitle)
	score := fmt.Sprintf("%.2f", src.Score)

	if index != l.selected {
		return l.styles.Normal.Render(fmt.Sprintf("  [%d] %-*s ", index+1, maxTitle, title)) +
			l.styles.Muted.Render(score)
	}

	head := l.styles.Selected.Render(fmt.Sprintf("> [%d] %-*s %s", index+1, maxTitle, title, score))
	detail := make([]string, 0, 3)
	if from := src.Metadata[domain.MetaFrom]; from != "" {
		detail = append(detail, "      From: "+from)
	}
	if received := src.Metadata[domain.MetaReceived]; received != "" {
		detail = append(detail, "      Received: "+received)
	}
	preview := strings.Join(strings.Fields(src.Content), " ")
	detail = append(detail, "      "+truncate(preview, l.width-8))
	return head + "\n" + l.styles.Muted.Render(strings.Join(detail, "\n"))
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetSources replaces the list and selects the first entry.
func (l *SourceList) SetSources(sources []domain.Source) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the current sources.
func (l *SourceList) Sources() []domain.Source {
	return l.sources
}

// Selected returns the index of the selected source.
func (l *SourceList) Selected() int {
	return l.selected
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}
