package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui/styles"
)

func TestNewField(t *testing.T) {
	f := NewField(nil, "Date", "YYYY-MM-DD", 10)

	require.NotNil(t, f)
	assert.Equal(t, "Date", f.Label())
	assert.Empty(t, f.Value())
	assert.False(t, f.Focused())
	assert.Equal(t, 50, f.Width())
}

func TestField_FocusAndTyping(t *testing.T) {
	f := NewField(styles.DefaultStyles(), "Question", "Ask something", 0)
	f.Focus()
	require.True(t, f.Focused())

	for _, r := range "hi" {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, "hi", f.Value())

	f.Blur()
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'!'}})
	assert.Equal(t, "hi", f.Value(), "blurred field ignores keys")
}

func TestField_CharLimit(t *testing.T) {
	f := NewField(nil, "Date", "", 10)
	f.SetValue("2024-05-02T10:00")

	assert.Equal(t, "2024-05-02", f.Value())
}

func TestField_SetWidth(t *testing.T) {
	tests := []struct {
		name  string
		width int
	}{
		{name: "wide", width: 120},
		{name: "narrow", width: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewField(nil, "Date", "", 0)
			f.SetWidth(tt.width)
			assert.Equal(t, tt.width, f.Width())
		})
	}
}

func TestField_ViewAndReset(t *testing.T) {
	f := NewField(nil, "Date", "", 0)
	f.SetValue("2024-05-02")

	view := f.View()
	assert.Contains(t, view, "Date")
	assert.Contains(t, view, "2024-05-02")

	f.Reset()
	assert.Empty(t, f.Value())
}
