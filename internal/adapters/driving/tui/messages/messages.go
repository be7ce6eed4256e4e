// Package messages defines Bubbletea message types for the TUI.
// Messages carry the results of service calls back into the Elm update loop.
package messages

import (
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewAsk is the date, question and answer screen.
	ViewAsk ViewType = iota
	// ViewSessions is the session picker.
	ViewSessions
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewAsk:
		return "ask"
	case ViewSessions:
		return "sessions"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// SessionOpened carries the stored corpus of a session. Handle is nil and
// Err matches domain.ErrEmptyIndex when the session was never built.
type SessionOpened struct {
	Session string
	Handle  *vectorindex.Handle
	Err     error
}

// IngestCompleted carries the result of ingesting a day.
type IngestCompleted struct {
	Handle *vectorindex.Handle
	Report domain.IngestReport
	Err    error
}

// AnswerCompleted carries the answer to a question.
type AnswerCompleted struct {
	Record *domain.AnswerRecord
	Err    error
}

// SessionsLoaded carries the list of known sessions.
type SessionsLoaded struct {
	Sessions []domain.SessionInfo
	Err      error
}

// SessionSelected is sent when a session is picked from the list.
type SessionSelected struct {
	Name string
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
