// Package tui provides an interactive terminal user interface for mailqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// QA answers questions against a loaded session.
	QA driving.QAService

	// Sessions opens and lists built sessions.
	Sessions driving.SessionService

	// Ingest rebuilds a session from a day of mail. Optional: without it the
	// TUI can only query sessions built elsewhere.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.QA == nil {
		return ErrMissingQAService
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	return nil
}
