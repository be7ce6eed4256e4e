package mcp

import (
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// QA answers questions.
	QA driving.QAService

	// Sessions opens and lists built corpora.
	Sessions driving.SessionService

	// Ingest rebuilds sessions from the configured message source.
	// Optional: without it the ingest_day tool is not registered.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.QA == nil {
		return ErrMissingQAService
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	return nil
}
