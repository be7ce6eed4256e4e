// Package mcp exposes mailqa to AI assistants over the Model Context Protocol.
// Assistants can ingest a day of mail, ask questions about it and list the
// sessions that have been built.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// Port validation errors.
var (
	ErrMissingQAService      = errors.New("mcp: question-answering service is required")
	ErrMissingSessionService = errors.New("mcp: session service is required")
)

// toolError turns a request failure into the message reported to the
// assistant. The SDK returns it as a tool result with IsError set, so the
// session stays open and the assistant can react to it.
func toolError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyIndex):
		return fmt.Errorf("%s: nothing has been ingested for this session; call ingest_day first", op)
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, domain.ErrAuthRequired):
		return fmt.Errorf("%s: the mail provider needs sign-in; run 'mailqa auth login' in a terminal", op)
	case errors.Is(err, domain.ErrTimeout):
		return fmt.Errorf("%s: timed out", op)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
