package driven

import (
	"context"
	"time"
)

// MessageSource fetches the messages received on one calendar day.
//
// Each returned string is one message flattened to text: subject, sender,
// timestamp and body. Authentication and translation of remote API errors
// are the implementation's responsibility. An empty result means there was
// nothing to ingest and is not an error.
type MessageSource interface {
	// Name identifies the source (e.g. "graph", "gmail", "maildir").
	Name() string

	// FetchDay returns the messages received between 00:00:00 and 23:59:59
	// UTC on day.
	FetchDay(ctx context.Context, day time.Time) ([]string, error)
}
