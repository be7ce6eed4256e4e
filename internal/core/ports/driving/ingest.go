package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// IngestService builds session corpora from message sources.
type IngestService interface {
	// IngestDay fetches the messages of day from the configured source and
	// rebuilds session from them. An empty day rebuilds an empty corpus.
	IngestDay(ctx context.Context, session string, day time.Time) (*vectorindex.Handle, domain.IngestReport, error)

	// IngestItems rebuilds session from caller-supplied raw items.
	IngestItems(ctx context.Context, session string, items []string) (*vectorindex.Handle, domain.IngestReport, error)

	// SourceName names the configured message source, or "" if none.
	SourceName() string
}
