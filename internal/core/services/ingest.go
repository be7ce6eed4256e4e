package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
	"github.com/custodia-labs/mailqa/internal/logger"
)

// DayLayout is the ISO 8601 calendar date layout used for ingestion days.
const DayLayout = "2006-01-02"

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService fetches, normalises and indexes messages.
type IngestService struct {
	source     driven.MessageSource
	normalizer *Normalizer
	index      *vectorindex.Index
}

// NewIngestService creates an IngestService. source may be nil, in which
// case only IngestItems is available.
func NewIngestService(source driven.MessageSource, normalizer *Normalizer, index *vectorindex.Index) *IngestService {
	return &IngestService{source: source, normalizer: normalizer, index: index}
}

// SourceName names the configured message source.
func (s *IngestService) SourceName() string {
	if s.source == nil {
		return ""
	}
	return s.source.Name()
}

// IngestDay rebuilds session from the messages received on day.
// A day without messages rebuilds an empty corpus; that is not an error.
func (s *IngestService) IngestDay(
	ctx context.Context, session string, day time.Time,
) (*vectorindex.Handle, domain.IngestReport, error) {
	report := domain.IngestReport{Session: sessionName(session), Day: day.Format(DayLayout)}
	if s.source == nil {
		return nil, report, fmt.Errorf("%w: no message source configured", domain.ErrInvalidInput)
	}
	report.Source = s.source.Name()

	logger.Section("Ingest")
	start := time.Now()
	logger.Debug("fetching %s from %s", report.Day, report.Source)

	items, err := s.source.FetchDay(ctx, day)
	if err != nil {
		return nil, report, fmt.Errorf("fetch %s from %s: %w", report.Day, report.Source, domain.ContextError(ctx, err))
	}
	if len(items) == 0 {
		logger.Info("no messages on %s, nothing to ingest", report.Day)
	}

	h, err := s.build(ctx, session, items, &report)
	report.Elapsed = time.Since(start)
	return h, report, err
}

// IngestItems rebuilds session from caller-supplied raw items.
func (s *IngestService) IngestItems(
	ctx context.Context, session string, items []string,
) (*vectorindex.Handle, domain.IngestReport, error) {
	report := domain.IngestReport{Session: sessionName(session)}
	start := time.Now()
	h, err := s.build(ctx, session, items, &report)
	report.Elapsed = time.Since(start)
	return h, report, err
}

func (s *IngestService) build(
	ctx context.Context, session string, items []string, report *domain.IngestReport,
) (*vectorindex.Handle, error) {
	session = sessionName(session)
	report.Fetched = len(items)
	units := s.normalizer.Normalize(items)
	logger.Debug("normalised %d items into %d units", len(items), len(units))

	h, err := s.index.Build(ctx, session, units)
	if err != nil {
		return nil, fmt.Errorf("build session %q: %w", session, err)
	}
	report.Session = h.Session()
	report.Units = h.Len()
	return h, nil
}
