package services

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// Splitter divides one unit into smaller units. Implementations must
// return at least one unit for non-empty input.
type Splitter interface {
	Split(unit domain.TextUnit) []domain.TextUnit
}

// headerKeys maps the flattened header lines emitted by message sources to
// unit metadata keys.
var headerKeys = map[string]string{
	"subject":  domain.MetaSubject,
	"from":     domain.MetaFrom,
	"received": domain.MetaReceived,
}

// Normalizer turns raw message text into text units.
type Normalizer struct {
	splitter Splitter
	source   string
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithSplitter chunks long units. Without it each item is one unit.
func WithSplitter(s Splitter) NormalizerOption {
	return func(n *Normalizer) {
		n.splitter = s
	}
}

// WithSourceName records the message source in every unit's metadata.
func WithSourceName(name string) NormalizerOption {
	return func(n *Normalizer) {
		n.source = name
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize wraps every non-blank item as a unit with a generated ID, in
// input order. Blank and whitespace-only items are dropped. Leading header
// lines (Subject, From, Received) are copied into metadata; the content
// itself keeps them.
func (n *Normalizer) Normalize(items []string) []domain.TextUnit {
	units := make([]domain.TextUnit, 0, len(items))
	for i, item := range items {
		content := strings.TrimSpace(strings.ReplaceAll(item, "\r\n", "\n"))
		if content == "" {
			continue
		}

		meta := parseHeaders(content)
		meta[domain.MetaItem] = strconv.Itoa(i)
		if n.source != "" {
			meta[domain.MetaSource] = n.source
		}
		unit := domain.TextUnit{
			ID:       uuid.New().String(),
			Content:  content,
			Metadata: meta,
		}

		if n.splitter == nil {
			units = append(units, unit)
			continue
		}
		units = append(units, n.splitter.Split(unit)...)
	}
	return units
}

// parseHeaders reads "Key: value" lines from the top of content until the
// first blank line or the first line that is not a known header.
func parseHeaders(content string) map[string]string {
	meta := make(map[string]string)
	for line := range strings.Lines(content) {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		key, known := headerKeys[strings.ToLower(strings.TrimSpace(name))]
		if !ok || !known {
			if len(meta) == 0 {
				continue
			}
			break
		}
		meta[key] = strings.TrimSpace(value)
	}
	return meta
}
