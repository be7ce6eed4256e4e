// Package chunker splits long text units into overlapping fixed-size chunks.
package chunker

import (
	"strconv"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits unit content into chunks of at most chunkSize runes.
// Chunk ends are pulled back to the nearest whitespace when one exists in
// the second half of the window, so words are rarely cut.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split returns unit unchanged when it fits in one chunk, otherwise one
// unit per chunk. Chunks inherit the unit's metadata plus their position
// under domain.MetaChunk, and get fresh IDs. Blank chunks are skipped but
// at least one unit is always returned.
func (p *Processor) Split(unit domain.TextUnit) []domain.TextUnit {
	content := []rune(unit.Content)
	if len(content) <= p.chunkSize {
		return []domain.TextUnit{unit}
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.TextUnit, 0, len(content)/step+1)
	for start := 0; start < len(content); {
		end := min(start+p.chunkSize, len(content))
		if end < len(content) {
			end = wordBoundary(content, start, end)
		}

		text := trimSpace(content[start:end])
		if text != "" {
			chunk := unit.Clone()
			chunk.ID = uuid.New().String()
			chunk.Content = text
			if chunk.Metadata == nil {
				chunk.Metadata = make(map[string]string)
			}
			chunk.Metadata[domain.MetaChunk] = strconv.Itoa(len(chunks))
			chunks = append(chunks, chunk)
		}

		if end == len(content) {
			break
		}
		start = max(end-p.overlap, start+1)
	}

	if len(chunks) == 0 {
		return []domain.TextUnit{unit}
	}
	return chunks
}

// wordBoundary moves end back to just after the last whitespace in the
// second half of content[start:end], if there is one.
func wordBoundary(content []rune, start, end int) int {
	floor := start + (end-start)/2
	for i := end; i > floor; i-- {
		if unicode.IsSpace(content[i-1]) {
			return i
		}
	}
	return end
}

func trimSpace(r []rune) string {
	lo, hi := 0, len(r)
	for lo < hi && unicode.IsSpace(r[lo]) {
		lo++
	}
	for hi > lo && unicode.IsSpace(r[hi-1]) {
		hi--
	}
	return string(r[lo:hi])
}
