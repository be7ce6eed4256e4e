package vectorindex

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// Handle is one session's searchable corpus. It is immutable once returned
// by Build and may be searched concurrently.
type Handle struct {
	id      string
	session string
	model   string
	dims    int
	builtAt time.Time
	entries []domain.IndexEntry
	norms   []float32
}

func newHandle(info domain.SessionInfo, entries []domain.IndexEntry) *Handle {
	norms := make([]float32, len(entries))
	for i, e := range entries {
		norms[i] = magnitude(e.Vector)
	}
	return &Handle{
		id:      info.IndexID,
		session: info.Name,
		model:   info.Model,
		dims:    info.Dimensions,
		builtAt: info.BuiltAt,
		entries: entries,
		norms:   norms,
	}
}

// ID identifies the build that produced the handle.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// Session returns the session name.
func (h *Handle) Session() string {
	if h == nil {
		return ""
	}
	return h.session
}

// Model returns the embedding model the corpus was built with.
func (h *Handle) Model() string {
	if h == nil {
		return ""
	}
	return h.model
}

// Dimensions returns the vector size of the corpus.
func (h *Handle) Dimensions() int {
	if h == nil {
		return 0
	}
	return h.dims
}

// BuiltAt returns when the corpus was built.
func (h *Handle) BuiltAt() time.Time {
	if h == nil {
		return time.Time{}
	}
	return h.builtAt
}

// Len returns the number of indexed units.
func (h *Handle) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Units returns copies of the indexed units in insertion order.
func (h *Handle) Units() []domain.TextUnit {
	if h == nil {
		return nil
	}
	units := make([]domain.TextUnit, len(h.entries))
	for i, e := range h.entries {
		units[i] = e.Unit.Clone()
	}
	return units
}

// Info describes the handle as a session summary.
func (h *Handle) Info() domain.SessionInfo {
	return domain.SessionInfo{
		Name:       h.Session(),
		IndexID:    h.ID(),
		Model:      h.Model(),
		Dimensions: h.Dimensions(),
		Units:      h.Len(),
		BuiltAt:    h.BuiltAt(),
	}
}

// Search returns the k entries most similar to query by cosine similarity,
// ordered by descending score. Equal scores keep insertion order.
// Fewer than k results are returned when the corpus is smaller.
func (h *Handle) Search(query []float32, k int) ([]domain.ScoredUnit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if h.Len() == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if len(query) != h.dims {
		return nil, &domain.DimensionMismatchError{Expected: h.dims, Actual: len(query)}
	}
	if !finite(query) {
		return nil, fmt.Errorf("%w: query vector contains NaN or Inf", domain.ErrEmbeddingProvider)
	}

	type hit struct {
		pos   int
		score float64
	}
	qm := magnitude(query)
	hits := make([]hit, len(h.entries))
	for i, e := range h.entries {
		hits[i] = hit{pos: i, score: cosine(query, e.Vector, qm, h.norms[i])}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Compare(b.score, a.score)
	})

	n := min(k, len(hits))
	results := make([]domain.ScoredUnit, n)
	for i := range n {
		results[i] = domain.ScoredUnit{
			Unit:  h.entries[hits[i].pos].Unit.Clone(),
			Score: hits[i].score,
		}
	}
	return results, nil
}
