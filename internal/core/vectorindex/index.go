package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/logger"
)

// Default build parameters.
const (
	DefaultBatchSize = 64
	DefaultWorkers   = 4
)

// Index builds corpora and tracks the current handle of each session.
type Index struct {
	embedder  driven.EmbeddingService
	store     driven.IndexStore
	batchSize int
	workers   int
	now       func() time.Time

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	current map[string]*Handle
}

// Option configures an Index.
type Option func(*Index)

// WithStore persists every successful build. A nil store keeps corpora in
// memory only.
func WithStore(store driven.IndexStore) Option {
	return func(ix *Index) {
		ix.store = store
	}
}

// WithBatchSize sets the number of texts per embedding request.
func WithBatchSize(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithWorkers sets how many embedding requests may be in flight.
func WithWorkers(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) Option {
	return func(ix *Index) {
		ix.now = now
	}
}

// New creates an Index that embeds with embedder.
func New(embedder driven.EmbeddingService, opts ...Option) *Index {
	ix := &Index{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
		current:   make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Embedder returns the embedding service the index builds with.
func (ix *Index) Embedder() driven.EmbeddingService {
	return ix.embedder
}

// sessionLock returns the mutex serialising builds of one session.
func (ix *Index) sessionLock(session string) *sync.Mutex {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	l, ok := ix.locks[session]
	if !ok {
		l = &sync.Mutex{}
		ix.locks[session] = l
	}
	return l
}

// Build embeds every unit and makes the result the current corpus of
// session. Builds of the same session are serialised; the last to finish
// wins. On any failure, including cancellation, no handle is produced and
// the previous corpus stays current.
func (ix *Index) Build(ctx context.Context, session string, units []domain.TextUnit) (*Handle, error) {
	session = strings.TrimSpace(session)
	if session == "" {
		return nil, fmt.Errorf("%w: session name is required", domain.ErrInvalidInput)
	}
	for i, u := range units {
		if strings.TrimSpace(u.Content) == "" {
			return nil, fmt.Errorf("%w: unit %d has no content", domain.ErrInvalidInput, i)
		}
	}

	lock := ix.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	logger.Debug("building session %q from %d units", session, len(units))
	start := ix.now()

	vectors, err := ix.embedAll(ctx, units)
	if err != nil {
		return nil, err
	}

	dims := ix.embedder.Dimensions()
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	entries := make([]domain.IndexEntry, len(units))
	for i, v := range vectors {
		switch {
		case len(v) == 0:
			return nil, fmt.Errorf("%w: empty vector for unit %d", domain.ErrEmbeddingProvider, i)
		case len(v) != dims:
			return nil, fmt.Errorf("unit %d: %w", i, &domain.DimensionMismatchError{Expected: dims, Actual: len(v)})
		case !finite(v):
			return nil, fmt.Errorf("%w: vector for unit %d contains NaN or Inf", domain.ErrEmbeddingProvider, i)
		}
		entries[i] = domain.IndexEntry{Unit: units[i].Clone(), Vector: slices.Clone(v)}
	}

	info := domain.SessionInfo{
		Name:       session,
		IndexID:    uuid.New().String(),
		Model:      ix.embedder.ModelName(),
		Dimensions: dims,
		Units:      len(entries),
		BuiltAt:    ix.now(),
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.ContextError(ctx, err)
	}
	// A committed session is queryable from the store, so once
	// ReplaceSession succeeds the build has succeeded.
	if ix.store != nil {
		if err := ix.store.ReplaceSession(ctx, info, entries); err != nil {
			return nil, domain.ContextError(ctx, fmt.Errorf("persist session %q: %w", session, err))
		}
	}

	h := newHandle(info, entries)
	ix.mu.Lock()
	ix.current[session] = h
	ix.mu.Unlock()

	logger.Debug("session %q built: %d units, %d dims in %s", session, h.Len(), dims, ix.now().Sub(start))
	return h, nil
}

// embedAll embeds units in batches, running up to ix.workers batches at once.
// The result is in unit order regardless of completion order.
func (ix *Index) embedAll(ctx context.Context, units []domain.TextUnit) ([][]float32, error) {
	vectors := make([][]float32, len(units))
	if len(units) == 0 {
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for start := 0; start < len(units); start += ix.batchSize {
		end := min(start+ix.batchSize, len(units))
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = units[start+i].Content
			}
			batch, err := ix.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingProvider, len(batch), len(texts))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, embeddingError(ctx, err)
	}
	return vectors, nil
}

// Current returns the current handle of session, loading it from the store
// when it is not in memory. Returns domain.ErrEmptyIndex when the session
// has never been built.
func (ix *Index) Current(ctx context.Context, session string) (*Handle, error) {
	ix.mu.Lock()
	h, ok := ix.current[session]
	ix.mu.Unlock()
	if ok {
		return h, nil
	}
	if ix.store == nil {
		return nil, fmt.Errorf("session %q: %w", session, domain.ErrEmptyIndex)
	}

	lock := ix.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	// A build may have completed while waiting for the lock.
	ix.mu.Lock()
	h, ok = ix.current[session]
	ix.mu.Unlock()
	if ok {
		return h, nil
	}

	info, entries, err := ix.store.LoadSession(ctx, session)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("session %q: %w", session, domain.ErrEmptyIndex)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", session, err)
	}
	h = newHandle(info, entries)
	ix.mu.Lock()
	ix.current[session] = h
	ix.mu.Unlock()
	logger.Debug("loaded session %q from store: %d units", session, h.Len())
	return h, nil
}

// Drop forgets a session and deletes it from the store.
func (ix *Index) Drop(ctx context.Context, session string) error {
	lock := ix.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	ix.mu.Lock()
	_, inMemory := ix.current[session]
	delete(ix.current, session)
	ix.mu.Unlock()

	if ix.store == nil {
		if !inMemory {
			return fmt.Errorf("session %q: %w", session, domain.ErrNotFound)
		}
		return nil
	}
	if err := ix.store.DeleteSession(ctx, session); err != nil {
		return fmt.Errorf("delete session %q: %w", session, err)
	}
	return nil
}

// Sessions lists known sessions ordered by name. Stored sessions are
// reported from the store; sessions built in this process take precedence.
func (ix *Index) Sessions(ctx context.Context) ([]domain.SessionInfo, error) {
	byName := make(map[string]domain.SessionInfo)
	if ix.store != nil {
		stored, err := ix.store.ListSessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		for _, s := range stored {
			byName[s.Name] = s
		}
	}

	ix.mu.Lock()
	for name, h := range ix.current {
		byName[name] = h.Info()
	}
	ix.mu.Unlock()

	out := make([]domain.SessionInfo, 0, len(byName))
	for _, s := range byName {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b domain.SessionInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// embeddingError classifies a failure from the embedding provider.
func embeddingError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ContextError(ctx, err)
	}
	if errors.Is(err, domain.ErrEmbeddingProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
}
