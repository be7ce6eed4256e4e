// Package retry wraps an embedding service with bounded exponential
// backoff for transient provider failures.
package retry

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/mailqa/internal/adapters/driven/apierr"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default retry parameters.
const (
	DefaultAttempts  = 4
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultMaxDelay  = 20 * time.Second
)

// EmbeddingService retries transient failures of the wrapped service.
type EmbeddingService struct {
	next      driven.EmbeddingService
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	limiter   *rate.Limiter
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures the retrying service.
type Option func(*EmbeddingService)

// WithAttempts sets the total number of tries, including the first.
func WithAttempts(n int) Option {
	return func(s *EmbeddingService) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithDelays sets the first backoff delay and its cap.
func WithDelays(base, maxDelay time.Duration) Option {
	return func(s *EmbeddingService) {
		if base > 0 {
			s.baseDelay = base
		}
		if maxDelay >= base {
			s.maxDelay = maxDelay
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *EmbeddingService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// New wraps next.
func New(next driven.EmbeddingService, opts ...Option) *EmbeddingService {
	s := &EmbeddingService{
		next:      next,
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		maxDelay:  DefaultMaxDelay,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed embeds text, retrying transient failures.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := s.do(ctx, func() error {
		v, err := s.next.Embed(ctx, text)
		out = v
		return err
	})
	return out, err
}

// EmbedBatch embeds texts, retrying the whole batch on transient failures.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var out [][]float32
	err := s.do(ctx, func() error {
		v, err := s.next.EmbedBatch(ctx, texts)
		out = v
		return err
	})
	return out, err
}

func (s *EmbeddingService) do(ctx context.Context, call func() error) error {
	var err error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if s.limiter != nil {
			if werr := s.limiter.Wait(ctx); werr != nil {
				return werr
			}
		}
		if err = call(); err == nil || !apierr.IsTransient(err) || ctx.Err() != nil {
			return err
		}
		if attempt == s.attempts-1 {
			break
		}
		d := s.delay(attempt, apierr.RetryAfter(err))
		logger.Warn("embedding attempt %d/%d failed, retrying in %s: %v", attempt+1, s.attempts, d, err)
		if serr := s.sleep(ctx, d); serr != nil {
			return err
		}
	}
	return err
}

// delay doubles from the base delay per attempt, capped at maxDelay.
// A server-requested delay wins when it is longer.
func (s *EmbeddingService) delay(attempt int, retryAfter time.Duration) time.Duration {
	d := s.baseDelay << attempt
	if d <= 0 || d > s.maxDelay {
		d = s.maxDelay
	}
	return max(d, retryAfter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping pings the wrapped service once.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.next.Close() }
