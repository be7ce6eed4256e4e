package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors. The first five form the failure taxonomy of the
// question-answering engine; callers branch on them with errors.Is.
var (
	// ErrInvalidInput indicates bad caller arguments. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingProvider indicates the embedding provider failed or
	// returned malformed vectors (wrong dimensionality, NaN values).
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrGenerationService indicates the language-model service failed.
	ErrGenerationService = errors.New("generation service error")

	// ErrEmptyIndex indicates a query against a corpus with no entries,
	// or before any successful build.
	ErrEmptyIndex = errors.New("empty index")

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// Message source errors.

	// ErrAuthRequired indicates the source needs (re)authentication.
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited indicates the remote API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrSourceUnavailable indicates the message source could not be reached
	// or answered with a server error.
	ErrSourceUnavailable = errors.New("message source unavailable")
)

// DimensionMismatchError reports a vector whose length differs from the
// dimensionality of the corpus it is compared against.
// It matches ErrEmbeddingProvider.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrEmbeddingProvider.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrEmbeddingProvider
}

// ContextError maps a failure caused by an expired deadline to ErrTimeout
// and one caused by cancellation to an error matching ctx.Err().
// Other errors are returned unchanged.
func ContextError(ctx context.Context, err error) error {
	switch {
	case err == nil, errors.Is(err, ErrTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case ctx.Err() != nil && !errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}
