package connectors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/mailqa/internal/adapters/driven/apierr"
	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// Classify maps a failed mail API call to the domain error taxonomy,
// keeping err as the cause. Context errors and errors already classified
// are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, domain.ErrAuthRequired), errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrSourceUnavailable):
		return err
	}

	var statusErr *apierr.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode, err)
	}

	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return classifyStatus(googleErr.Code, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return err
}

func classifyStatus(code int, err error) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case code >= http.StatusInternalServerError, code == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	default:
		return err
	}
}
