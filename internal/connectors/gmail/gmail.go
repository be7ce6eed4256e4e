// Package gmail fetches a day of mail through the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/mailqa/internal/connectors"
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/logger"
	"github.com/custodia-labs/mailqa/internal/normalisers/eml"
)

// Ensure Source implements the interface.
var _ driven.MessageSource = (*Source)(nil)

// Default configuration values.
const (
	DefaultPageSize = 100
	DefaultWorkers  = 4

	// userID addresses the authenticated user's mailbox.
	userID = "me"
)

// Authorizer supplies OAuth2 tokens for Gmail requests.
type Authorizer interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// Config holds configuration for the Gmail source.
type Config struct {
	// PageSize is maxResults per list call.
	PageSize int64

	// Workers is the number of messages fetched concurrently.
	Workers int

	// IncludeSpamTrash also returns messages in spam and trash.
	IncludeSpamTrash bool

	// ClientOptions are appended when creating the API client, after the
	// token source.
	ClientOptions []option.ClientOption

	// RateLimit overrides connectors.GmailRateLimit.
	RateLimit *connectors.RateLimitConfig
}

// Source reads messages from Gmail.
type Source struct {
	auth    Authorizer
	cfg     Config
	limiter *connectors.RateLimiter
}

// New creates a Gmail source.
func New(auth Authorizer, cfg Config) *Source {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	limit := connectors.GmailRateLimit
	if cfg.RateLimit != nil {
		limit = *cfg.RateLimit
	}
	return &Source{auth: auth, cfg: cfg, limiter: connectors.NewRateLimiter(limit)}
}

// Name identifies the source.
func (s *Source) Name() string {
	return string(domain.SourceGmail)
}

// FetchDay returns the messages received on day (UTC), in the order the
// API lists them.
func (s *Source) FetchDay(ctx context.Context, day time.Time) ([]string, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	utc := day.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	ids, err := s.listIDs(ctx, svc, Query(start))
	if err != nil {
		return nil, connectors.Classify(err)
	}
	logger.Debug("gmail: %d candidate messages for %s", len(ids), start.Format("2006-01-02"))

	messages := make([]*domain.MailMessage, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, id := range ids {
		g.Go(func() error {
			msg, err := s.getMessage(gctx, svc, id)
			if err != nil {
				return err
			}
			if !msg.Received.Before(start) && msg.Received.Before(end) {
				messages[i] = msg
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, connectors.Classify(err)
	}

	items := make([]string, 0, len(messages))
	for _, m := range messages {
		if m != nil {
			items = append(items, m.Flatten())
		}
	}
	return items, nil
}

// Query returns the Gmail search for the UTC day starting at start. The
// bounds are epoch seconds so the mailbox time zone does not shift them.
func Query(start time.Time) string {
	end := start.AddDate(0, 0, 1)
	return fmt.Sprintf("after:%d before:%d", start.Unix()-1, end.Unix())
}

func (s *Source) service(ctx context.Context) (*gmail.Service, error) {
	ts, err := s.auth.TokenSource(ctx)
	if err != nil {
		return nil, connectors.Classify(err)
	}
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, s.cfg.ClientOptions...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail client: %w", err)
	}
	return svc, nil
}

func (s *Source) listIDs(ctx context.Context, svc *gmail.Service, query string) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		call := svc.Users.Messages.List(userID).
			Q(query).
			MaxResults(s.cfg.PageSize).
			IncludeSpamTrash(s.cfg.IncludeSpamTrash).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (s *Source) getMessage(ctx context.Context, svc *gmail.Service, id string) (*domain.MailMessage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	msg, err := svc.Users.Messages.Get(userID, id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	raw, err := decodeRaw(msg.Raw)
	if err != nil {
		return nil, fmt.Errorf("decode message %s: %w", id, err)
	}
	parsed, err := eml.ParseBytes(raw)
	if err != nil {
		logger.Warn("gmail: skipping unparseable message %s: %v", id, err)
		parsed = domain.MailMessage{Body: msg.Snippet}
	}

	// The internal date is when Gmail received the message; the Date header
	// is only what the sender claimed.
	if msg.InternalDate > 0 {
		parsed.Received = time.UnixMilli(msg.InternalDate).UTC()
	}
	return &parsed, nil
}

// decodeRaw decodes the base64url raw payload, with or without padding.
func decodeRaw(raw string) ([]byte, error) {
	if strings.HasSuffix(raw, "=") {
		return base64.URLEncoding.DecodeString(raw)
	}
	return base64.RawURLEncoding.DecodeString(raw)
}
