// Package graph fetches a day of mail from Microsoft Graph.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"github.com/custodia-labs/mailqa/internal/adapters/driven/apierr"
	"github.com/custodia-labs/mailqa/internal/connectors"
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/logger"
	"github.com/custodia-labs/mailqa/internal/normalisers/html"
)

// Ensure Source implements the interface.
var _ driven.MessageSource = (*Source)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "https://graph.microsoft.com/v1.0"
	DefaultPageSize = 50
	DefaultTimeout  = 60 * time.Second

	// maxThrottleRetries bounds retries of one request answered with 429.
	maxThrottleRetries = 3
)

// Authorizer supplies OAuth2 tokens for Graph requests.
type Authorizer interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// Config holds configuration for the Graph source.
type Config struct {
	// BaseURL is the Graph API root (default: https://graph.microsoft.com/v1.0).
	BaseURL string

	// UserPrincipal selects the mailbox /users/{UserPrincipal}. Empty reads
	// the signed-in user's mailbox (/me), which needs delegated auth.
	UserPrincipal string

	// PageSize is the $top value per request.
	PageSize int

	// HTTPClient is the base client; tokens are added on top of it.
	HTTPClient *http.Client

	// RateLimit overrides connectors.GraphRateLimit.
	RateLimit *connectors.RateLimitConfig

	// ThrottleBackoff is the pause after a 429 without Retry-After
	// (default: connectors.DefaultBackoff).
	ThrottleBackoff time.Duration
}

// Source reads messages from Microsoft Graph.
type Source struct {
	auth     Authorizer
	baseURL  string
	mailbox  string
	pageSize int
	client   *http.Client
	limiter  *connectors.RateLimiter
	backoff  time.Duration
}

// New creates a Graph source.
func New(auth Authorizer, cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.ThrottleBackoff <= 0 {
		cfg.ThrottleBackoff = connectors.DefaultBackoff
	}
	limit := connectors.GraphRateLimit
	if cfg.RateLimit != nil {
		limit = *cfg.RateLimit
	}

	mailbox := "/me"
	if cfg.UserPrincipal != "" {
		mailbox = "/users/" + url.PathEscape(cfg.UserPrincipal)
	}

	return &Source{
		auth:     auth,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		mailbox:  mailbox,
		pageSize: cfg.PageSize,
		client:   cfg.HTTPClient,
		limiter:  connectors.NewRateLimiter(limit),
		backoff:  cfg.ThrottleBackoff,
	}
}

// Name identifies the source.
func (s *Source) Name() string {
	return string(domain.SourceGraph)
}

type messagePage struct {
	Value    []message `json:"value"`
	NextLink string    `json:"@odata.nextLink"`
}

type message struct {
	Subject          string `json:"subject"`
	ReceivedDateTime string `json:"receivedDateTime"`
	From             *struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	Body *struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchDay returns the messages received on day (UTC), oldest first,
// following @odata.nextLink until every page is read.
func (s *Source) FetchDay(ctx context.Context, day time.Time) ([]string, error) {
	ts, err := s.auth.TokenSource(ctx)
	if err != nil {
		return nil, connectors.Classify(err)
	}
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, s.client), ts)

	next := s.dayURL(day)
	var items []string
	for page := 1; next != ""; page++ {
		logger.Debug("graph: fetching page %d", page)
		result, err := s.getPage(ctx, client, next)
		if err != nil {
			return nil, connectors.Classify(err)
		}
		for _, m := range result.Value {
			items = append(items, m.toMailMessage().Flatten())
		}
		next = result.NextLink
	}

	logger.Debug("graph: %d messages on %s", len(items), day.Format("2006-01-02"))
	return items, nil
}

// dayURL builds the first page request for day.
func (s *Source) dayURL(day time.Time) string {
	date := day.UTC().Format("2006-01-02")
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("receivedDateTime ge %sT00:00:00Z and receivedDateTime le %sT23:59:59Z", date, date))
	q.Set("$select", "subject,body,from,receivedDateTime")
	q.Set("$orderby", "receivedDateTime asc")
	q.Set("$top", fmt.Sprint(s.pageSize))
	return s.baseURL + s.mailbox + "/messages?" + q.Encode()
}

// getPage fetches one page, waiting out throttling a bounded number of times.
func (s *Source) getPage(ctx context.Context, client *http.Client, pageURL string) (*messagePage, error) {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := s.doGet(ctx, client, pageURL)
		if err == nil {
			return page, nil
		}

		var statusErr *apierr.StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests ||
			attempt >= maxThrottleRetries {
			return nil, err
		}
		wait := statusErr.RetryAfter
		if wait <= 0 {
			wait = s.backoff
		}
		logger.Warn("graph: throttled, retrying after %s", wait)
		s.limiter.Backoff(wait)
	}
}

func (s *Source) doGet(ctx context.Context, client *http.Client, pageURL string) (*messagePage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", `outlook.body-content-type="text"`)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body errorBody
		msg := ""
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error.Message != "" {
			msg = body.Error.Code + ": " + body.Error.Message
		}
		return nil, apierr.FromResponse("graph", resp, msg)
	}

	var page messagePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return &page, nil
}

func (m message) toMailMessage() domain.MailMessage {
	out := domain.MailMessage{Subject: m.Subject}
	if m.From != nil {
		out.From = m.From.EmailAddress.Address
	}
	if t, err := time.Parse(time.RFC3339, m.ReceivedDateTime); err == nil {
		out.Received = t
	}
	if m.Body != nil {
		out.Body = m.Body.Content
		if strings.EqualFold(m.Body.ContentType, "html") || html.LooksLikeHTML(out.Body) {
			out.Body = html.ToText(out.Body)
		}
	}
	return out
}

// appOnly authorises with the client credentials grant.
type appOnly struct {
	cfg *clientcredentials.Config
}

func (a appOnly) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	return a.cfg.TokenSource(ctx), nil
}

// ClientCredentials returns an Authorizer for application permissions
// (Mail.Read granted to the app). Use it with Config.UserPrincipal, since
// an app has no /me mailbox.
func ClientCredentials(clientID, clientSecret, tenantID string) Authorizer {
	return appOnly{cfg: &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     microsoft.AzureADEndpoint(tenantID).TokenURL,
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}}
}
