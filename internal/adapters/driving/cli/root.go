// Package cli provides the cobra command tree for mailqa.
// Services are injected by main through the Set* functions before Execute.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
	"github.com/custodia-labs/mailqa/internal/logger"
)

// IngestResolver returns the ingest service bound to a message source.
// An empty kind selects the configured default source.
type IngestResolver func(kind domain.SourceKind) (driving.IngestService, error)

var (
	version = "dev"
	verbose bool

	ingestResolver  IngestResolver
	qaService       driving.QAService
	sessionService  driving.SessionService
	settingsService driving.SettingsService
	authenticators  = map[string]Authenticator{}

	// setupErr records why main could not build the AI services, so that
	// commands which need them can report it while settings still work.
	setupErr error
)

var rootCmd = &cobra.Command{
	Use:   "mailqa",
	Short: "Ask questions about your email",
	Long: `mailqa indexes one day of email at a time and answers questions about it.

Messages are fetched from Microsoft Graph, Gmail or a local directory of .eml
files, embedded into a per-session vector index and used as the only context
for a language model. Answers cite the messages they were drawn from.

Examples:
  mailqa ingest --date 2024-05-02
  mailqa ask "When is the budget review?"
  mailqa tui`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace the retrieval pipeline on stderr")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetIngestResolver sets how ingest services are obtained per source.
func SetIngestResolver(r IngestResolver) {
	ingestResolver = r
}

// SetQAService sets the question-answering service.
func SetQAService(s driving.QAService) {
	qaService = s
}

// SetSessionService sets the session service.
func SetSessionService(s driving.SessionService) {
	sessionService = s
}

// SetSettingsService sets the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetSetupError records a failure to build the question-answering
// services. Commands that need them return it.
func SetSetupError(err error) {
	setupErr = err
}

// SetAuthenticators registers the OAuth authenticators by provider name.
func SetAuthenticators(auths ...Authenticator) {
	authenticators = make(map[string]Authenticator, len(auths))
	for _, a := range auths {
		authenticators[a.Provider()] = a
	}
}

// Execute runs the root command. Errors are printed to stderr as a single
// line and returned so main can exit non-zero.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		rootCmd.PrintErrln("Error: " + describeError(err))
	}
	return err
}

// describeError renders err with a hint for the failures a user can act on.
func describeError(err error) string {
	var hint string
	switch {
	case errors.Is(err, domain.ErrEmptyIndex):
		hint = "run 'mailqa ingest --date YYYY-MM-DD' first"
	case errors.Is(err, domain.ErrAuthRequired):
		hint = "run 'mailqa auth login' to sign in"
	case errors.Is(err, domain.ErrRateLimited):
		hint = "the mail provider is throttling requests, try again shortly"
	case errors.Is(err, domain.ErrTimeout):
		hint = "raise generation.timeout or try a smaller -k"
	case errors.Is(err, domain.ErrEmbeddingProvider):
		hint = "check the embedding.* settings"
	case errors.Is(err, domain.ErrGenerationService):
		hint = "check the llm.* settings"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	}
	if hint == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v (%s)", err, hint)
}

// parseDay parses an ISO 8601 calendar date as a UTC day.
func parseDay(s string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return day, nil
}

// requireQA reports why question answering is unavailable, if it is.
func requireQA() error {
	if setupErr != nil {
		return setupErr
	}
	if qaService == nil || sessionService == nil {
		return errors.New("question answering not configured")
	}
	return nil
}

func resolveIngest(kind string) (driving.IngestService, error) {
	if ingestResolver == nil {
		return nil, errors.New("ingest service not configured")
	}
	k := domain.SourceKind(kind)
	if kind != "" && !k.IsValid() {
		return nil, fmt.Errorf("%w: unknown source %q (want graph, gmail or maildir)", domain.ErrInvalidInput, kind)
	}
	return ingestResolver(k)
}
