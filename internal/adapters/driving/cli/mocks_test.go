package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// mockQAService implements driving.QAService for testing.
type mockQAService struct {
	record   *domain.AnswerRecord
	err      error
	handle   *vectorindex.Handle
	question string
	k        int
}

func (m *mockQAService) Answer(ctx context.Context, h *vectorindex.Handle, question string) (*domain.AnswerRecord, error) {
	return m.AnswerWithK(ctx, h, question, 0)
}

func (m *mockQAService) AnswerWithK(
	_ context.Context, h *vectorindex.Handle, question string, k int,
) (*domain.AnswerRecord, error) {
	m.handle = h
	m.question = question
	m.k = k
	return m.record, m.err
}

// mockSessionService implements driving.SessionService for testing.
type mockSessionService struct {
	handle   *vectorindex.Handle
	sessions []domain.SessionInfo
	err      error
	opened   string
	dropped  string
}

func (m *mockSessionService) Open(_ context.Context, session string) (*vectorindex.Handle, error) {
	m.opened = session
	return m.handle, m.err
}

func (m *mockSessionService) List(_ context.Context) ([]domain.SessionInfo, error) {
	return m.sessions, m.err
}

func (m *mockSessionService) Drop(_ context.Context, session string) error {
	m.dropped = session
	return m.err
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	mu      sync.Mutex
	source  string
	report  domain.IngestReport
	err     error
	session string
	day     time.Time
	items   []string
}

func (m *mockIngestService) IngestDay(
	_ context.Context, session string, day time.Time,
) (*vectorindex.Handle, domain.IngestReport, error) {
	m.session = session
	m.day = day
	report := m.report
	report.Session = session
	return nil, report, m.err
}

func (m *mockIngestService) IngestItems(
	_ context.Context, session string, items []string,
) (*vectorindex.Handle, domain.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session
	m.items = items
	report := m.report
	report.Session = session
	report.Fetched = len(items)
	report.Units = len(items)
	return nil, report, m.err
}

func (m *mockIngestService) itemsSnapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items
}

func (m *mockIngestService) SourceName() string {
	return m.source
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.AppSettings
	set      map[string]string
	err      error
	checks   []domain.ProviderCheck
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.provider", "llm.api_key"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) Check(_ context.Context) ([]domain.ProviderCheck, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.checks, nil
}

// mockAuthenticator implements Authenticator for testing.
type mockAuthenticator struct {
	provider  string
	tokenErr  error
	sourceErr error
	forgotten bool
}

func (m *mockAuthenticator) Provider() string {
	return m.provider
}

func (m *mockAuthenticator) TokenSource(_ context.Context) (oauth2.TokenSource, error) {
	if m.sourceErr != nil {
		return nil, m.sourceErr
	}
	if m.tokenErr != nil {
		return failingTokenSource{err: m.tokenErr}, nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"}), nil
}

func (m *mockAuthenticator) Forget() error {
	m.forgotten = true
	return nil
}

type failingTokenSource struct {
	err error
}

func (f failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, f.err
}

// services bundles the package-level services a test installs.
type services struct {
	qa       driving.QAService
	sessions driving.SessionService
	settings driving.SettingsService
	ingest   map[domain.SourceKind]driving.IngestService
	auths    []Authenticator
	setupErr error
}

// install sets the package services and restores the previous ones when the
// test ends.
func install(t *testing.T, s services) {
	t.Helper()

	prevQA, prevSessions, prevSettings := qaService, sessionService, settingsService
	prevResolver, prevAuths, prevSetupErr := ingestResolver, authenticators, setupErr
	t.Cleanup(func() {
		qaService, sessionService, settingsService = prevQA, prevSessions, prevSettings
		ingestResolver, authenticators, setupErr = prevResolver, prevAuths, prevSetupErr
	})

	qaService = s.qa
	sessionService = s.sessions
	settingsService = s.settings
	SetSetupError(s.setupErr)
	SetAuthenticators(s.auths...)
	ingestResolver = nil
	if s.ingest != nil {
		ingestResolver = func(kind domain.SourceKind) (driving.IngestService, error) {
			if kind == "" {
				kind = domain.SourceMaildir
			}
			svc, ok := s.ingest[kind]
			if !ok {
				return nil, errors.New("source not configured")
			}
			return svc, nil
		}
	}
}

// resetFlags restores every command flag variable to its default. Cobra
// keeps parsed values between executions of the same command tree.
func resetFlags() {
	verbose = false
	ingestDate, ingestSource, ingestSession = "", "", domain.DefaultSession
	askSession, askK, askOutput, askShowSources, askDate, askSource = domain.DefaultSession, 0, outputText, false, "", ""
	watchSession, watchDebounce = domain.DefaultSession, DefaultDebounce
	mcpHTTPAddr = ""
	tuiSession = ""
	resetContexts(rootCmd)
}

// resetContexts clears contexts left on subcommands by earlier runs.
// ExecuteContext only sets the context of a command that has none.
func resetContexts(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		c.SetContext(nil) //nolint:staticcheck // nil lets ExecuteContext set it again
		resetContexts(c)
	}
}

// captureOutput redirects the command output to a buffer for the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})
	return buf
}

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := captureOutput(t)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
