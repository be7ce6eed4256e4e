// Command mailqa answers questions about one day of email at a time.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/mailqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/mailqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/mailqa/internal/adapters/driven/embedding/retry"
	"github.com/custodia-labs/mailqa/internal/adapters/driven/oauth"
	"github.com/custodia-labs/mailqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mailqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/mailqa/internal/adapters/driving/cli"
	browserauth "github.com/custodia-labs/mailqa/internal/adapters/driving/oauth"
	"github.com/custodia-labs/mailqa/internal/connectors/gmail"
	"github.com/custodia-labs/mailqa/internal/connectors/graph"
	"github.com/custodia-labs/mailqa/internal/connectors/maildir"
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
	"github.com/custodia-labs/mailqa/internal/core/services"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
	"github.com/custodia-labs/mailqa/internal/logger"
	"github.com/custodia-labs/mailqa/internal/postprocessors/chunker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// embedRate bounds embedding requests per second to hosted providers.
const embedRate = 8

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	cli.SetVersion(version)
	if err := cli.Execute(ctx); err != nil {
		cleanup()
		os.Exit(1)
	}
}

// wire builds the services and hands them to the CLI. Only failures that
// leave even the settings commands unusable are returned; AI setup errors
// are recorded with cli.SetSetupError instead.
func wire() (func(), error) {
	home, err := file.HomeDir()
	if err != nil {
		return nil, err
	}

	var configStore driven.ConfigStore
	configStore, err = file.NewConfigStore(home)
	if err != nil {
		logger.Warn("config unavailable, using defaults and environment for this run "+
			"(settings changes will not be saved): %v", err)
		configStore = memory.NewConfigStore()
	}
	settingsService := services.NewSettingsService(configStore).WithValidator(ai.NewConfigValidator())
	cli.SetSettingsService(settingsService)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	tokens, err := file.NewTokenStore("")
	if err != nil {
		return nil, err
	}
	graphAuth := oauth.NewAuthenticator(oauth.ProviderGraph,
		oauth.GraphConfig(settings.Source.Graph.ClientID, settings.Source.Graph.TenantID),
		tokens, oauth.WithFlow(oauth.DeviceFlow(os.Stderr)))
	gmailAuth := oauth.NewAuthenticator(oauth.ProviderGmail,
		oauth.GmailConfig(settings.Source.Gmail.ClientID, settings.Source.Gmail.ClientSecret),
		tokens, oauth.WithFlow(browserauth.BrowserFlow(os.Stderr)))
	cli.SetAuthenticators(graphAuth, gmailAuth)

	ais, err := ai.NewServices(settings, retry.WithRateLimit(embedRate, embedRate))
	if err != nil {
		cli.SetSetupError(err)
		return func() {}, nil
	}

	store, err := openIndexStore(home, settings.Index.Persist)
	if err != nil {
		ais.Close()
		return nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close index store: %v", err)
		}
		ais.Close()
	}

	index := vectorindex.New(ais.Embedding,
		vectorindex.WithStore(store),
		vectorindex.WithBatchSize(settings.Index.BatchSize),
		vectorindex.WithWorkers(settings.Index.Workers),
	)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		cleanup()
		return nil, err
	}
	generator := services.NewGenerator(ais.LLM, settings.Generation.MaxTokens)
	generator.SetPromptStore(prompts)

	qa := services.NewQAService(
		services.NewRetriever(ais.Embedding, settings.Retrieval.TopK, settings.Retrieval.MinScore),
		services.NewAssembler(settings.Retrieval.MaxContextTokens),
		generator,
		settings.Generation.Timeout,
	)
	cli.SetQAService(qa)
	cli.SetSessionService(services.NewSessionService(index))

	var splitter services.Splitter
	if settings.Index.ChunkSize > 0 {
		splitter = chunker.New(
			chunker.WithChunkSize(settings.Index.ChunkSize),
			chunker.WithOverlap(settings.Index.ChunkOverlap),
		)
	}

	sources := &sourceFactory{
		settings:  settings,
		graphAuth: graphAuth,
		gmailAuth: gmailAuth,
	}
	cli.SetIngestResolver(func(kind domain.SourceKind) (driving.IngestService, error) {
		if kind == "" {
			kind = settings.Source.Kind
		}
		src, err := sources.source(kind)
		if err != nil {
			return nil, err
		}
		opts := []services.NormalizerOption{services.WithSourceName(src.Name())}
		if splitter != nil {
			opts = append(opts, services.WithSplitter(splitter))
		}
		return services.NewIngestService(src, services.NewNormalizer(opts...), index), nil
	})

	return cleanup, nil
}

func openIndexStore(home string, persist bool) (driven.IndexStore, error) {
	if !persist {
		return memory.NewIndexStore(), nil
	}
	store, err := sqlite.NewStore(home)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	return store, nil
}

// sourceFactory builds message sources from the settings. Credentials are
// only needed once a source fetches, so building never signs in.
type sourceFactory struct {
	settings  *domain.AppSettings
	graphAuth graph.Authorizer
	gmailAuth gmail.Authorizer
}

func (f *sourceFactory) source(kind domain.SourceKind) (driven.MessageSource, error) {
	switch kind {
	case domain.SourceGraph:
		g := f.settings.Source.Graph
		auth := f.graphAuth
		if g.ClientSecret != "" {
			auth = graph.ClientCredentials(g.ClientID, g.ClientSecret, g.TenantID)
		}
		return graph.New(auth, graph.Config{UserPrincipal: g.UserPrincipal}), nil
	case domain.SourceGmail:
		return gmail.New(f.gmailAuth, gmail.Config{}), nil
	case domain.SourceMaildir:
		if f.settings.Source.MaildirPath == "" {
			return nil, fmt.Errorf("%w: source.maildir_path is not set", domain.ErrInvalidInput)
		}
		return maildir.New(f.settings.Source.MaildirPath), nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidInput, kind)
	}
}
