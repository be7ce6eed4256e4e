package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in ~/.mailqa/config.toml.

Environment variables (also read from a .env file in the working directory)
take precedence over the file: OPENAI_API_KEY, ANTHROPIC_API_KEY, CLIENT_ID,
TENANT_ID, CLIENT_SECRET, USER_PRINCIPAL_NAME, GOOGLE_CLIENT_ID and
GOOGLE_CLIENT_SECRET.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a setting",
	Long: `Set a single setting by its dotted key, for example:

  mailqa settings set llm.provider anthropic
  mailqa settings set retrieval.top_k 5
  mailqa settings set source.maildir_path ~/Mail/export

Run 'mailqa settings keys' for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetSecretCmd = &cobra.Command{
	Use:   "set-secret KEY",
	Short: "Set a credential without echoing it",
	Long: `Prompts for the value of KEY and stores it without echoing it to the
terminal. When stdin is not a terminal the value is read from its first line.

  mailqa settings set-secret llm.api_key`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSetSecret,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the AI providers answer",
	Long: `Contacts the configured embedding and LLM providers and reports whether
each one is reachable with the current settings.`,
	Args: cobra.NoArgs,
	RunE: runSettingsCheck,
}

// secretReader reads a secret from the user. Replaced in tests.
var secretReader = readPassword

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetSecretCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	printProvider(cmd, "Embedding", settings.Embedding)
	printProvider(cmd, "LLM", settings.LLM)

	cmd.Println("[Index]")
	cmd.Printf("  Batch size: %d\n", settings.Index.BatchSize)
	cmd.Printf("  Embed workers: %d\n", settings.Index.Workers)
	if settings.Index.ChunkSize > 0 {
		cmd.Printf("  Chunking: %d chars, %d overlap\n", settings.Index.ChunkSize, settings.Index.ChunkOverlap)
	} else {
		cmd.Println("  Chunking: off (one unit per message)")
	}
	cmd.Printf("  Persist: %s\n", yesNo(settings.Index.Persist))
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Min score: %.2f\n", settings.Retrieval.MinScore)
	cmd.Printf("  Max context tokens: %d\n", settings.Retrieval.MaxContextTokens)
	cmd.Println()

	cmd.Println("[Generation]")
	cmd.Printf("  Max tokens: %d\n", settings.Generation.MaxTokens)
	cmd.Printf("  Timeout: %s\n", settings.Generation.Timeout)
	cmd.Println()

	cmd.Println("[Source]")
	cmd.Printf("  Kind: %s\n", settings.Source.Kind)
	switch settings.Source.Kind {
	case domain.SourceMaildir:
		cmd.Printf("  Path: %s\n", valueOrUnset(settings.Source.MaildirPath))
	case domain.SourceGmail:
		cmd.Printf("  Client ID: %s\n", valueOrUnset(settings.Source.Gmail.ClientID))
		cmd.Printf("  Client secret: %s\n", maskOrUnset(settings.Source.Gmail.ClientSecret))
	default:
		cmd.Printf("  Client ID: %s\n", valueOrUnset(settings.Source.Graph.ClientID))
		cmd.Printf("  Tenant: %s\n", valueOrUnset(settings.Source.Graph.TenantID))
		if settings.Source.Graph.ClientSecret != "" {
			cmd.Printf("  Client secret: %s\n", maskAPIKey(settings.Source.Graph.ClientSecret))
			cmd.Printf("  Mailbox: %s\n", valueOrUnset(settings.Source.Graph.UserPrincipal))
		}
	}
	return nil
}

func printProvider(cmd *cobra.Command, title string, p domain.ProviderSettings) {
	cmd.Printf("[%s]\n", title)
	cmd.Printf("  Provider: %s\n", p.Provider.Description())
	cmd.Printf("  Model: %s\n", p.Model)
	if p.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", p.BaseURL)
	}
	if p.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskOrUnset(p.APIKey))
	}
	status := "configured"
	if !p.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s updated.\n", args[0])
	return nil
}

func runSettingsSetSecret(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Printf("Enter value for %s: ", args[0])
	value := strings.TrimSpace(secretReader(cmd.InOrStdin()))
	cmd.Println()
	if value == "" {
		return fmt.Errorf("%w: empty value", domain.ErrInvalidInput)
	}

	if err := settingsService.Set(args[0], value); err != nil {
		return err
	}
	cmd.Printf("%s updated.\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	checks, err := settingsService.Check(cmd.Context())
	if err != nil {
		return err
	}

	failed := 0
	for _, c := range checks {
		if c.OK() {
			cmd.Printf("%-9s %s (%s): ok\n", c.Role, c.Provider, c.Model)
			continue
		}
		failed++
		cmd.Printf("%-9s %s (%s): %v\n", c.Role, c.Provider, c.Model, c.Err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d providers failed", failed, len(checks))
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func maskOrUnset(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return maskAPIKey(secret)
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
