package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// Authenticator signs in to one OAuth provider and caches its token.
type Authenticator interface {
	// Provider names the provider, for example "graph" or "gmail".
	Provider() string

	// TokenSource returns a token source, running the interactive flow
	// when no usable token is cached.
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)

	// Forget deletes the cached token.
	Forget() error
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to mail providers",
	Long: `Manage the OAuth tokens used to read mail.

Tokens are cached in ~/.mailqa/tokens and refreshed silently. Signing in is
only needed once per provider, or after the refresh token is revoked.

Microsoft Graph signs in with a device code: open the printed URL on any
device and enter the code. Gmail opens a browser on this machine.

Examples:
  mailqa auth login graph
  mailqa auth logout gmail`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [PROVIDER]",
	Short: "Sign in and cache a token",
	Long:  `Sign in to PROVIDER (graph or gmail). Defaults to the configured source.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [PROVIDER]",
	Short: "Delete a cached token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthLogout,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers that support sign-in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		names := authProviderNames()
		if len(names) == 0 {
			cmd.Println("No OAuth providers configured.")
			return nil
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authListCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	auth, err := selectAuthenticator(args)
	if err != nil {
		return err
	}

	ts, err := auth.TokenSource(cmd.Context())
	if err != nil {
		return err
	}
	// Force one token so a cached but revoked refresh token surfaces here.
	if _, err := ts.Token(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrAuthRequired, auth.Provider(), err)
	}
	cmd.Printf("Signed in to %s.\n", auth.Provider())
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	auth, err := selectAuthenticator(args)
	if err != nil {
		return err
	}
	if err := auth.Forget(); err != nil {
		return fmt.Errorf("forget %s token: %w", auth.Provider(), err)
	}
	cmd.Printf("Signed out of %s.\n", auth.Provider())
	return nil
}

// selectAuthenticator picks the named provider, or the configured source
// when no name is given.
func selectAuthenticator(args []string) (Authenticator, error) {
	if len(authenticators) == 0 {
		return nil, errors.New("no OAuth providers configured")
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			name = string(s.Source.Kind)
		}
	}

	auth, ok := authenticators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q does not use OAuth (choose from %s)",
			domain.ErrInvalidInput, name, strings.Join(authProviderNames(), ", "))
	}
	return auth, nil
}

func authProviderNames() []string {
	names := make([]string, 0, len(authenticators))
	for name := range authenticators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
