package oauth

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/mailqa/internal/logger"
)

// BrowserFlow returns an interactive sign-in that opens the provider's
// consent page and receives the code on a loopback callback server.
// The code exchange is protected with PKCE (S256). The URL is also written
// to out for machines without a browser opener.
func BrowserFlow(out io.Writer) func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	return browserFlow(out, OpenBrowser)
}

func browserFlow(out io.Writer, open func(string) error) func(context.Context, *oauth2.Config) (*oauth2.Token, error) {
	return func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
		state, err := GenerateState()
		if err != nil {
			return nil, err
		}

		srv := NewCallbackServer(0, state)
		if err := srv.Start(); err != nil {
			return nil, err
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				logger.Debug("oauth: stop callback server: %v", err)
			}
		}()

		c := *cfg
		c.RedirectURL = srv.RedirectURI()
		verifier := oauth2.GenerateVerifier()
		authURL := c.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

		fmt.Fprintf(out, "Opening browser to sign in. If it does not open, visit:\n%s\n", authURL)
		if err := open(authURL); err != nil {
			logger.Debug("oauth: open browser: %v", err)
		}

		code, err := srv.WaitForCode(ctx)
		if err != nil {
			return nil, err
		}

		tok, err := c.Exchange(ctx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("exchange authorisation code: %w", err)
		}
		return tok, nil
	}
}

// OpenBrowser opens url in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
