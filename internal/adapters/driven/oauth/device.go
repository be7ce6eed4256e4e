package oauth

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

// DeviceFlow returns a Flow running the OAuth2 device authorisation grant
// (RFC 8628). The verification URL and user code are written to out and
// the flow polls until the user approves, the code expires or ctx ends.
func DeviceFlow(out io.Writer) Flow {
	return func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
		if cfg.Endpoint.DeviceAuthURL == "" {
			return nil, fmt.Errorf("device flow not supported by %s", cfg.Endpoint.AuthURL)
		}

		resp, err := cfg.DeviceAuth(ctx)
		if err != nil {
			return nil, fmt.Errorf("request device code: %w", err)
		}

		if resp.VerificationURIComplete != "" {
			fmt.Fprintf(out, "To sign in, open %s\n", resp.VerificationURIComplete)
		} else {
			fmt.Fprintf(out, "To sign in, open %s and enter the code %s\n", resp.VerificationURI, resp.UserCode)
		}

		tok, err := cfg.DeviceAccessToken(ctx, resp)
		if err != nil {
			return nil, fmt.Errorf("wait for device approval: %w", err)
		}
		return tok, nil
	}
}
