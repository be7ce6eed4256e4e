package oauth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// Token cache names.
const (
	ProviderGraph = "graph"
	ProviderGmail = "gmail"
)

// Delegated scopes requested from each provider.
var (
	GraphScopes = []string{"offline_access", "https://graph.microsoft.com/Mail.Read"}
	GmailScopes = []string{"https://www.googleapis.com/auth/gmail.readonly"}
)

// GraphConfig returns the delegated Microsoft identity platform config for
// reading the signed-in user's mail. An empty tenant uses "common".
func GraphConfig(clientID, tenantID string) *oauth2.Config {
	if tenantID == "" {
		tenantID = "common"
	}
	return &oauth2.Config{
		ClientID: clientID,
		Endpoint: microsoft.AzureADEndpoint(tenantID),
		Scopes:   GraphScopes,
	}
}

// GmailConfig returns the Google config for read-only Gmail access.
// Google installed-app clients carry a secret that is not confidential.
func GmailConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       GmailScopes,
	}
}
