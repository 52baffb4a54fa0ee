package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/jobtrack-app/jobtrack/internal/mailsync"
)

// TokenClient exchanges a stored refresh token for a fresh access token at
// the provider's OAuth endpoint. The refreshed credential is returned to the
// caller; nothing is mutated in place.
type TokenClient struct {
	cfg *oauth2.Config
}

// NewGoogleTokenClient builds a refresh client for Google mailboxes.
func NewGoogleTokenClient(clientID, clientSecret string) *TokenClient {
	return &TokenClient{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
	}}
}

// NewMicrosoftTokenClient builds a refresh client for Outlook mailboxes.
func NewMicrosoftTokenClient(clientID, clientSecret string) *TokenClient {
	return &TokenClient{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     microsoft.AzureADEndpoint("common"),
	}}
}

// Refresh performs the refresh_token grant and returns the new access token
// with its expiry.
func (c *TokenClient) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	src := c.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("refresh token grant: %w", err)
	}
	return tok.AccessToken, tok.Expiry, nil
}

var _ mailsync.TokenRefresher = (*TokenClient)(nil)
