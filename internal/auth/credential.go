// Package auth owns OAuth credential material and its lifecycle: loading,
// staleness checks, refresh, persistence, and producing authenticated
// service handles.
package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"

	"github.com/calgo/gcalendar/internal/gcalerr"
)

// DefaultTokenURI is Google's OAuth 2.0 token endpoint.
const DefaultTokenURI = "https://oauth2.googleapis.com/token"

var errMissingRefreshMaterial = errors.New("credential has no refresh token or client id")

// DefaultUniverseDomain is the default Google API universe.
const DefaultUniverseDomain = "googleapis.com"

// Credential holds OAuth token material for a single authorized user.
// A Credential is owned by exactly one Manager; it is never shared at
// package scope.
type Credential struct {
	Token          string
	RefreshToken   string
	TokenURI       string
	ClientID       string
	ClientSecret   string
	Scopes         []string
	UniverseDomain string
	Account        string

	// Expiry is the access token expiry. The zero value means the expiry
	// is unknown, in which case the token is assumed fresh.
	Expiry time.Time
}

// FromTokenParams builds a Credential from explicit token fields without any
// network call.
func FromTokenParams(token, refreshToken, tokenURI, clientID, clientSecret string, scopes []string) *Credential {
	if tokenURI == "" {
		tokenURI = DefaultTokenURI
	}
	return &Credential{
		Token:          token,
		RefreshToken:   refreshToken,
		TokenURI:       tokenURI,
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		Scopes:         scopes,
		UniverseDomain: DefaultUniverseDomain,
	}
}

// FromAuthorizedUserFile loads a Credential from a persisted token file.
// Returns a NotFoundError if the file does not exist.
func FromAuthorizedUserFile(path string, scopes []string) (*Credential, error) {
	cred, err := NewFileTokenStore(path).Load()
	if err != nil {
		return nil, err
	}
	if len(scopes) > 0 {
		cred.Scopes = scopes
	}
	return cred, nil
}

// IsStale reports whether the access token needs a refresh before use: the
// expiry is known and has passed. A credential with no known expiry is
// treated as fresh.
func (c *Credential) IsStale() bool {
	return !c.Expiry.IsZero() && !time.Now().Before(c.Expiry)
}

// CanRefresh reports whether the credential carries enough material for a
// refresh round-trip.
func (c *Credential) CanRefresh() bool {
	return c.RefreshToken != "" && c.ClientID != "" && c.TokenURI != ""
}

// Refresh performs one round-trip to the OAuth provider's token endpoint and
// replaces the access token and expiry in place. It is not retried; a
// rejected or unreachable endpoint surfaces as an AuthError.
func (c *Credential) Refresh(ctx context.Context) error {
	if !c.CanRefresh() {
		return &gcalerr.AuthError{Op: "refresh", Err: errMissingRefreshMaterial}
	}

	src := c.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return &gcalerr.AuthError{Op: "refresh", Err: err}
	}

	c.Token = tok.AccessToken
	c.Expiry = tok.Expiry
	// The provider may rotate the refresh token.
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
	return nil
}

// oauthToken converts the credential into an oauth2.Token for use with a
// token source.
func (c *Credential) oauthToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.Token,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
		TokenType:    "Bearer",
	}
}

func (c *Credential) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: c.TokenURI,
		},
	}
}
