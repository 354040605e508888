package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/calgo/gcalendar/internal/gcalerr"
)

// TokenStore saves and loads credential material.
type TokenStore interface {
	Save(cred *Credential) error
	Load() (*Credential, error)
}

// authorizedUserFile is the on-disk shape of a persisted token, matching the
// Google authorized-user file format.
type authorizedUserFile struct {
	Token          string   `json:"token"`
	RefreshToken   string   `json:"refresh_token"`
	TokenURI       string   `json:"token_uri"`
	ClientID       string   `json:"client_id"`
	ClientSecret   string   `json:"client_secret"`
	Scopes         []string `json:"scopes"`
	UniverseDomain string   `json:"universe_domain,omitempty"`
	Account        string   `json:"account,omitempty"`
	Expiry         string   `json:"expiry,omitempty"`
}

// FileTokenStore is a file-based TokenStore.
type FileTokenStore struct {
	Path string
}

// NewFileTokenStore creates a FileTokenStore for the given path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

// Save writes the credential to store.Path. A write failure surfaces as a
// PersistenceError.
func (store *FileTokenStore) Save(cred *Credential) error {
	out := authorizedUserFile{
		Token:          cred.Token,
		RefreshToken:   cred.RefreshToken,
		TokenURI:       cred.TokenURI,
		ClientID:       cred.ClientID,
		ClientSecret:   cred.ClientSecret,
		Scopes:         cred.Scopes,
		UniverseDomain: cred.UniverseDomain,
		Account:        cred.Account,
	}
	if !cred.Expiry.IsZero() {
		out.Expiry = cred.Expiry.UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return &gcalerr.PersistenceError{Path: store.Path, Err: err}
	}
	if err := os.WriteFile(store.Path, data, 0600); err != nil {
		return &gcalerr.PersistenceError{Path: store.Path, Err: err}
	}
	return nil
}

// Load reads a credential from store.Path. A missing file surfaces as a
// NotFoundError.
func (store *FileTokenStore) Load() (*Credential, error) {
	data, err := os.ReadFile(store.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &gcalerr.NotFoundError{Resource: "token file " + store.Path, Err: err}
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var in authorizedUserFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", store.Path, err)
	}

	cred := &Credential{
		Token:          in.Token,
		RefreshToken:   in.RefreshToken,
		TokenURI:       in.TokenURI,
		ClientID:       in.ClientID,
		ClientSecret:   in.ClientSecret,
		Scopes:         in.Scopes,
		UniverseDomain: in.UniverseDomain,
		Account:        in.Account,
	}
	if cred.TokenURI == "" {
		cred.TokenURI = DefaultTokenURI
	}
	if cred.UniverseDomain == "" {
		cred.UniverseDomain = DefaultUniverseDomain
	}
	if in.Expiry != "" {
		expiry, err := time.Parse(time.RFC3339, in.Expiry)
		if err != nil {
			return nil, fmt.Errorf("failed to parse token expiry %q: %w", in.Expiry, err)
		}
		cred.Expiry = expiry
	}
	return cred, nil
}
