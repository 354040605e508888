package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/calgo/gcalendar/internal/gcalerr"
)

// Manager owns one Credential for its whole lifetime and guarantees that
// every service handle it hands out is backed by a non-stale token, both at
// creation and when the token expires mid-session. When a token store is
// configured, refreshed tokens are persisted after every successful refresh.
type Manager struct {
	cred   *Credential
	store  TokenStore
	logger *slog.Logger
}

// NewManager creates a Manager owning cred. store may be nil, in which case
// refreshed tokens are not persisted.
func NewManager(cred *Credential, store TokenStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cred: cred, store: store, logger: logger}
}

// Credential returns the managed credential.
func (m *Manager) Credential() *Credential { return m.cred }

// autoSaveTokenSource wraps a refreshing token source and writes every newly
// issued token back into the managed credential and its store, so handles
// created by the manager keep working across mid-session token expiry.
type autoSaveTokenSource struct {
	mgr       *Manager
	source    oauth2.TokenSource
	lastToken string
}

// Token implements oauth2.TokenSource and saves the token if it was
// refreshed. A failed save is logged, not fatal: the refreshed token stays
// usable for the current session.
func (a *autoSaveTokenSource) Token() (*oauth2.Token, error) {
	token, err := a.source.Token()
	if err != nil {
		return nil, &gcalerr.AuthError{Op: "refresh", Err: err}
	}

	if token.AccessToken != a.lastToken {
		a.lastToken = token.AccessToken
		cred := a.mgr.cred
		cred.Token = token.AccessToken
		cred.Expiry = token.Expiry
		if token.RefreshToken != "" {
			cred.RefreshToken = token.RefreshToken
		}
		a.mgr.logger.Info("credential refreshed", "account", cred.Account)
		if a.mgr.store != nil {
			if err := a.mgr.store.Save(cred); err != nil {
				a.mgr.logger.Error("token persistence failed", "error", err)
			}
		}
	}
	return token, nil
}

// tokenSource returns a refreshing, auto-saving token source over the
// managed credential.
func (m *Manager) tokenSource(ctx context.Context) oauth2.TokenSource {
	base := m.cred.oauthConfig().TokenSource(ctx, m.cred.oauthToken())
	return &autoSaveTokenSource{mgr: m, source: base, lastToken: m.cred.Token}
}

// ensureFresh refreshes the credential if it is stale and persists the
// result. A failed persistence write surfaces as a PersistenceError while
// the refreshed in-memory credential stays valid for the current call.
func (m *Manager) ensureFresh(ctx context.Context) error {
	if !m.cred.IsStale() {
		return nil
	}
	if !m.cred.CanRefresh() {
		return &gcalerr.AuthError{Op: "refresh", Err: errMissingRefreshMaterial}
	}

	m.logger.Info("refreshing stale credential", "account", m.cred.Account)
	if err := m.cred.Refresh(ctx); err != nil {
		return err
	}

	if m.store != nil {
		if err := m.store.Save(m.cred); err != nil {
			return err
		}
	}
	return nil
}

// HTTPClient returns an HTTP client backed by a non-stale credential,
// refreshing first when needed and transparently on later expiry. The client
// is usable with any Google API service constructor.
func (m *Manager) HTTPClient(ctx context.Context) (*http.Client, error) {
	if err := m.ensureFresh(ctx); err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, m.tokenSource(ctx)), nil
}

// GetService returns a calendar service handle backed by a non-stale
// credential. Only the "calendar" service at version "v3" is supported; the
// name/version pair is kept for interface parity, anything else is a
// ValidationError.
//
// When the refresh succeeded but the token write failed, GetService returns
// both a usable service and a PersistenceError so the caller learns about
// the failed side effect without losing the current call.
func (m *Manager) GetService(ctx context.Context, name, version string, opts ...option.ClientOption) (*calendar.Service, error) {
	if name != "calendar" || version != "v3" {
		return nil, &gcalerr.ValidationError{
			Field:  "service",
			Reason: fmt.Sprintf("unsupported service %s/%s, only calendar/v3 is available", name, version),
		}
	}

	freshErr := m.ensureFresh(ctx)
	if freshErr != nil {
		var pe *gcalerr.PersistenceError
		if !errors.As(freshErr, &pe) {
			return nil, freshErr
		}
		// Refresh succeeded, only the write failed; continue with the
		// in-memory credential and report the error alongside the handle.
		m.logger.Error("token persistence failed", "error", freshErr)
	}

	httpClient := oauth2.NewClient(ctx, m.tokenSource(ctx))
	allOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	svc, err := calendar.NewService(ctx, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, freshErr
}
