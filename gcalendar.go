// Package gcalendar is a client-side orchestration layer over the Google
// Calendar API: it manages OAuth credential acquisition, refresh, and
// persistence, and exposes typed operations to query, create, update, and
// conditionally replace calendar events.
package gcalendar

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/api/option"

	"github.com/calgo/gcalendar/internal/auth"
	calclient "github.com/calgo/gcalendar/internal/calendar"
	"github.com/calgo/gcalendar/internal/config"
	"github.com/calgo/gcalendar/internal/export"
	"github.com/calgo/gcalendar/internal/gcalerr"
	"github.com/calgo/gcalendar/internal/reconcile"
)

// Re-exported model types.
type (
	Event       = calclient.Event
	EventTime   = calclient.EventTime
	EventQuery  = calclient.EventQuery
	EventPage   = calclient.EventPage
	EventParams = calclient.EventParams
	Attendee    = calclient.Attendee
	Reminders   = calclient.Reminders
)

// Re-exported configuration types.
type (
	Config      = config.Config
	TokenParams = config.TokenParams
)

// Field helpers for EventParams.
var (
	String = calclient.String
	Timed  = calclient.Timed
	AllDay = calclient.AllDay
	Time   = calclient.Time
)

// LoadConfig loads configuration from an optional JSON file overlaid with
// environment variables.
func LoadConfig(configFile string) (*Config, error) {
	return config.Load(configFile)
}

// Client is the top-level handle: one calendar, one exclusively owned
// credential.
type Client struct {
	manager    *auth.Manager
	gateway    *calclient.Gateway
	reconciler *reconcile.Reconciler
	calendarID string
	timeZone   string
	logger     *slog.Logger
}

type clientOptions struct {
	logger     *slog.Logger
	serviceOpt []option.ClientOption
}

// Option configures a Client.
type Option func(*clientOptions)

// WithLogger sets the logger used by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithServiceOptions appends extra options to the underlying service
// constructor, such as an alternate endpoint.
func WithServiceOptions(opts ...option.ClientOption) Option {
	return func(o *clientOptions) { o.serviceOpt = append(o.serviceOpt, opts...) }
}

// New builds a Client from the given configuration. The credential is
// bootstrapped from the first configured source, in order: explicit token
// params, a persisted token file, or an interactive flow against a client
// secrets file. When a token path is configured, refreshed tokens are
// persisted there.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	cred, err := bootstrapCredential(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var store auth.TokenStore
	if cfg.TokenPath != "" {
		store = auth.NewFileTokenStore(cfg.TokenPath)
	}
	manager := auth.NewManager(cred, store, o.logger)

	svc, err := manager.GetService(ctx, "calendar", "v3", o.serviceOpt...)
	if err != nil {
		var pe *gcalerr.PersistenceError
		if svc == nil || !errors.As(err, &pe) {
			return nil, err
		}
		// The refreshed credential is valid for this session; the failed
		// token write was already logged by the manager.
	}

	gateway := calclient.NewGateway(svc, o.logger)
	return &Client{
		manager:    manager,
		gateway:    gateway,
		reconciler: reconcile.New(gateway, cfg.CalendarID, cfg.TimeZone, o.logger),
		calendarID: cfg.CalendarID,
		timeZone:   cfg.TimeZone,
		logger:     o.logger,
	}, nil
}

func bootstrapCredential(ctx context.Context, cfg *Config) (*auth.Credential, error) {
	switch {
	case cfg.TokenParams != nil:
		tp := cfg.TokenParams
		return auth.FromTokenParams(tp.Token, tp.RefreshToken, tp.TokenURI, tp.ClientID, tp.ClientSecret, cfg.Scopes), nil
	case cfg.TokenPath != "":
		return auth.FromAuthorizedUserFile(cfg.TokenPath, cfg.Scopes)
	case cfg.ClientSecretsPath != "":
		return auth.FromClientSecretsFile(ctx, cfg.ClientSecretsPath, cfg.Scopes, cfg.CallbackPort)
	default:
		return nil, &gcalerr.ValidationError{Field: "config", Reason: "no credential source configured"}
	}
}

// CalendarID returns the calendar this client operates on.
func (c *Client) CalendarID() string { return c.calendarID }

// GetEvent retrieves a single event by id.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	return c.gateway.GetEvent(ctx, c.calendarID, eventID)
}

// ListEvents returns exactly one page of events matching the query. The
// configured time zone is applied when the query carries none.
func (c *Client) ListEvents(ctx context.Context, q EventQuery) (*EventPage, error) {
	if q.TimeZone == "" {
		q.TimeZone = c.timeZone
	}
	return c.gateway.ListEvents(ctx, c.calendarID, q)
}

// Events collects all pages matching the query by feeding each returned
// next-page token back until the final page.
func (c *Client) Events(ctx context.Context, q EventQuery) ([]Event, error) {
	var all []Event
	for {
		page, err := c.ListEvents(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		q.PageToken = page.NextPageToken
	}
}

// AddEvent inserts the candidate event or, when replace is set, overwrites a
// soft-matched duplicate found within the candidate's time window.
func (c *Client) AddEvent(ctx context.Context, p EventParams, replace bool) (*Event, error) {
	return c.reconciler.AddEvent(ctx, p, replace)
}

// ReplaceEvent overwrites the event with the given id, applying the caller's
// overrides on top of its current fields.
func (c *Client) ReplaceEvent(ctx context.Context, eventID string, p EventParams) (*Event, error) {
	return c.gateway.UpdateEvent(ctx, c.calendarID, eventID, p)
}

// UpdateEvent performs a full-replace update of the event.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, p EventParams) (*Event, error) {
	return c.gateway.UpdateEvent(ctx, c.calendarID, eventID, p)
}

// PatchEvent performs a partial update of the event.
func (c *Client) PatchEvent(ctx context.Context, eventID string, p EventParams) (*Event, error) {
	return c.gateway.PatchEvent(ctx, c.calendarID, eventID, p)
}

// DeleteEvent deletes an event. Returns false without error when the event
// is already absent.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) (bool, error) {
	return c.gateway.DeleteEvent(ctx, c.calendarID, eventID)
}

// MoveEvent reschedules an event, patching only start, end, and time zone.
func (c *Client) MoveEvent(ctx context.Context, eventID string, newStart, newEnd EventTime, timeZone string) (*Event, error) {
	if timeZone == "" {
		timeZone = c.timeZone
	}
	return c.gateway.MoveEvent(ctx, c.calendarID, eventID, newStart, newEnd, timeZone)
}

// ExportICal renders the given events as iCalendar data.
func (c *Client) ExportICal(name string, events []Event) ([]byte, error) {
	return export.Encode(name, events)
}
