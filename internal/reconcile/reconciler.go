// Package reconcile implements add-or-replace semantics on top of the event
// store: insert a candidate event, or overwrite an existing soft-matched
// duplicate found by time window and summary text.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	calclient "github.com/calgo/gcalendar/internal/calendar"
	"github.com/calgo/gcalendar/internal/gcalerr"
)

// searchPageSize keeps duplicate-search pages small; paging continues only
// until the first match.
const searchPageSize = 10

// EventStore is the subset of gateway operations the reconciler needs.
type EventStore interface {
	ListEvents(ctx context.Context, calendarID string, q calclient.EventQuery) (*calclient.EventPage, error)
	InsertEvent(ctx context.Context, calendarID string, p calclient.EventParams) (*calclient.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, p calclient.EventParams) (*calclient.Event, error)
}

// Reconciler runs the add-or-replace workflow against one calendar.
//
// The workflow is an upsert keyed on a soft match (time window plus summary
// text), not a stable identity key. Within one invocation the search step
// strictly precedes the insert or update, but there is no server-side
// locking: concurrent callers on the same window can both insert. Callers
// needing strict identity should update by event id directly.
type Reconciler struct {
	store      EventStore
	calendarID string
	timeZone   string
	logger     *slog.Logger
}

// New creates a Reconciler for the given calendar. timeZone is applied to
// inserts and searches when the candidate carries none.
func New(store EventStore, calendarID, timeZone string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:      store,
		calendarID: calendarID,
		timeZone:   timeZone,
		logger:     logger,
	}
}

// AddEvent inserts the candidate event, or, when replace is set, first
// searches the candidate's time window for an event with matching summary
// and overwrites the first match instead. A failed search fails the whole
// operation; it never degrades to a plain insert.
func (r *Reconciler) AddEvent(ctx context.Context, p calclient.EventParams, replace bool) (*calclient.Event, error) {
	if err := validateCandidate(p); err != nil {
		return nil, err
	}
	p = r.applyTimeZone(p)

	if !replace {
		return r.store.InsertEvent(ctx, r.calendarID, p)
	}

	dup, err := r.findDuplicate(ctx, p)
	if err != nil {
		return nil, err
	}
	if dup == nil {
		// No duplicate in the window is not an error; fall back to insert.
		r.logger.Info("no duplicate found, inserting", "summary", *p.Summary)
		return r.store.InsertEvent(ctx, r.calendarID, p)
	}

	r.logger.Info("replacing duplicate event", "event", dup.ID, "summary", dup.Summary)

	// Caller values win over the duplicate's current fields.
	merged := calclient.WritableParams(*dup).Merge(p)
	return r.store.UpdateEvent(ctx, r.calendarID, dup.ID, merged)
}

// findDuplicate pages through the candidate's time window looking for an
// event matching the summary text and returns the first result, relying on
// the service's default start-time ordering for tie-breaking.
func (r *Reconciler) findDuplicate(ctx context.Context, p calclient.EventParams) (*calclient.Event, error) {
	q := calclient.EventQuery{
		TimeMin:    searchBound(*p.Start),
		TimeMax:    searchBound(*p.End),
		Query:      *p.Summary,
		MaxResults: searchPageSize,
		TimeZone:   r.timeZone,
	}

	for {
		page, err := r.store.ListEvents(ctx, r.calendarID, q)
		if err != nil {
			return nil, err
		}
		if len(page.Items) > 0 {
			return &page.Items[0], nil
		}
		if page.NextPageToken == "" {
			return nil, nil
		}
		q.PageToken = page.NextPageToken
	}
}

// searchBound turns an event boundary into an RFC 3339 search bound. All-day
// dates are widened to UTC midnight.
func searchBound(t calclient.EventTime) string {
	if !t.IsAllDay() {
		return t.DateTime
	}
	if day, err := time.Parse("2006-01-02", t.Date); err == nil {
		return day.UTC().Format(time.RFC3339)
	}
	return t.Date
}

func (r *Reconciler) applyTimeZone(p calclient.EventParams) calclient.EventParams {
	if p.TimeZone == nil && r.timeZone != "" {
		p.TimeZone = calclient.String(r.timeZone)
	}
	return p
}

func validateCandidate(p calclient.EventParams) error {
	if p.Summary == nil || *p.Summary == "" {
		return &gcalerr.ValidationError{Field: "summary", Reason: "required for add-or-replace"}
	}
	if p.Start == nil || p.Start.IsZero() {
		return &gcalerr.ValidationError{Field: "start", Reason: "required for add-or-replace"}
	}
	if p.End == nil || p.End.IsZero() {
		return &gcalerr.ValidationError{Field: "end", Reason: "required for add-or-replace"}
	}
	return nil
}
