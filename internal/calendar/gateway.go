package calendar

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/calgo/gcalendar/internal/gcalerr"
)

// defaultMaxResults caps a list page when the caller gives no limit.
const defaultMaxResults = 10

// Gateway is a stateless translator between the remote calendar service and
// typed event records. It owns no events and holds no state beyond the
// service handle.
type Gateway struct {
	svc    *gcal.Service
	logger *slog.Logger
}

// NewGateway creates a Gateway over the given service handle.
func NewGateway(svc *gcal.Service, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{svc: svc, logger: logger}
}

// wrapRemoteErr maps a remote service failure into the library taxonomy:
// 404/410 become NotFoundError, everything else RemoteServiceError.
func wrapRemoteErr(op, resource string, err error) error {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		if ge.Code == http.StatusNotFound || ge.Code == http.StatusGone {
			return &gcalerr.NotFoundError{Resource: resource, Err: err}
		}
		return &gcalerr.RemoteServiceError{Op: op, StatusCode: ge.Code, Err: err}
	}
	return &gcalerr.RemoteServiceError{Op: op, Err: err}
}

// GetEvent retrieves a single event by id. Returns a NotFoundError if the
// remote service reports no such event.
func (g *Gateway) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	g.logger.Debug("getting event", "calendar", calendarID, "event", eventID)

	raw, err := g.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, wrapRemoteErr("get", "event "+eventID, err)
	}
	ev := fromGoogleEvent(raw)
	return &ev, nil
}

// ListEvents returns exactly one page of events matching the query.
// Recurring events are expanded (single_events) and deleted events hidden
// (show_deleted) unless the caller overrides those defaults.
func (g *Gateway) ListEvents(ctx context.Context, calendarID string, q EventQuery) (*EventPage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	singleEvents := true
	if q.SingleEvents != nil {
		singleEvents = *q.SingleEvents
	}
	showDeleted := false
	if q.ShowDeleted != nil {
		showDeleted = *q.ShowDeleted
	}
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = OrderByStartTime
	}

	g.logger.Debug("listing events", "calendar", calendarID,
		"timeMin", q.TimeMin, "timeMax", q.TimeMax, "q", q.Query, "pageToken", q.PageToken)

	call := g.svc.Events.List(calendarID).
		Context(ctx).
		SingleEvents(singleEvents).
		ShowDeleted(showDeleted).
		MaxResults(maxResults).
		OrderBy(orderBy)
	if q.TimeMin != "" {
		call = call.TimeMin(q.TimeMin)
	}
	if q.TimeMax != "" {
		call = call.TimeMax(q.TimeMax)
	}
	if q.Query != "" {
		call = call.Q(q.Query)
	}
	if q.TimeZone != "" {
		call = call.TimeZone(q.TimeZone)
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}

	res, err := call.Do()
	if err != nil {
		return nil, wrapRemoteErr("list", "calendar "+calendarID, err)
	}

	page := &EventPage{NextPageToken: res.NextPageToken}
	for _, item := range res.Items {
		page.Items = append(page.Items, fromGoogleEvent(item))
	}
	return page, nil
}

// InsertEvent creates a new event from the given fields. A summary is
// mandatory; unset optional fields never appear in the outgoing payload.
func (g *Gateway) InsertEvent(ctx context.Context, calendarID string, p EventParams) (*Event, error) {
	if p.Summary == nil || *p.Summary == "" {
		return nil, &gcalerr.ValidationError{Field: "summary", Reason: "required for insert"}
	}

	g.logger.Info("inserting event", "calendar", calendarID, "summary", *p.Summary)

	raw, err := g.svc.Events.Insert(calendarID, toGoogleEvent(p)).Context(ctx).Do()
	if err != nil {
		return nil, wrapRemoteErr("insert", "calendar "+calendarID, err)
	}
	ev := fromGoogleEvent(raw)
	g.logger.Info("event inserted", "event", ev.ID, "summary", ev.Summary)
	return &ev, nil
}

// UpdateEvent performs a full replace: it fetches the current event, applies
// the given overrides on top of the complete current record, and sends the
// merged record back, so unspecified fields keep their current remote values
// instead of reverting to provider defaults.
func (g *Gateway) UpdateEvent(ctx context.Context, calendarID, eventID string, p EventParams) (*Event, error) {
	current, err := g.GetEvent(ctx, calendarID, eventID)
	if err != nil {
		return nil, err
	}

	merged := WritableParams(*current).Merge(p)

	g.logger.Info("updating event", "calendar", calendarID, "event", eventID)

	body := toGoogleEvent(merged)
	body.Sequence = current.Sequence
	raw, err := g.svc.Events.Update(calendarID, eventID, body).Context(ctx).Do()
	if err != nil {
		return nil, wrapRemoteErr("update", "event "+eventID, err)
	}
	ev := fromGoogleEvent(raw)
	g.logger.Info("event updated", "event", ev.ID)
	return &ev, nil
}

// PatchEvent performs a partial update: only the given fields are sent and
// the remote service merges server-side.
func (g *Gateway) PatchEvent(ctx context.Context, calendarID, eventID string, p EventParams) (*Event, error) {
	g.logger.Info("patching event", "calendar", calendarID, "event", eventID)

	raw, err := g.svc.Events.Patch(calendarID, eventID, toGoogleEvent(p)).Context(ctx).Do()
	if err != nil {
		return nil, wrapRemoteErr("patch", "event "+eventID, err)
	}
	ev := fromGoogleEvent(raw)
	g.logger.Info("event patched", "event", ev.ID)
	return &ev, nil
}

// DeleteEvent deletes an event. Deletion is idempotent at this layer: an
// already-absent or already-deleted event returns false rather than an
// error.
func (g *Gateway) DeleteEvent(ctx context.Context, calendarID, eventID string) (bool, error) {
	g.logger.Info("deleting event", "calendar", calendarID, "event", eventID)

	err := g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var ge *googleapi.Error
		if errors.As(err, &ge) && (ge.Code == http.StatusNotFound || ge.Code == http.StatusGone) {
			g.logger.Info("event already deleted", "event", eventID)
			return false, nil
		}
		return false, wrapRemoteErr("delete", "event "+eventID, err)
	}
	return true, nil
}

// MoveEvent reschedules an event by patching only its start, end, and time
// zone.
func (g *Gateway) MoveEvent(ctx context.Context, calendarID, eventID string, newStart, newEnd EventTime, timeZone string) (*Event, error) {
	p := EventParams{
		Start: Time(newStart),
		End:   Time(newEnd),
	}
	if timeZone != "" {
		p.TimeZone = String(timeZone)
	}
	g.logger.Info("moving event", "calendar", calendarID, "event", eventID,
		"start", newStart.Value(), "end", newEnd.Value())
	return g.PatchEvent(ctx, calendarID, eventID, p)
}
