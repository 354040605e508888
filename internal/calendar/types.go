// Package calendar provides the typed event model and the Event Store
// Gateway: stateless, typed CRUD operations against a single remote
// calendar.
package calendar

import (
	"fmt"
	"time"

	"github.com/calgo/gcalendar/internal/gcalerr"
)

// Event status values.
const (
	StatusConfirmed = "confirmed"
	StatusTentative = "tentative"
	StatusCancelled = "cancelled"
)

// Attendee response status values.
const (
	ResponseNeedsAction = "needsAction"
	ResponseDeclined    = "declined"
	ResponseTentative   = "tentative"
	ResponseAccepted    = "accepted"
)

// List ordering values.
const (
	OrderByStartTime = "startTime"
	OrderByUpdated   = "updated"
)

// EventTime is a tagged variant of an event boundary: either a timed value
// (DateTime + optional TimeZone) or an all-day value (Date). Exactly one of
// DateTime and Date is set on a non-zero value.
type EventTime struct {
	DateTime string // RFC 3339 timestamp
	TimeZone string // IANA name, timed values only
	Date     string // yyyy-mm-dd, all-day values only
}

// Timed builds a timed EventTime.
func Timed(dateTime, timeZone string) EventTime {
	return EventTime{DateTime: dateTime, TimeZone: timeZone}
}

// AllDay builds an all-day EventTime.
func AllDay(date string) EventTime {
	return EventTime{Date: date}
}

// IsAllDay reports whether the value is an all-day date.
func (t EventTime) IsAllDay() bool { return t.Date != "" }

// IsZero reports whether the value is unset.
func (t EventTime) IsZero() bool { return t.DateTime == "" && t.Date == "" }

// Value returns the single date-or-datetime string: the date for all-day
// values, the RFC 3339 timestamp otherwise.
func (t EventTime) Value() string {
	if t.IsAllDay() {
		return t.Date
	}
	return t.DateTime
}

// Attendee is one invited participant.
type Attendee struct {
	Email          string
	ResponseStatus string
}

// ReminderOverride is one non-default reminder.
type ReminderOverride struct {
	Method  string
	Minutes int64
}

// Reminders is the reminder configuration of an event.
type Reminders struct {
	UseDefault bool
	Overrides  []ReminderOverride
}

// Event is an immutable record of a remote calendar event. Events are
// produced only by the gateway from remote responses; updates derive a new
// value rather than mutating an existing one.
type Event struct {
	ID               string
	Status           string
	HTMLLink         string
	Created          string
	Updated          string
	Summary          string
	Description      string
	Location         string
	Start            EventTime
	End              EventTime
	RecurringEventID string
	ICalUID          string
	Sequence         int64
	Attendees        []Attendee
	Reminders        *Reminders
	Etag             string
	EventType        string
}

// EventQuery holds the request parameters for one list call.
type EventQuery struct {
	TimeMin    string // RFC 3339 lower bound
	TimeMax    string // RFC 3339 upper bound
	MaxResults int64  // default 10
	OrderBy    string // OrderByStartTime (default) or OrderByUpdated
	Query      string // free-text match
	PageToken  string
	TimeZone   string

	// SingleEvents and ShowDeleted default to true and false respectively
	// when nil.
	SingleEvents *bool
	ShowDeleted  *bool
}

// Validate checks the query invariants: TimeMin <= TimeMax when both carry
// parseable timestamps, and OrderBy is a known ordering.
func (q *EventQuery) Validate() error {
	if q.OrderBy != "" && q.OrderBy != OrderByStartTime && q.OrderBy != OrderByUpdated {
		return &gcalerr.ValidationError{Field: "order_by", Reason: fmt.Sprintf("unknown ordering %q", q.OrderBy)}
	}
	if q.TimeMin != "" && q.TimeMax != "" {
		min, errMin := time.Parse(time.RFC3339, q.TimeMin)
		max, errMax := time.Parse(time.RFC3339, q.TimeMax)
		if errMin == nil && errMax == nil && min.After(max) {
			return &gcalerr.ValidationError{Field: "time_min", Reason: "time_min is after time_max"}
		}
	}
	return nil
}

// EventPage is one page of list results. An empty NextPageToken signals the
// last page.
type EventPage struct {
	Items         []Event
	NextPageToken string
}

// EventParams carries the writable fields of an event with explicit
// presence: a nil field was not set by the caller and is omitted from the
// outgoing payload, while a non-nil zero value is an explicit clear and is
// sent on the wire. Attendees follow the same rule with a nil versus empty
// slice.
type EventParams struct {
	Summary     *string
	Start       *EventTime
	End         *EventTime
	Location    *string
	Description *string
	Attendees   []Attendee
	Reminders   *Reminders
	TimeZone    *string
}

// String returns a pointer to v, for setting EventParams fields.
func String(v string) *string { return &v }

// Time returns a pointer to t, for setting EventParams fields.
func Time(t EventTime) *EventTime { return &t }

// Merge overlays p on top of base: fields set in p win, fields unset in p
// keep the base value. Neither receiver is modified.
func (base EventParams) Merge(p EventParams) EventParams {
	out := base
	if p.Summary != nil {
		out.Summary = p.Summary
	}
	if p.Start != nil {
		out.Start = p.Start
	}
	if p.End != nil {
		out.End = p.End
	}
	if p.Location != nil {
		out.Location = p.Location
	}
	if p.Description != nil {
		out.Description = p.Description
	}
	if p.Attendees != nil {
		out.Attendees = p.Attendees
	}
	if p.Reminders != nil {
		out.Reminders = p.Reminders
	}
	if p.TimeZone != nil {
		out.TimeZone = p.TimeZone
	}
	return out
}
