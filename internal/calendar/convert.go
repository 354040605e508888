package calendar

import (
	gcal "google.golang.org/api/calendar/v3"
)

// fromGoogleTime converts a wire EventDateTime into the tagged variant.
func fromGoogleTime(t *gcal.EventDateTime) EventTime {
	if t == nil {
		return EventTime{}
	}
	if t.Date != "" {
		return AllDay(t.Date)
	}
	return Timed(t.DateTime, t.TimeZone)
}

func (t EventTime) toGoogle() *gcal.EventDateTime {
	if t.IsZero() {
		return nil
	}
	if t.IsAllDay() {
		return &gcal.EventDateTime{Date: t.Date}
	}
	return &gcal.EventDateTime{DateTime: t.DateTime, TimeZone: t.TimeZone}
}

// fromGoogleEvent translates a raw remote event into the typed record.
func fromGoogleEvent(ev *gcal.Event) Event {
	out := Event{
		ID:               ev.Id,
		Status:           ev.Status,
		HTMLLink:         ev.HtmlLink,
		Created:          ev.Created,
		Updated:          ev.Updated,
		Summary:          ev.Summary,
		Description:      ev.Description,
		Location:         ev.Location,
		Start:            fromGoogleTime(ev.Start),
		End:              fromGoogleTime(ev.End),
		RecurringEventID: ev.RecurringEventId,
		ICalUID:          ev.ICalUID,
		Sequence:         ev.Sequence,
		Etag:             ev.Etag,
		EventType:        ev.EventType,
	}
	for _, a := range ev.Attendees {
		out.Attendees = append(out.Attendees, Attendee{
			Email:          a.Email,
			ResponseStatus: a.ResponseStatus,
		})
	}
	if ev.Reminders != nil {
		rem := &Reminders{UseDefault: ev.Reminders.UseDefault}
		for _, o := range ev.Reminders.Overrides {
			rem.Overrides = append(rem.Overrides, ReminderOverride{
				Method:  o.Method,
				Minutes: o.Minutes,
			})
		}
		out.Reminders = rem
	}
	return out
}

func toGoogleAttendees(attendees []Attendee) []*gcal.EventAttendee {
	out := make([]*gcal.EventAttendee, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, &gcal.EventAttendee{
			Email:          a.Email,
			ResponseStatus: a.ResponseStatus,
		})
	}
	return out
}

func toGoogleReminders(r *Reminders) *gcal.EventReminders {
	if r == nil {
		return nil
	}
	out := &gcal.EventReminders{
		UseDefault:      r.UseDefault,
		ForceSendFields: []string{"UseDefault"},
	}
	for _, o := range r.Overrides {
		out.Overrides = append(out.Overrides, &gcal.EventReminder{
			Method:  o.Method,
			Minutes: o.Minutes,
		})
	}
	return out
}

// toGoogleEvent builds the outgoing event body. Unset (nil) params never
// appear in the payload; explicitly set zero values are kept on the wire via
// ForceSendFields.
func toGoogleEvent(p EventParams) *gcal.Event {
	ev := &gcal.Event{}

	if p.Summary != nil {
		ev.Summary = *p.Summary
		if *p.Summary == "" {
			ev.ForceSendFields = append(ev.ForceSendFields, "Summary")
		}
	}
	if p.Location != nil {
		ev.Location = *p.Location
		if *p.Location == "" {
			ev.ForceSendFields = append(ev.ForceSendFields, "Location")
		}
	}
	if p.Description != nil {
		ev.Description = *p.Description
		if *p.Description == "" {
			ev.ForceSendFields = append(ev.ForceSendFields, "Description")
		}
	}
	if p.Start != nil {
		ev.Start = p.Start.toGoogle()
	}
	if p.End != nil {
		ev.End = p.End.toGoogle()
	}
	if p.TimeZone != nil && *p.TimeZone != "" {
		// A zone already carried on the boundary value wins.
		if ev.Start != nil && ev.Start.Date == "" && ev.Start.TimeZone == "" {
			ev.Start.TimeZone = *p.TimeZone
		}
		if ev.End != nil && ev.End.Date == "" && ev.End.TimeZone == "" {
			ev.End.TimeZone = *p.TimeZone
		}
	}
	if p.Attendees != nil {
		ev.Attendees = toGoogleAttendees(p.Attendees)
		if len(p.Attendees) == 0 {
			ev.ForceSendFields = append(ev.ForceSendFields, "Attendees")
		}
	}
	if p.Reminders != nil {
		ev.Reminders = toGoogleReminders(p.Reminders)
	}
	return ev
}
