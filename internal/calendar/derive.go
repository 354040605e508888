package calendar

// WritableParams derives the writable parameter subset needed to re-submit
// an existing event: summary, start/end, location, description, attendees,
// reminders, and the time zone taken from the start value. Used wherever an
// event fetched from the remote service must be round-tripped back into a
// create or update call.
func WritableParams(ev Event) EventParams {
	p := EventParams{
		Summary:   String(ev.Summary),
		Reminders: ev.Reminders,
	}
	if !ev.Start.IsZero() {
		p.Start = Time(ev.Start)
	}
	if !ev.End.IsZero() {
		p.End = Time(ev.End)
	}
	if ev.Location != "" {
		p.Location = String(ev.Location)
	}
	if ev.Description != "" {
		p.Description = String(ev.Description)
	}
	if len(ev.Attendees) > 0 {
		p.Attendees = ev.Attendees
	}
	if ev.Start.TimeZone != "" {
		p.TimeZone = String(ev.Start.TimeZone)
	}
	return p
}
