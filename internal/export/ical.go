// Package export renders typed events as iCalendar data for consumption by
// other calendar tooling.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	calclient "github.com/calgo/gcalendar/internal/calendar"
)

const productID = "-//gcalendar//EN"

// Calendar builds an iCalendar document containing one VEVENT per event.
func Calendar(name string, events []calclient.Event) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	for i := range events {
		vevent, err := toVEvent(&events[i])
		if err != nil {
			return nil, err
		}
		cal.Children = append(cal.Children, vevent)
	}
	return cal, nil
}

// Encode renders the events as serialized iCalendar bytes.
func Encode(name string, events []calclient.Event) ([]byte, error) {
	cal, err := Calendar(name, events)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func toVEvent(ev *calclient.Event) (*ical.Component, error) {
	vevent := ical.NewComponent(ical.CompEvent)

	switch {
	case ev.ICalUID != "":
		vevent.Props.SetText(ical.PropUID, ev.ICalUID)
	case ev.ID != "":
		vevent.Props.SetText(ical.PropUID, ev.ID+"@gcalendar")
	default:
		vevent.Props.SetText(ical.PropUID, uuid.NewString()+"@gcalendar")
	}

	if ev.Summary != "" {
		vevent.Props.SetText(ical.PropSummary, ev.Summary)
	}
	if ev.Description != "" {
		vevent.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		vevent.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.Status != "" {
		vevent.Props.SetText(ical.PropStatus, statusText(ev.Status))
	}

	if err := setTimeProp(vevent, "DTSTART", ev.Start); err != nil {
		return nil, err
	}
	if err := setTimeProp(vevent, "DTEND", ev.End); err != nil {
		return nil, err
	}

	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	return vevent, nil
}

func setTimeProp(vevent *ical.Component, name string, t calclient.EventTime) error {
	if t.IsZero() {
		return nil
	}

	prop := ical.NewProp(name)
	if t.IsAllDay() {
		day, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			return fmt.Errorf("failed to parse %s date %q: %w", name, t.Date, err)
		}
		prop.Params.Set("VALUE", "DATE")
		prop.Value = day.Format("20060102")
	} else {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return fmt.Errorf("failed to parse %s time %q: %w", name, t.DateTime, err)
		}
		prop.Value = ts.UTC().Format("20060102T150405Z")
	}
	vevent.Props.Set(prop)
	return nil
}

func statusText(status string) string {
	switch status {
	case calclient.StatusTentative:
		return "TENTATIVE"
	case calclient.StatusCancelled:
		return "CANCELLED"
	default:
		return "CONFIRMED"
	}
}
