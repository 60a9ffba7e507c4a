// Package ics imports community-event feeds from iCalendar and exports a
// day's Panchang windows and calendar events as iCalendar.
package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "jaincal/internal/log"
	"jaincal/internal/model"
)

// eventNamespace scopes the deterministic IDs of imported events.
var eventNamespace = uuid.MustParse("6f1c2a7e-4d0b-5b8e-9c3a-2f7d1e0a9b44")

// ParsedEvent is the normalized representation of a VEVENT.
type ParsedEvent struct {
	SourceID string

	UID         string
	Summary     string
	Description string

	Start  time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time

	// IsOverride marks a VEVENT carrying RECURRENCE-ID, i.e. a modified
	// instance of a recurring event.
	IsOverride bool
}

// ParseICS parses a single ICS payload into a list of ParsedEvent.
//
//   - Time zones come from the library's VTIMEZONE/TZID handling.
//   - All-day events are detected from the DTSTART value format.
//   - RRULE and EXDATE are recorded, not expanded.
//
// Malformed VEVENTs are logged and skipped.
func ParseICS(sourceID string, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "source", sourceID)
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(sourceID, comp)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "source", sourceID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "source", sourceID, "event_count", len(events))
	return events, nil
}

func parseVEvent(sourceID string, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{SourceID: sourceID}

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil {
		return out, errors.New("missing DTSTART")
	}
	if vs, ok := dtStartProp.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		out.AllDay = true
	}
	if !strings.Contains(dtStartProp.Value, "T") {
		out.AllDay = true
	}

	if out.AllDay {
		d, err := time.Parse("20060102", strings.TrimSpace(dtStartProp.Value))
		if err != nil {
			return out, err
		}
		out.Start = d
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, err
		}
		out.Start = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if ve.GetProperty("RECURRENCE-ID") != nil {
		out.IsOverride = true
	}

	return out, nil
}

// parseICSTime parses a basic ICS date or date-time without parameters.
// Floating times are read as UTC.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.Parse("20060102T150405", v)
	default:
		return time.Parse("20060102", v)
	}
}

// ToModelEvents converts parsed events into store rows. Overrides of
// recurring instances are dropped; the base rule stands for the series.
// EXDATEs are folded into the stored recurrence as an RFC 5545 rule set.
func ToModelEvents(events []ParsedEvent) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.IsOverride {
			continue
		}
		out = append(out, model.Event{
			ID:          EventID(ev.SourceID, ev.UID),
			SourceID:    ev.SourceID,
			UID:         ev.UID,
			Title:       ev.Summary,
			Description: ev.Description,
			StartsOn:    ev.Start.UTC(),
			RRule:       recurrence(ev),
			AllDay:      ev.AllDay,
		})
	}
	return out
}

// EventID returns a stable ID for an event of a feed, so re-imports upsert.
func EventID(sourceID, uid string) string {
	return uuid.NewSHA1(eventNamespace, []byte(sourceID+"\x00"+uid)).String()
}

func recurrence(ev ParsedEvent) string {
	if ev.RawRRule == "" {
		return ""
	}
	lines := []string{"RRULE:" + ev.RawRRule}
	if len(ev.ExDates) > 0 {
		parts := make([]string, len(ev.ExDates))
		for i, ex := range ev.ExDates {
			parts[i] = ex.UTC().Format("20060102T150405Z")
		}
		lines = append(lines, "EXDATE:"+strings.Join(parts, ","))
	}
	return strings.Join(lines, "\n")
}
