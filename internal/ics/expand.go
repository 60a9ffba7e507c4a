package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "jaincal/internal/log"
	"jaincal/internal/model"
)

// OccursOn reports whether ev has an occurrence on the calendar date of day
// in loc. All-day events match by date; timed events match when an
// occurrence starts within that local day. Events without a recurrence rule
// are matched against StartsOn alone.
func OccursOn(ev model.Event, day time.Time, loc *time.Location) (bool, error) {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.In(loc).Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	start := eventStart(ev, loc)
	if ev.RRule == "" {
		return !start.Before(dayStart) && start.Before(dayEnd), nil
	}

	set, err := ruleSet(ev, start, loc)
	if err != nil {
		return false, err
	}
	return len(set.Between(dayStart, dayEnd.Add(-time.Second), true)) > 0, nil
}

// ExpandOn returns the events of the list that occur on day. Events with an
// invalid rule are logged and skipped.
func ExpandOn(events []model.Event, day time.Time, loc *time.Location) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		ok, err := OccursOn(ev, day, loc)
		if err != nil {
			appLog.Error("expand: invalid recurrence", err, "uid", ev.UID, "source", ev.SourceID)
			continue
		}
		if ok {
			out = append(out, ev)
		}
	}
	return out
}

// eventStart anchors ev in loc. All-day events are stored as UTC midnight of
// their date and are re-anchored at local midnight of the same date.
func eventStart(ev model.Event, loc *time.Location) time.Time {
	if ev.AllDay {
		y, m, d := ev.StartsOn.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return ev.StartsOn.In(loc)
}

// ruleSet builds the recurrence of ev from its stored "RRULE:" and
// "EXDATE:" lines.
func ruleSet(ev model.Event, start time.Time, loc *time.Location) (*rrule.Set, error) {
	set := &rrule.Set{}
	sawRule := false

	for _, line := range strings.Split(ev.RRule, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			// Bare rule as found in a VEVENT's RRULE property.
			name, value = "RRULE", line
		}

		switch strings.ToUpper(name) {
		case "RRULE":
			opt, err := rrule.StrToROption(value)
			if err != nil {
				return nil, fmt.Errorf("parse rrule %q: %w", value, err)
			}
			opt.Dtstart = start
			r, err := rrule.NewRRule(*opt)
			if err != nil {
				return nil, fmt.Errorf("build rrule %q: %w", value, err)
			}
			set.RRule(r)
			sawRule = true
		case "EXDATE":
			for _, part := range strings.Split(value, ",") {
				ex, err := parseICSTime(part)
				if err != nil {
					continue
				}
				if ev.AllDay {
					y, m, d := ex.Date()
					ex = time.Date(y, m, d, 0, 0, 0, 0, loc)
				}
				set.ExDate(ex)
			}
		}
	}

	if !sawRule {
		return nil, errors.New("recurrence has no RRULE line")
	}
	return set, nil
}
