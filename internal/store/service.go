package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jaincal/internal/ics"
	appLog "jaincal/internal/log"
	"jaincal/internal/model"
)

// CategoryResult is the outcome of one category of the events-for-a-date
// aggregation. A failed category carries Err and no items.
type CategoryResult struct {
	Items []model.DayEvent `json:"items"`
	Err   error            `json:"-"`
}

// DayEvents aggregates the kshay, kalyanak and generic events of one date.
type DayEvents struct {
	Date     string         `json:"date"`
	Kshay    CategoryResult `json:"kshay"`
	Kalyanak CategoryResult `json:"kalyanak"`
	Events   CategoryResult `json:"events"`
}

// All returns the rows of every category that succeeded, kshay first, then
// kalyanak, then events.
func (d DayEvents) All() []model.DayEvent {
	out := make([]model.DayEvent, 0, len(d.Kshay.Items)+len(d.Kalyanak.Items)+len(d.Events.Items))
	for _, c := range []CategoryResult{d.Kshay, d.Kalyanak, d.Events} {
		if c.Err == nil {
			out = append(out, c.Items...)
		}
	}
	return out
}

// Errors returns the category errors joined, or nil.
func (d DayEvents) Errors() error {
	return errors.Join(d.Kshay.Err, d.Kalyanak.Err, d.Events.Err)
}

// Service is the calendar store as seen by the rest of the service.
type Service struct {
	repo Repository
	loc  *time.Location
}

// NewService creates a Service. Dates are interpreted in loc.
func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc}
}

// EventsForDate collects the events of the local date of date. Each category
// is queried independently; a failure in one never hides the others.
func (s *Service) EventsForDate(ctx context.Context, date time.Time) DayEvents {
	y, m, d := date.In(s.loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	key := day.Format(model.DateLayout)
	out := DayEvents{Date: key}

	// Kshay and kalyanak rows both hang off the calendar row of the date.
	cal, err := s.repo.GetDay(ctx, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	switch {
	case errors.Is(err, ErrNotFound):
		out.Kshay.Items = []model.DayEvent{}
		out.Kalyanak.Items = []model.DayEvent{}
	case err != nil:
		out.Kshay.Err = err
		out.Kalyanak.Err = err
	default:
		out.Kshay.Items = kshayEvents(key, cal)
		out.Kalyanak = s.kalyanakEvents(ctx, key, cal)
	}

	out.Events = s.genericEvents(ctx, key, day)

	if err := out.Errors(); err != nil {
		appLog.Error("events for date partially failed", err, "date", key)
	}
	return out
}

func kshayEvents(date string, cal *model.CalendarDay) []model.DayEvent {
	if !cal.IsKshay {
		return []model.DayEvent{}
	}
	return []model.DayEvent{{
		Type:   model.DayEventKshay,
		Date:   date,
		Title:  "Kshay tithi",
		Detail: fmt.Sprintf("%s %s %d", cal.JainMonth, cal.Paksha, cal.KshayTithi),
		Tithi:  cal.KshayTithi,
	}}
}

func (s *Service) kalyanakEvents(ctx context.Context, date string, cal *model.CalendarDay) CategoryResult {
	ks, err := s.repo.ListKalyanaks(ctx, cal.JainMonth, cal.Paksha, cal.Tithi)
	if err != nil {
		return CategoryResult{Err: err}
	}
	items := make([]model.DayEvent, 0, len(ks))
	for _, k := range ks {
		items = append(items, model.DayEvent{
			Type:       model.DayEventKalyanak,
			Date:       date,
			Title:      k.Kalyanak + " Kalyanak",
			Detail:     k.Tirthankar,
			Tirthankar: k.Tirthankar,
			Tithi:      k.Tithi,
		})
	}
	return CategoryResult{Items: items}
}

func (s *Service) genericEvents(ctx context.Context, date string, day time.Time) CategoryResult {
	single, err := s.repo.ListEventsOn(ctx, day, s.loc)
	if err != nil {
		return CategoryResult{Err: err}
	}
	recurring, err := s.repo.ListRecurringEvents(ctx)
	if err != nil {
		return CategoryResult{Err: err}
	}

	events := append(single, ics.ExpandOn(recurring, day, s.loc)...)
	items := make([]model.DayEvent, 0, len(events))
	for _, e := range events {
		items = append(items, model.DayEvent{
			Type:     model.DayEventEvent,
			Date:     date,
			Title:    e.Title,
			Detail:   e.Description,
			SourceID: e.SourceID,
			UID:      e.UID,
			AllDay:   e.AllDay,
		})
	}
	return CategoryResult{Items: items}
}

// Month returns the calendar rows of a Gregorian month.
func (s *Service) Month(ctx context.Context, year int, month time.Month) ([]model.CalendarDay, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return s.repo.ListDays(ctx, first, last)
}

// ImportMonth stores calendar rows fetched from the content source.
func (s *Service) ImportMonth(ctx context.Context, days []model.CalendarDay) error {
	if err := s.repo.UpsertDays(ctx, days); err != nil {
		return err
	}
	appLog.Info("calendar rows imported", "count", len(days))
	return nil
}

// ImportKalyanaks stores the Kalyanak reference table.
func (s *Service) ImportKalyanaks(ctx context.Context, ks []model.Kalyanak) error {
	if err := s.repo.UpsertKalyanaks(ctx, ks); err != nil {
		return err
	}
	appLog.Info("kalyanaks imported", "count", len(ks))
	return nil
}

// ImportFeed parses an ICS feed and stores its events. It returns the
// number of events stored.
func (s *Service) ImportFeed(ctx context.Context, sourceID string, body []byte) (int, error) {
	parsed, err := ics.ParseICS(sourceID, body)
	if err != nil {
		return 0, fmt.Errorf("import feed %s: %w", sourceID, err)
	}
	events := ics.ToModelEvents(parsed)
	if err := s.repo.UpsertEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("import feed %s: %w", sourceID, err)
	}
	appLog.Info("ics feed imported", "source", sourceID, "event_count", len(events))
	return len(events), nil
}
