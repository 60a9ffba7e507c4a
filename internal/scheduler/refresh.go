package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jaincal/internal/config"
	"jaincal/internal/content"
	appLog "jaincal/internal/log"
	"jaincal/internal/model"
)

// DashboardRefresher refetches a dashboard into the cache.
type DashboardRefresher interface {
	Refresh(ctx context.Context, q content.DashboardQuery) error
}

// CalendarSource provides the calendar rows and reference tables to import.
type CalendarSource interface {
	CalendarMonth(ctx context.Context, year int, month time.Month) ([]model.CalendarDay, error)
	Kalyanaks(ctx context.Context) ([]model.Kalyanak, error)
}

// CalendarStore receives imported rows.
type CalendarStore interface {
	ImportMonth(ctx context.Context, days []model.CalendarDay) error
	ImportKalyanaks(ctx context.Context, ks []model.Kalyanak) error
	ImportFeed(ctx context.Context, sourceID string, body []byte) (int, error)
}

// FeedFetcher fetches ICS feeds.
type FeedFetcher interface {
	FetchAll(ctx context.Context, sources []content.Source) ([]content.FetchResult, []error)
}

// Refresh pulls fresh content: the dashboards of today and tomorrow into the
// cache, and, when a store is configured, the calendar month, the Kalyanak
// table and the community ICS feeds into the store. Every step runs even
// when an earlier one fails.
type Refresh struct {
	Dashboards DashboardRefresher
	Calendar   CalendarSource
	Store      CalendarStore
	Feeds      FeedFetcher

	Location config.LocationConfig
	Language string
	ICS      []config.ICSConfig

	Zone *time.Location
	Now  func() time.Time
}

// Run performs one refresh pass. The returned error joins the failures of
// every step.
func (r *Refresh) Run(ctx context.Context) error {
	now := r.now()
	var errs []error

	if r.Dashboards != nil {
		for _, d := range []time.Time{now, now.AddDate(0, 0, 1)} {
			q := content.DashboardQuery{
				Date:      d,
				Latitude:  r.Location.Latitude,
				Longitude: r.Location.Longitude,
				Language:  r.Language,
			}
			if err := r.Dashboards.Refresh(ctx, q); err != nil && !errors.Is(err, content.ErrNoData) {
				errs = append(errs, fmt.Errorf("dashboard %s: %w", d.Format(model.DateLayout), err))
			}
		}
	}

	if r.Store == nil {
		return errors.Join(errs...)
	}

	if r.Calendar != nil {
		if err := r.importCalendar(ctx, now); err != nil {
			errs = append(errs, err)
		}
	}

	if r.Feeds != nil && len(r.ICS) > 0 {
		errs = append(errs, r.importFeeds(ctx)...)
	}

	err := errors.Join(errs...)
	appLog.Info("refresh completed", "failed_steps", len(errs))
	return err
}

func (r *Refresh) importCalendar(ctx context.Context, now time.Time) error {
	var errs []error

	// The current and the next month, so month-end lookups never miss.
	for _, m := range []time.Time{now, time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())} {
		days, err := r.Calendar.CalendarMonth(ctx, m.Year(), m.Month())
		if errors.Is(err, content.ErrNoData) {
			continue
		}
		if err == nil {
			err = r.Store.ImportMonth(ctx, days)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("calendar %d-%02d: %w", m.Year(), m.Month(), err))
		}
	}

	ks, err := r.Calendar.Kalyanaks(ctx)
	if err == nil {
		err = r.Store.ImportKalyanaks(ctx, ks)
	}
	if err != nil && !errors.Is(err, content.ErrNoData) {
		errs = append(errs, fmt.Errorf("kalyanaks: %w", err))
	}
	return errors.Join(errs...)
}

func (r *Refresh) importFeeds(ctx context.Context) []error {
	sources := make([]content.Source, 0, len(r.ICS))
	for _, f := range r.ICS {
		sources = append(sources, content.Source{ID: f.ID, URL: f.URL})
	}

	results, fetchErrs := r.Feeds.FetchAll(ctx, sources)
	errs := append([]error(nil), fetchErrs...)
	for _, res := range results {
		if _, err := r.Store.ImportFeed(ctx, res.Source.ID, res.Body); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (r *Refresh) now() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	if r.Zone != nil {
		return now().In(r.Zone)
	}
	return now()
}
