// Package content is the client of the remote content source: the daily
// dashboard (sunrise, sunset, Pachhakkhan, Choghadiya), the Jain calendar,
// FAQs, Tirthankars, Kalyanaks and the location directory.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"jaincal/internal/config"
	"jaincal/internal/model"
)

// ErrNoData is returned when the content source has nothing for a query.
var ErrNoData = errors.New("content: no data")

// DashboardQuery selects one dashboard payload.
type DashboardQuery struct {
	Date      time.Time
	Latitude  float64
	Longitude float64
	Language  string
}

// Client talks to the content source API.
type Client struct {
	baseURL string
	fetcher *Fetcher
}

// NewClient builds a Client from config. Responses are cached on disk under
// cfg.CacheDir.
func NewClient(cfg config.ContentConfig) *Client {
	f := NewFetcher(cfg.CacheDir, cfg.Timeout(), cfg.RequestsPerSecond)
	f.Header.Set("Accept", "application/json")
	if cfg.APIKey != "" {
		f.Header.Set("X-API-Key", cfg.APIKey)
	}
	return &Client{baseURL: cfg.BaseURL, fetcher: f}
}

// Dashboard fetches the payload for one date and location.
func (c *Client) Dashboard(ctx context.Context, q DashboardQuery) (*Dashboard, error) {
	v := url.Values{}
	v.Set("date", q.Date.Format(model.DateLayout))
	v.Set("lat", strconv.FormatFloat(q.Latitude, 'f', 4, 64))
	v.Set("lng", strconv.FormatFloat(q.Longitude, 'f', 4, 64))
	v.Set("lang", q.Language)

	var d Dashboard
	if err := c.getJSON(ctx, "dashboard", "/dashboard", v, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

type calendarRow struct {
	GregorianDate string `json:"gregorian_date"`
	JainDate      string `json:"jain_date"`
	JainMonth     string `json:"jain_month"`
	Paksha        string `json:"paksha"`
	Tithi         int    `json:"tithi"`
	IsKshay       bool   `json:"is_kshay"`
	KshayTithi    int    `json:"kshay_tithi"`
	IsHoliday     bool   `json:"is_holiday"`
	HolidayName   string `json:"holiday_name"`
}

// CalendarMonth fetches the Jain calendar rows of a Gregorian month. Rows
// with an unparseable date are skipped.
func (c *Client) CalendarMonth(ctx context.Context, year int, month time.Month) ([]model.CalendarDay, error) {
	v := url.Values{}
	v.Set("year", strconv.Itoa(year))
	v.Set("month", strconv.Itoa(int(month)))

	var rows []calendarRow
	if err := c.getJSON(ctx, "calendar", "/calendar", v, &rows); err != nil {
		return nil, err
	}

	days := make([]model.CalendarDay, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(model.DateLayout, r.GregorianDate)
		if err != nil {
			continue
		}
		days = append(days, model.CalendarDay{
			GregorianDate: date,
			JainDate:      r.JainDate,
			JainMonth:     r.JainMonth,
			Paksha:        r.Paksha,
			Tithi:         r.Tithi,
			IsKshay:       r.IsKshay,
			KshayTithi:    r.KshayTithi,
			IsHoliday:     r.IsHoliday,
			HolidayName:   r.HolidayName,
		})
	}
	return days, nil
}

// FAQs fetches the FAQ list in lang.
func (c *Client) FAQs(ctx context.Context, lang string) ([]model.FAQ, error) {
	var out []model.FAQ
	err := c.getJSON(ctx, "faqs", "/faqs", url.Values{"lang": {lang}}, &out)
	return out, err
}

// Tirthankars fetches the Tirthankar list in lang.
func (c *Client) Tirthankars(ctx context.Context, lang string) ([]model.Tirthankar, error) {
	var out []model.Tirthankar
	err := c.getJSON(ctx, "tirthankars", "/tirthankars", url.Values{"lang": {lang}}, &out)
	return out, err
}

// Kalyanaks fetches the Kalyanak reference table.
func (c *Client) Kalyanaks(ctx context.Context) ([]model.Kalyanak, error) {
	var out []model.Kalyanak
	err := c.getJSON(ctx, "kalyanaks", "/kalyanaks", nil, &out)
	return out, err
}

// Locations searches the location directory.
func (c *Client) Locations(ctx context.Context, query string) ([]model.Location, error) {
	var out []model.Location
	err := c.getJSON(ctx, "locations", "/locations", url.Values{"q": {query}}, &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, id, path string, query url.Values, dst any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	res, err := c.fetcher.FetchOne(ctx, Source{ID: id, URL: u})
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return err
		}
		return fmt.Errorf("content %s: %w", id, err)
	}
	if len(res.Body) == 0 {
		return ErrNoData
	}
	if err := json.Unmarshal(res.Body, dst); err != nil {
		return fmt.Errorf("content %s: decode: %w", id, err)
	}
	return nil
}
