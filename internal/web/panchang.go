package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"jaincal/internal/content"
	"jaincal/internal/ics"
	appLog "jaincal/internal/log"
	"jaincal/internal/model"
	"jaincal/internal/panchang"
)

// panchangResponse is the JSON response shape for /api/panchang.
type panchangResponse struct {
	Date     string `json:"date"`
	Timezone string `json:"timezone"`
	Language string `json:"language"`
	Location string `json:"location"`

	// Display strings; "--:--" when unknown.
	SunriseText string `json:"sunrise_text"`
	SunsetText  string `json:"sunset_text"`

	panchang.Snapshot
}

// choghadiyaResponse is the JSON response shape for /api/choghadiya.
type choghadiyaResponse struct {
	Date   string                    `json:"date"`
	Day    []panchang.ChoghadiyaSlot `json:"day"`
	Night  []panchang.ChoghadiyaSlot `json:"night"`
	Active panchang.ActiveSelection  `json:"active"`
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Date   string            `json:"date"`
	Events []model.DayEvent  `json:"events"`
	Errors map[string]string `json:"errors,omitempty"`
}

// evaluate loads the dashboard of date and runs one evaluation pass with the
// given clock minute. Missing data yields an all-unknown snapshot.
func (s *Server) evaluate(ctx context.Context, date time.Time, lang string, now panchang.TimeOfDay) (panchang.Snapshot, error) {
	var in panchang.DayInput
	if s.deps.Dashboards != nil {
		d, err := s.deps.Dashboards.Load(ctx, content.DashboardQuery{
			Date:      date,
			Latitude:  s.cfg.Location.Latitude,
			Longitude: s.cfg.Location.Longitude,
			Language:  lang,
		})
		if err != nil && !errors.Is(err, content.ErrNoData) {
			return panchang.Snapshot{}, err
		}
		in = d.DayInput(lang)
	}
	return panchang.Evaluate(in, now), nil
}

// dayFromRequest samples the clock once and resolves the requested date.
// For dates other than today the same clock minute is used.
func (s *Server) dayFromRequest(w http.ResponseWriter, r *http.Request) (time.Time, panchang.TimeOfDay, bool) {
	now := s.now()
	date, err := s.requestDate(r, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, 0, false
	}
	return date, panchang.FromTime(now), true
}

func (s *Server) handlePanchang(w http.ResponseWriter, r *http.Request) {
	date, now, ok := s.dayFromRequest(w, r)
	if !ok {
		return
	}
	lang := s.language(r)

	snap, err := s.evaluate(r.Context(), date, lang, now)
	if err != nil {
		appLog.Error("api panchang: dashboard load failed", err, "date", date.Format(model.DateLayout))
		writeError(w, http.StatusBadGateway, "content source unavailable")
		return
	}

	writeJSON(w, http.StatusOK, panchangResponse{
		Date:        date.Format(model.DateLayout),
		Timezone:    s.zone.String(),
		Language:    lang,
		Location:    s.cfg.Location.Name,
		SunriseText: panchang.FormatOptional(snap.Sunrise),
		SunsetText:  panchang.FormatOptional(snap.Sunset),
		Snapshot:    snap,
	})
}

func (s *Server) handleChoghadiya(w http.ResponseWriter, r *http.Request) {
	date, now, ok := s.dayFromRequest(w, r)
	if !ok {
		return
	}

	snap, err := s.evaluate(r.Context(), date, s.language(r), now)
	if err != nil {
		appLog.Error("api choghadiya: dashboard load failed", err, "date", date.Format(model.DateLayout))
		writeError(w, http.StatusBadGateway, "content source unavailable")
		return
	}

	writeJSON(w, http.StatusOK, choghadiyaResponse{
		Date:   date.Format(model.DateLayout),
		Day:    snap.Choghadiya.Day,
		Night:  snap.Choghadiya.Night,
		Active: snap.ActiveChoghadiya,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar store not configured")
		return
	}
	date, _, ok := s.dayFromRequest(w, r)
	if !ok {
		return
	}

	de := s.deps.Store.EventsForDate(r.Context(), date)
	resp := eventsResponse{Date: de.Date, Events: de.All()}
	for name, err := range map[string]error{
		"kshay":    de.Kshay.Err,
		"kalyanak": de.Kalyanak.Err,
		"events":   de.Events.Err,
	} {
		if err == nil {
			continue
		}
		if resp.Errors == nil {
			resp.Errors = make(map[string]string)
		}
		resp.Errors[name] = "unavailable"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendar returns the Jain calendar rows of a Gregorian month.
//
// GET /api/calendar?year=2026&month=3; both default to the current month.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar store not configured")
		return
	}
	now := s.now()
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1-12")
		return
	}

	days, err := s.deps.Store.Month(r.Context(), year, time.Month(month))
	if err != nil {
		appLog.Error("api calendar: store query failed", err, "year", year, "month", month)
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}
	if days == nil {
		days = []model.CalendarDay{}
	}
	writeJSON(w, http.StatusOK, days)
}

// handleICS exports the windows and events of a day as iCalendar.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	date, now, ok := s.dayFromRequest(w, r)
	if !ok {
		return
	}

	snap, err := s.evaluate(r.Context(), date, s.language(r), now)
	if err != nil {
		appLog.Error("calendar.ics: dashboard load failed", err, "date", date.Format(model.DateLayout))
		writeError(w, http.StatusBadGateway, "content source unavailable")
		return
	}

	var events []model.DayEvent
	if s.deps.Store != nil {
		events = s.deps.Store.EventsForDate(r.Context(), date).All()
	}

	body, err := ics.ExportDay(date, s.zone, snap, events)
	if err != nil {
		appLog.Error("calendar.ics: export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="panchang-`+date.Format(model.DateLayout)+`.ics"`)
	_, _ = w.Write(body)
}
