package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jaincal/internal/config"
)

const dashboardJSON = `{
  "date": "2026-03-01",
  "sunrise": "06:58 AM",
  "sunset": "06:41 PM",
  "pachhakkhan": {
    "en": {"Navkarshi": "07:46 AM", "Porisi": "10:05 AM", "Sadh Porisi": "11:32 AM"},
    "gu": {"નવકારશી": "07:46 AM"}
  },
  "choghadiya": [
    {"type": "day", "sequence": 1, "name": {"en": "Udveg", "gu": "ઉદ્વેગ"}, "choghadiya_time": "06:58-08:26"},
    {"type": "day", "sequence": 2, "name": {"en": "Chal", "gu": "ચલ"}, "choghadiya_time": "08:26-09:54"},
    {"type": "night", "sequence": 1, "name": {"en": "Shubh"}, "choghadiya_time": "18:41-20:13"}
  ]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(config.ContentConfig{
		BaseURL:        srv.URL,
		APIKey:         "secret",
		CacheDir:       t.TempDir(),
		TimeoutSeconds: 5,
	})
	c.fetcher.Retry = fastRetry
	return c
}

func TestClient_Dashboard(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dashboard" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Write([]byte(dashboardJSON))
	})

	d, err := c.Dashboard(context.Background(), DashboardQuery{
		Date:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Latitude:  23.0225,
		Longitude: 72.5714,
		Language:  "en",
	})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if gotQuery != "date=2026-03-01&lang=en&lat=23.0225&lng=72.5714" {
		t.Fatalf("query = %q", gotQuery)
	}
	if d.Sunrise != "06:58 AM" || len(d.Choghadiya) != 3 {
		t.Fatalf("unexpected payload: %+v", d)
	}

	in := d.DayInput("en")
	if len(in.Pachhakkhan) != 3 || len(in.Choghadiya) != 3 {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestClient_DashboardMissingIsNoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.Dashboard(context.Background(), DashboardQuery{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Language: "en"})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestClient_CalendarMonth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("year") != "2026" || r.URL.Query().Get("month") != "3" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`[
			{"gregorian_date": "2026-03-01", "jain_date": "Fagan Sud 13", "jain_month": "Fagan", "paksha": "sud", "tithi": 13},
			{"gregorian_date": "2026-03-02", "jain_month": "Fagan", "paksha": "sud", "tithi": 15, "is_kshay": true, "kshay_tithi": 14},
			{"gregorian_date": "03/03/2026"}
		]`))
	})

	days, err := c.CalendarMonth(context.Background(), 2026, time.March)
	if err != nil {
		t.Fatalf("CalendarMonth: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected the malformed row to be skipped, got %d rows", len(days))
	}
	if days[1].Date() != "2026-03-02" || !days[1].IsKshay || days[1].KshayTithi != 14 {
		t.Fatalf("unexpected row: %+v", days[1])
	}
}

func TestClient_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	})
	if _, err := c.FAQs(context.Background(), "en"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClient_ReferenceContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/faqs":
			w.Write([]byte(`[{"id": 1, "question": "What is Navkarshi?", "answer": "..."}]`))
		case "/tirthankars":
			w.Write([]byte(`[{"number": 1, "name": "Rishabhanatha", "symbol": "Bull"}]`))
		case "/kalyanaks":
			w.Write([]byte(`[{"id": 7, "tirthankar": "Mahavir Swami", "kalyanak": "Janma", "jain_month": "Chaitra", "paksha": "sud", "tithi": 13}]`))
		case "/locations":
			if r.URL.Query().Get("q") != "pali" {
				w.Write([]byte(`[]`))
				return
			}
			w.Write([]byte(`[{"name": "Palitana", "latitude": 21.52, "longitude": 71.82, "timezone": "Asia/Kolkata"}]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	faqs, err := c.FAQs(ctx, "en")
	if err != nil || len(faqs) != 1 {
		t.Fatalf("FAQs = %v, %v", faqs, err)
	}
	tirth, err := c.Tirthankars(ctx, "en")
	if err != nil || len(tirth) != 1 || tirth[0].Symbol != "Bull" {
		t.Fatalf("Tirthankars = %v, %v", tirth, err)
	}
	kal, err := c.Kalyanaks(ctx)
	if err != nil || len(kal) != 1 || kal[0].Tithi != 13 || kal[0].Paksha != "sud" {
		t.Fatalf("Kalyanaks = %v, %v", kal, err)
	}
	locs, err := c.Locations(ctx, "pali")
	if err != nil || len(locs) != 1 || locs[0].Name != "Palitana" {
		t.Fatalf("Locations = %v, %v", locs, err)
	}
}
