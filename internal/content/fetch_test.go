package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

var fastRetry = RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f := NewFetcher(t.TempDir(), 5*time.Second, 0)
	f.Retry = fastRetry
	return f
}

func TestFetchOne_ConditionalRequestUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	src := Source{ID: "feed", URL: srv.URL + "/feed"}

	first, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if first.FromCache || string(first.Body) != "payload" {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !second.FromCache || string(second.Body) != "payload" {
		t.Fatalf("expected cached body on 304, got %+v", second)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", hits.Load())
	}
}

func TestFetchOne_FallsBackToCacheOnServerError(t *testing.T) {
	var broken atomic.Bool
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if broken.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	src := Source{ID: "feed", URL: srv.URL}

	if _, err := f.FetchOne(context.Background(), src); err != nil {
		t.Fatalf("warm-up fetch: %v", err)
	}

	broken.Store(true)
	hits.Store(0)
	res, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("expected cached fallback, got %v", err)
	}
	if !res.FromCache || string(res.Body) != "fresh" {
		t.Fatalf("unexpected fallback result: %+v", res)
	}
	if hits.Load() != int32(fastRetry.MaxAttempts) {
		t.Fatalf("expected %d attempts, got %d", fastRetry.MaxAttempts, hits.Load())
	}
}

func TestFetchOne_ServerErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).FetchOne(context.Background(), Source{ID: "x", URL: srv.URL})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
}

func TestFetchOne_NotFoundIsNoData(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).FetchOne(context.Background(), Source{ID: "x", URL: srv.URL})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", hits.Load())
	}
}

func TestFetchOne_SendsHeaders(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	f.Header.Set("X-API-Key", "k-123")
	if _, err := f.FetchOne(context.Background(), Source{ID: "x", URL: srv.URL}); err != nil {
		t.Fatal(err)
	}
	if gotKey != "k-123" {
		t.Fatalf("api key header = %q", gotKey)
	}
}

func TestFetchAll_CollectsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	results, errs := newTestFetcher(t).FetchAll(context.Background(), []Source{
		{ID: "good", URL: srv.URL + "/good"},
		{ID: "bad", URL: srv.URL + "/bad"},
		{ID: "empty"},
	})
	if len(results) != 1 || results[0].Source.ID != "good" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://calendar.example.com/private/abc.ics?token=secret")
	if got != "https://calendar.example.com/...(redacted)" {
		t.Fatalf("redactURL = %q", got)
	}
	if got := redactURL("not a url"); got != "...(redacted)" {
		t.Fatalf("redactURL(invalid) = %q", got)
	}
}
