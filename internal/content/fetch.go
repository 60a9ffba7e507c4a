package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	appLog "jaincal/internal/log"
)

// Source is a single remote document, e.g. an ICS feed or an API endpoint.
type Source struct {
	// ID is an internal identifier used for logging.
	ID string
	// URL is the endpoint.
	URL string
}

// FetchResult contains the outcome of fetching a single source.
type FetchResult struct {
	Source    Source
	Body      []byte // payload, either freshly fetched or from cache
	FromCache bool   // true if the cached body was reused (304 or fallback)
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher fetches remote documents with HTTP caching (ETag / Last-Modified),
// a disk-backed cache that doubles as an offline fallback, retries and a
// client-side rate limit.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	limiter  *rate.Limiter

	// Header is added to every request (API key, Accept).
	Header http.Header
	Retry  RetryConfig
}

// NewFetcher creates a Fetcher. cacheDir is the base directory of the
// per-URL cache entries. rps <= 0 disables rate limiting.
func NewFetcher(cacheDir string, timeout time.Duration, rps float64) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/cache"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: timeout},
		cacheDir: cacheDir,
		Header:   http.Header{},
		Retry:    DefaultRetry,
	}
	if rps > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return f
}

// FetchAll fetches all given sources and returns individual results.
// Errors for individual sources are logged and returned in the error slice.
//
// The returned results only contain sources that produced a body, either
// from the network or the cache.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	errs := make([]error, 0)

	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		results = append(results, res)
	}

	return results, errs
}

// FetchOne fetches a single source, honoring ETag and Last-Modified. When the
// network or the server fails and a cached body exists, the cached body is
// returned instead.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	cachePath := f.cachePathForURL(src.URL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)

	buildReq := func() (*http.Request, error) {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range f.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
		return req, nil
	}

	appLog.Debug("fetch start", "id", src.ID, "url", redactURL(src.URL))

	resp, err := doWithRetry(ctx, f.client, f.Retry, buildReq)
	if err != nil {
		if len(cachedBody) > 0 && ctx.Err() == nil {
			appLog.Error("fetch failed, using cached body", err, "id", src.ID, "url", redactURL(src.URL))
			return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return FetchResult{}, readErr
		}

		newMeta := cacheEntry{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := f.saveCache(cachePath, newMeta, body); err != nil {
			// Still return the freshly fetched body.
			appLog.Error("cache save failed", err, "id", src.ID, "url", redactURL(src.URL))
		}

		appLog.Info("fetch success", "id", src.ID, "url", redactURL(src.URL), "status", resp.StatusCode, "from_cache", false)
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Debug("fetch not modified; using cache", "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil

	case http.StatusNotFound:
		return FetchResult{}, ErrNoData

	default:
		statusErr := &StatusError{Code: resp.StatusCode}
		if len(cachedBody) > 0 {
			appLog.Error("fetch non-OK, using cached body", statusErr, "id", src.ID, "url", redactURL(src.URL))
			return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, statusErr
	}
}

func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host of u for logging; paths and query
// strings of private feeds may carry tokens.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + "/...(redacted)"
}
