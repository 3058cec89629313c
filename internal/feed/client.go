// Package feed fetches the weekly timeline and per-bin zone frames from the
// upstream data service.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/hotspot-cli/internal/resilience"
	"github.com/sells-group/hotspot-cli/internal/timebin"
	"github.com/sells-group/hotspot-cli/internal/zone"
)

// maxBodyBytes bounds a single upstream response. A full frame of ~260 zone
// polygons is a few MB.
const maxBodyBytes = 64 << 20

var (
	// ErrTimelineUnavailable means the timeline could not be fetched or
	// decoded. Nothing can be displayed without it.
	ErrTimelineUnavailable = eris.New("feed: timeline unavailable")

	// ErrFrameNotFound is returned when the service has no frame at an index.
	ErrFrameNotFound = eris.New("feed: frame not found")
)

// StatusError is a non-200 upstream response.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed: GET %s: status %d", e.Path, e.Code)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// RatePerSecond limits upstream requests. Zero means unlimited.
	RatePerSecond float64
	Burst         int

	Retry resilience.Policy

	// CacheSize frames are kept for CacheTTL. Zero CacheSize disables caching.
	CacheSize int
	CacheTTL  time.Duration

	// Location interprets naive upstream timestamps. Default: UTC.
	Location *time.Location
}

// Client talks to the upstream frame service.
type Client struct {
	base    string
	http    *http.Client
	ua      string
	limiter *rate.Limiter
	retry   resilience.Policy
	cache   *FrameCache
	loc     *time.Location
}

// New creates a Client. BaseURL is required.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, eris.New("feed: base url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "hotspot-cli/1.0"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := max(opts.Burst, 1)

	retry := opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.LogRetry("feed")
	}

	return &Client{
		base:    base,
		http:    &http.Client{Timeout: opts.Timeout},
		ua:      opts.UserAgent,
		limiter: rate.NewLimiter(limit, burst),
		retry:   retry,
		cache:   NewFrameCache(opts.CacheSize, opts.CacheTTL),
		loc:     opts.Location,
	}, nil
}

// Location returns the timezone used for naive timestamps.
func (c *Client) Location() *time.Location {
	return c.loc
}

// CacheStats reports frame cache performance.
func (c *Client) CacheStats() CacheStats {
	return c.cache.Stats()
}

// Timeline fetches and parses the ordered bin timestamps. The service may
// answer with a bare array or an object with a "timeline" key.
func (c *Client) Timeline(ctx context.Context) (*timebin.Timeline, error) {
	body, err := c.get(ctx, "/timeline")
	if err != nil {
		return nil, eris.Wrapf(ErrTimelineUnavailable, "%v", err)
	}

	raw, err := decodeTimeline(body)
	if err != nil {
		return nil, eris.Wrapf(ErrTimelineUnavailable, "%v", err)
	}

	tl, err := timebin.NewTimeline(raw, c.loc)
	if err != nil {
		return nil, eris.Wrap(err, "feed: build timeline")
	}
	return tl, nil
}

// Frame returns the decoded frame at index, from cache when fresh.
func (c *Client) Frame(ctx context.Context, index int) (*zone.Frame, error) {
	if f := c.cache.Get(index); f != nil {
		return f, nil
	}

	path := fmt.Sprintf("/frame/%d", index)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: fetch frame %d", index)
	}

	frame, err := zone.DecodeFrame(body, c.loc)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: decode frame %d", index)
	}

	c.cache.Put(index, frame)
	zap.L().Debug("feed: fetched frame",
		zap.Int("index", index),
		zap.Int("zones", frame.Len()),
		zap.Int("bytes", len(body)),
	)
	return frame, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return resilience.Do(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "feed: rate limit wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
		if err != nil {
			return nil, eris.Wrap(err, "feed: build request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.ua)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "feed: GET %s", path)
		}
		defer resp.Body.Close() //nolint:errcheck

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, eris.Wrapf(ErrFrameNotFound, "GET %s", path)
		case resp.StatusCode != http.StatusOK:
			serr := &StatusError{Path: path, Code: resp.StatusCode}
			if resilience.RetryableStatus(resp.StatusCode) {
				return nil, resilience.Transient(serr, resp.StatusCode)
			}
			return nil, serr
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, resilience.Transient(eris.Wrapf(err, "feed: read %s", path), 0)
		}
		return body, nil
	})
}

func decodeTimeline(body []byte) ([]string, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []string
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, eris.Wrap(err, "feed: decode timeline array")
		}
		return list, nil
	}

	var obj struct {
		Timeline []string `json:"timeline"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, eris.Wrap(err, "feed: decode timeline object")
	}
	return obj.Timeline, nil
}
