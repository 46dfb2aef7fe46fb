// Package adlibrary implements the client for the advertising-transparency
// archive API: request construction, hourly rate limiting, cursor
// pagination and retry handling.
package adlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://graph.facebook.com/v20.0"
	defaultTimeout = 30 * time.Second

	// maxPageSize is the vendor's per-page cap, applied regardless of the
	// requested limit.
	maxPageSize = 100

	maxBodySizeBytes = 10 * 1024 * 1024

	defaultHourlyRequests = 200

	smootherBurst = 1

	outcomeOK        = "ok"
	outcomeHTTPError = "http_error"
	outcomeTransport = "transport_error"
)

// ErrFetchAborted marks a fetch that gave up after exhausting its retry
// budget. The accompanying result still carries everything accumulated
// before the failure.
var ErrFetchAborted = errors.New("fetch aborted")

// defaultFields is the canonical field set requested from the archive when
// the caller does not override it.
var defaultFields = []string{
	"id",
	"ad_creative_bodies",
	"ad_creative_link_captions",
	"ad_creative_link_titles",
	"ad_creative_link_descriptions",
	"ad_delivery_start_time",
	"ad_delivery_stop_time",
	"ad_snapshot_url",
	"page_name",
	"page_id",
	"platforms",
	"publisher_platforms",
}

// Config configures the archive client.
type Config struct {
	AccessToken       string
	BaseURL           string
	Timeout           time.Duration
	MaxHourlyRequests int
	RequestsPerSecond float64
	RetryAttempts     int
	RetryDelay        time.Duration

	// Fields overrides the canonical requested field list.
	Fields []string
}

// Client talks to the ad archive endpoint. All instances sharing one
// HourlyLimiter are throttled globally; the per-second smoother guards
// short bursts on top of the hourly quota.
type Client struct {
	cfg      Config
	http     *http.Client
	hourly   *HourlyLimiter
	smoother *rate.Limiter
	logger   *zerolog.Logger
}

// New creates an archive client sharing the given hourly limiter. A nil
// limiter gets a private one sized by MaxHourlyRequests; pass a shared
// limiter when several clients must split one quota.
func New(cfg Config, limiter *HourlyLimiter, logger *zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}

	if cfg.MaxHourlyRequests <= 0 {
		cfg.MaxHourlyRequests = defaultHourlyRequests
	}

	if limiter == nil {
		limiter = NewHourlyLimiter(cfg.MaxHourlyRequests)
	}

	if len(cfg.Fields) == 0 {
		cfg.Fields = defaultFields
	}

	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		hourly:   limiter,
		smoother: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), smootherBurst),
		logger:   logger,
	}
}

// SearchParams are the query parameters of an initial search request.
type SearchParams struct {
	SearchTerms  string
	Countries    []string
	Platforms    []string
	ActiveStatus string
}

// SearchAds retrieves up to limit raw records matching the search terms,
// in page order. A partial result with a non-nil error means the fetch was
// degraded, not failed: the caller decides how to surface it.
func (c *Client) SearchAds(ctx context.Context, p SearchParams, limit int) ([]RawAd, error) {
	params := c.baseParams(limit)
	params.Set("search_terms", p.SearchTerms)

	countries := p.Countries
	if len(countries) == 0 {
		countries = []string{"US"}
	}

	params.Set("ad_reached_countries", strings.Join(countries, ","))

	status := p.ActiveStatus
	if status == "" {
		status = "ALL"
	}

	params.Set("ad_active_status", status)

	if len(p.Platforms) > 0 {
		params.Set("publisher_platforms", strings.Join(p.Platforms, ","))
	}

	return c.fetchAll(ctx, initialRequest(c.cfg.BaseURL+"/ads_archive", params), limit)
}

// PageAds retrieves up to limit raw records from a single page's archive,
// addressed by its page ID path segment.
func (c *Client) PageAds(ctx context.Context, pageID string, limit int) ([]RawAd, error) {
	endpoint := c.cfg.BaseURL + "/" + url.PathEscape(pageID) + "/ads_archive"

	return c.fetchAll(ctx, initialRequest(endpoint, c.baseParams(limit)), limit)
}

// baseParams builds the parameters common to every initial request.
func (c *Client) baseParams(limit int) url.Values {
	pageSize := limit
	if pageSize > maxPageSize || pageSize <= 0 {
		pageSize = maxPageSize
	}

	params := url.Values{}
	params.Set("access_token", c.cfg.AccessToken)
	params.Set("fields", strings.Join(c.cfg.Fields, ","))
	params.Set("limit", strconv.Itoa(pageSize))

	return params
}

// getPage issues one rate-limited request with the configured retry budget.
// Every attempt, including retries, is admitted against the hourly window.
func (c *Client) getPage(ctx context.Context, requestURL string) (*archivePage, error) {
	attempts := c.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			FetchRetries.Inc()

			if err := sleepContext(ctx, c.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}

		if err := c.hourly.Admit(ctx); err != nil {
			return nil, err
		}

		if err := c.smoother.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request smoother wait: %w", err)
		}

		page, err := c.doRequest(ctx, requestURL)
		if err == nil {
			return page, nil
		}

		lastErr = err

		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("archive request failed")
	}

	return nil, lastErr
}

// doRequest executes a single GET and decodes the page or the structured
// error body.
func (c *Client) doRequest(ctx context.Context, requestURL string) (*archivePage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		APIRequests.WithLabelValues(outcomeTransport).Inc()

		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	APIRequestDuration.Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		APIRequests.WithLabelValues(outcomeTransport).Inc()

		return nil, fmt.Errorf("read response body: %w", err)
	}

	// The status decides the outcome before any decoding: gateway error
	// pages arrive as HTML and must not masquerade as transport failures.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		APIRequests.WithLabelValues(outcomeHTTPError).Inc()

		var page archivePage
		if err := json.Unmarshal(body, &page); err == nil && page.Error != nil {
			page.Error.HTTPStatus = resp.StatusCode

			return nil, page.Error
		}

		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var page archivePage
	if err := json.Unmarshal(body, &page); err != nil {
		APIRequests.WithLabelValues(outcomeTransport).Inc()

		return nil, fmt.Errorf("decode response: %w", err)
	}

	APIRequests.WithLabelValues(outcomeOK).Inc()

	return &page, nil
}
