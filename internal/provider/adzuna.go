// Package provider wraps the external job-listing/salary data API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"paybench-engine/internal/errs"
)

const DefaultEndpoint = "https://api.adzuna.com"

// Client fetches live job-listing and salary-distribution data. All calls ride
// one shared limiter; the upstream rate limits per app key, not per host.
type Client struct {
	endpoint   string
	appID      string
	appKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

func WithRateLimit(reqPerSec float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(reqPerSec), burst)
	}
}

func New(appID, appKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(appID) == "" || strings.TrimSpace(appKey) == "" {
		return nil, errs.Config(nil, "provider credentials are not configured")
	}
	c := &Client{
		endpoint:   DefaultEndpoint,
		appID:      appID,
		appKey:     appKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CountryCode maps a user-facing country to the provider's code.
// usa/us -> us, everything else -> gb.
func CountryCode(country string) string {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "usa", "us":
		return "us"
	default:
		return "gb"
	}
}

func location0(cc string) string {
	if cc == "us" {
		return "US"
	}
	return "UK"
}

// Jobs fetches a page of live listings for a query. Listing payloads carry a
// per-item category classification used by the cache TTL policy.
func (c *Client) Jobs(ctx context.Context, title, location, country string, resultsPerPage int) (map[string]any, error) {
	cc := CountryCode(country)
	params := url.Values{}
	params.Set("results_per_page", strconv.Itoa(resultsPerPage))
	params.Set("what", title)
	params.Set("location0", location0(cc))
	if strings.TrimSpace(location) != "" {
		params.Set("location1", location)
	}
	return c.get(ctx, fmt.Sprintf("/v1/api/jobs/%s/search/1", cc), params)
}

// Histogram fetches the salary distribution buckets for a query.
func (c *Client) Histogram(ctx context.Context, title, location, country string) (map[string]any, error) {
	cc := CountryCode(country)
	params := url.Values{}
	params.Set("what", title)
	params.Set("location0", location0(cc))
	if strings.TrimSpace(location) != "" {
		params.Set("location1", location)
	}
	return c.get(ctx, fmt.Sprintf("/v1/api/jobs/%s/histogram", cc), params)
}

// History fetches the month-by-month salary history for a category/location.
func (c *Client) History(ctx context.Context, category, location, country string) (map[string]any, error) {
	cc := CountryCode(country)
	params := url.Values{}
	params.Set("location0", location0(cc))
	if strings.TrimSpace(location) != "" {
		params.Set("location1", location)
	}
	if strings.TrimSpace(category) != "" {
		params.Set("category", category)
	}
	return c.get(ctx, fmt.Sprintf("/v1/api/jobs/%s/history", cc), params)
}

// Categories lists the provider's category taxonomy for a country.
func (c *Client) Categories(ctx context.Context, country string) (map[string]any, error) {
	cc := CountryCode(country)
	return c.get(ctx, fmt.Sprintf("/v1/api/jobs/%s/categories", cc), url.Values{})
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)
	params.Set("content-type", "application/json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "PayBench/1.0 (+local)")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Upstream(err, "provider get %s", path)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, errs.Upstream(fmt.Errorf("status %d", res.StatusCode), "provider get %s", path)
	}

	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, errs.Upstream(err, "provider decode %s", path)
	}
	return payload, nil
}
