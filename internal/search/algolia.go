package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Algolia query REST endpoint. Only the read path is
// implemented; index maintenance happens elsewhere.
type Client struct {
	appID      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the derived DSN host. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

func NewClient(appID, apiKey string, opts ...Option) (*Client, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, errors.New("search app id required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("search api key required")
	}
	c := &Client{
		appID:      appID,
		apiKey:     apiKey,
		baseURL:    fmt.Sprintf("https://%s-dsn.algolia.net", strings.ToLower(appID)),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Index returns a handle bound to one named index.
func (c *Client) Index(name string) Index {
	return &remoteIndex{client: c, name: name}
}

type remoteIndex struct {
	client *Client
	name   string
}

type queryRequest struct {
	Query                  string `json:"query"`
	Filters                string `json:"filters,omitempty"`
	HitsPerPage            int    `json:"hitsPerPage,omitempty"`
	RemoveWordsIfNoResults string `json:"removeWordsIfNoResults,omitempty"`
}

type queryResponse struct {
	Hits []json.RawMessage `json:"hits"`
}

func (ix *remoteIndex) Search(ctx context.Context, text string, opts Options) ([]json.RawMessage, error) {
	reqBody := queryRequest{
		Query:       text,
		Filters:     strings.Join(opts.Filters, " AND "),
		HitsPerPage: opts.HitsPerPage,
	}
	if opts.RemoveWordsIfNoResults {
		reqBody.RemoveWordsIfNoResults = "allOptional"
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/1/indexes/%s/query", ix.client.baseURL, url.PathEscape(ix.name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Algolia-Application-Id", ix.client.appID)
	req.Header.Set("X-Algolia-API-Key", ix.client.apiKey)

	res, err := ix.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", ix.name, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("search %s: status %d", ix.name, res.StatusCode)
	}

	var qr queryResponse
	if err := json.NewDecoder(res.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("search %s: decode: %w", ix.name, err)
	}
	return qr.Hits, nil
}
