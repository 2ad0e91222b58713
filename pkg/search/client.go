// Package search provides the retrieval backends behind the agent's
// lookup capability: a REST web-search client, an Elasticsearch client,
// and a deterministic stub for keyless runs.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	contractx "github.com/nvejas/citeline/agent/contract"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

type ClientConfig struct {
	Endpoint   string        `split_words:"true" default:"https://www.googleapis.com/customsearch/v1"`
	APIKey     string        `split_words:"true" required:"true"`
	EngineID   string        `split_words:"true" required:"true"`
	MaxResults int           `split_words:"true" default:"8"`
	Timeout    time.Duration `split_words:"true" default:"10s"`
}

// Client queries a Custom Search style REST API and maps its items to
// search results, scored by simple authority heuristics.
type Client struct {
	endpoint   string
	apiKey     string
	engineID   string
	maxResults int

	httpClient *http.Client
	now        func() time.Time
}

var _ contractx.Searcher = (*Client)(nil)

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithNow(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("search api key is required")
	}
	engineID := strings.TrimSpace(cfg.EngineID)
	if engineID == "" {
		return nil, errors.New("search engine id is required")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 8
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		engineID:   engineID,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

func (c *Client) Lookup(ctx context.Context, query string) ([]contractx.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: search api returned %d", contractx.ErrBackendUnavailable, resp.StatusCode)
	}

	var payload struct {
		Items []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Mime    string `json:"mime"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", contractx.ErrMalformedResponse, err)
	}

	fetchedAt := c.now().UTC()
	seen := make(map[string]bool, len(payload.Items))
	results := make([]contractx.SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.Mime != "" && !strings.Contains(item.Mime, "html") {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			return nil, fmt.Errorf("%w: search item without a link", contractx.ErrMalformedResponse)
		}
		if seen[link] {
			continue
		}
		seen[link] = true

		results = append(results, contractx.SearchResult{
			Title:     item.Title,
			URL:       link,
			Snippet:   item.Snippet,
			Score:     relevance(link, item.Title),
			FetchedAt: fetchedAt,
		})
	}

	// Stable so equally scored items keep the backend's rank order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}
	return results, nil
}

func (c *Client) searchURL(query string) string {
	endpoint, _ := url.Parse(c.endpoint)
	params := url.Values{}
	params.Add("key", c.apiKey)
	params.Add("cx", c.engineID)
	params.Add("q", query)
	params.Add("num", strconv.Itoa(c.maxResults))
	endpoint.RawQuery = params.Encode()
	return endpoint.String()
}

func relevance(link, title string) float64 {
	score := 1.0
	if strings.Contains(link, ".gov") || strings.Contains(link, ".edu") {
		score += 0.2
	}
	if strings.Contains(strings.ToLower(title), "official") {
		score += 0.1
	}
	return score
}
