// Package tavily implements websearch.Provider on the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/rag/preprocess"
	"github.com/sweetpotato0/nyaya/websearch"
)

const DefaultEndpoint = "https://api.tavily.com/search"

type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

var _ websearch.Provider = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("tavily: api key: %w", errorskg.ErrUnavailable)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{apiKey: cfg.APIKey, endpoint: cfg.Endpoint, http: httpClient}, nil
}

type searchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func (c *Client) Search(ctx context.Context, q websearch.Query) ([]websearch.Result, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("tavily: empty query: %w", errorskg.ErrInvalidInput)
	}
	if q.MaxResults <= 0 {
		q.MaxResults = 5
	}
	body, err := json.Marshal(searchRequest{
		APIKey:         c.apiKey,
		Query:          q.Text,
		SearchDepth:    "advanced",
		MaxResults:     q.MaxResults,
		IncludeAnswer:  true,
		IncludeDomains: q.IncludeDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily: status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(snippet)), errorskg.ErrUnavailable)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := make([]websearch.Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if len(results) == q.MaxResults {
			break
		}
		results = append(results, websearch.Result{
			Title:   preprocess.StripHTML(r.Title),
			URL:     strings.TrimSpace(r.URL),
			Content: preprocess.StripHTML(r.Content),
			Score:   r.Score,
		})
	}
	return results, nil
}
