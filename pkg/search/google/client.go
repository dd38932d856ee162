// Package google implements the search port against the Google Custom Search
// JSON API. Each hit's page is fetched and reduced to readable text; when a
// page cannot be fetched the API snippet stands in for the content.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/soba-ai/soba/pkg/domain"
	"github.com/soba-ai/soba/pkg/search"
)

const (
	defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

	// Slow pages fall back to the API snippet after this long.
	fetchTimeout = 8 * time.Second

	// Pages are truncated to keep prompt sizes bounded.
	maxContentRunes = 5000

	maxBodyBytes = 1 << 20
)

var blankRuns = regexp.MustCompile(`\n\s*\n+`)

// Client talks to the Custom Search JSON API.
type Client struct {
	apiKey   string
	cseID    string
	endpoint string
	http     *http.Client
	fetcher  *http.Client
	logger   *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint. Used in tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides both the API and page-fetch clients. Used in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
		c.fetcher = hc
	}
}

// New creates a search client for the given API key and search engine id.
func New(apiKey, cseID string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		cseID:    cseID,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
		fetcher:  &http.Client{Timeout: fetchTimeout},
		logger:   logger.With("component", "google_search"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	Items []apiItem `json:"items"`
}

type apiItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Search runs one query and fetches the hit pages.
func (c *Client) Search(ctx context.Context, query string, numResults int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, search.ErrEmptyQuery
	}

	items, err := c.queryAPI(ctx, query, numResults)
	if err != nil {
		return nil, &search.Error{Query: query, Err: err}
	}
	if len(items) == 0 {
		return []domain.SearchResult{}, nil
	}

	results := make([]domain.SearchResult, 0, len(items))
	for _, item := range items {
		content, err := c.fetchAndClean(ctx, item.Link)
		if err != nil {
			c.logger.Warn("page fetch failed, falling back to snippet",
				"url", item.Link, "error", err)
			content = item.Snippet
		}
		results = append(results, domain.SearchResult{
			URL:     item.Link,
			Title:   item.Title,
			Content: content,
		})
	}
	return results, nil
}

func (c *Client) queryAPI(ctx context.Context, query string, numResults int) ([]apiItem, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cseID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(numResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parsed.Items, nil
}

func (c *Client) fetchAndClean(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SobaBot/1.0)")

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	return truncateRunes(cleanText(article.TextContent), maxContentRunes), nil
}

// cleanText collapses blank-line runs, trims each line, and drops empties.
func cleanText(text string) string {
	text = blankRuns.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
