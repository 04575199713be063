// Package websearch implements a search tool backed by the DuckDuckGo HTML
// endpoint.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	searchEndpoint    = "https://html.duckduckgo.com/html/"
	defaultMaxResults = 5
	defaultUserAgent  = "Mozilla/5.0 (compatible; reagent/0.1)"
)

// Tool queries the search endpoint and returns the top result snippets as a
// newline-joined block of text.
type Tool struct {
	client     *http.Client
	maxResults int
	userAgent  string
}

// Option configures the search tool.
type Option func(*Tool)

// WithHTTPClient sets the HTTP client used for search requests.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Tool) { t.client = client }
}

// WithMaxResults caps how many result snippets are returned.
func WithMaxResults(n int) Option {
	return func(t *Tool) { t.maxResults = n }
}

// New creates a search tool.
func New(opts ...Option) *Tool {
	t := &Tool{
		client:     &http.Client{Timeout: 15 * time.Second},
		maxResults: defaultMaxResults,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tool) Name() string { return "Search" }

func (t *Tool) Description() string {
	return "A search engine retrieving top search results as snippets. Input should be a search query."
}

// Invoke runs the query and scrapes result titles and snippets.
func (t *Tool) Invoke(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "", fmt.Errorf("websearch: empty query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		searchEndpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return "", fmt.Errorf("websearch: create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("websearch: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("websearch: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("websearch: parse response: %w", err)
	}

	var out []string
	doc.Find(".result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(out) >= t.maxResults {
			return false
		}
		title := strings.TrimSpace(s.Find(".result__title").Text())
		snippet := strings.TrimSpace(s.Find(".result__snippet").Text())
		if title == "" && snippet == "" {
			return true
		}
		out = append(out, strings.TrimSpace(title+"\n"+snippet))
		return true
	})
	if len(out) == 0 {
		return "", fmt.Errorf("websearch: no results for %q", query)
	}
	return strings.Join(out, "\n\n"), nil
}
