// Package search queries a web-search provider for result URLs.
package search

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloo-solutions/grootai/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://html.duckduckgo.com/html/"
	DefaultMaxResults = 3
	defaultTimeout    = 15 * time.Second
	maxResultPageLen  = 2 * 1024 * 1024
	userAgent         = "Mozilla/5.0 (compatible; grootai/1.0)"
)

// Config holds DuckDuckGoClient settings.
type Config struct {
	BaseURL  string
	Interval time.Duration // minimum spacing between provider calls
	Timeout  time.Duration
}

// DuckDuckGoClient scrapes the DuckDuckGo HTML endpoint. It is safe for
// concurrent use; calls are throttled by a shared limiter.
type DuckDuckGoClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewDuckDuckGoClient(cfg Config) *DuckDuckGoClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	return &DuckDuckGoClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Search returns up to max organic results for query in rank order.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string, max int) ([]domain.SearchResult, error) {
	if max <= 0 {
		max = DefaultMaxResults
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	form := url.Values{}
	form.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	// DuckDuckGo answers 202 when it throttles a client
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxResultPageLen))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	results := parseResults(doc, max)
	log.Printf("[search] %d results for %q", len(results), query)
	return results, nil
}

func parseResults(root *html.Node, max int) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, max)
	seen := make(map[string]struct{})

	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			if target := resolveResultURL(attr(n, "href")); target != "" {
				if _, dup := seen[target]; !dup {
					seen[target] = struct{}{}
					results = append(results, domain.SearchResult{URL: target, Title: nodeText(n)})
					if len(results) >= max {
						return true
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(root)

	return results
}

// resolveResultURL unwraps DuckDuckGo redirect links and drops ads.
func resolveResultURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") {
		if u.Path == "/y.js" {
			return ""
		}
		target := u.Query().Get("uddg")
		if target == "" {
			return ""
		}
		u, err = url.Parse(target)
		if err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
