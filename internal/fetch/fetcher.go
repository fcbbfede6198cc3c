// Package fetch retrieves web pages and reduces them to readable text.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cloo-solutions/grootai/internal/domain"
	"golang.org/x/net/html"
)

const (
	DefaultMaxBytes = 2 * 1024 * 1024
	defaultTimeout  = 15 * time.Second
	userAgent       = "Mozilla/5.0 (compatible; grootai/1.0)"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t\f\r]+`)
	newlineRun = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// skipped elements never contribute text
var skipped = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "template": {}, "svg": {}, "iframe": {}, "head": {},
}

// block elements end a line of text
var block = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "li": {}, "ul": {}, "ol": {}, "tr": {}, "table": {}, "section": {},
	"article": {}, "header": {}, "footer": {}, "nav": {}, "aside": {}, "main": {}, "blockquote": {}, "pre": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {}, "title": {},
}

// Config holds HTTPFetcher settings.
type Config struct {
	Timeout  time.Duration
	MaxBytes int64
}

// HTTPFetcher downloads pages over HTTP. It is safe for concurrent use.
type HTTPFetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
}

// Fetch downloads rawURL and returns its visible text.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*domain.Document, error) {
	body, contentType, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	var text string
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		text, err = ExtractText(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML: %w", err)
		}
	case strings.HasPrefix(mediaType, "text/"):
		text = cleanWhitespace(string(body))
	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}

	return &domain.Document{SourceURL: rawURL, Text: text}, nil
}

// Get downloads rawURL and returns the raw body with its content type.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	return f.get(ctx, rawURL)
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// StatusError reports a non-200 response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ExtractText returns the visible text of an HTML document, one line per
// block element.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipped[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			if _, ok := block[n.Data]; ok {
				sb.WriteString("\n")
			}
		}
	}
	walk(doc)

	return cleanWhitespace(sb.String()), nil
}

func cleanWhitespace(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
