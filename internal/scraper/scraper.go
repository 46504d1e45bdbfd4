package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"aira/internal/text"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// maxBodyBytes caps how much of a response we are willing to read.
const maxBodyBytes = 10 << 20

type Scraper struct {
	client *http.Client
}

func New(timeout time.Duration) *Scraper {
	return &Scraper{client: &http.Client{Timeout: timeout}}
}

// NewWithClient is used by tests to inject a custom transport.
func NewWithClient(client *http.Client) *Scraper {
	return &Scraper{client: client}
}

// Fetch retrieves the page at url and returns its plain-text content with
// markup stripped. Network failures, non-2xx responses and non-text content
// types are all errors; classifying them is the caller's job.
func (s *Scraper) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isTextual(contentType) {
		return "", fmt.Errorf("unsupported content type %q for %s", contentType, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", url, err)
	}

	if strings.Contains(contentType, "html") {
		return Extract(string(body)), nil
	}
	return text.CollapseWhitespace(string(body)), nil
}

func isTextual(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "html") ||
		strings.Contains(ct, "xml") ||
		strings.Contains(ct, "json")
}

// skipElements are subtrees that carry chrome rather than content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"iframe":   true,
}

// Extract strips markup from an HTML document and returns the visible text,
// whitespace-collapsed. A document the tokenizer cannot make sense of yields
// whatever text nodes were recoverable; emptiness is judged by the caller.
func Extract(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		slog.Debug("html parse failed, treating input as plain text", "error", err)
		return text.CollapseWhitespace(rawHTML)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return text.CollapseWhitespace(sb.String())
}
