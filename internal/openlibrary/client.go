// Package openlibrary looks up book metadata by ISBN on OpenLibrary.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public OpenLibrary API
	DefaultBaseURL = "https://openlibrary.org"
	// DefaultRatePerSecond keeps us well within OpenLibrary's fair use
	DefaultRatePerSecond = 1.0
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is an OpenLibrary books API client.
type Client struct {
	baseURL     string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithRateLimiter replaces the default limiter
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(client *Client) {
		if l != nil {
			client.rateLimiter = l
		}
	}
}

// NewClient creates a client for baseURL limited to rps requests per second.
func NewClient(baseURL string, rps float64, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if rps <= 0 {
		rps = DefaultRatePerSecond
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: ratelimit.New("OpenLibrary", rps),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// bookResponse matches one entry of the jscmd=data response
type bookResponse struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description any    `json:"description"`
	Authors     []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	Subjects      []any  `json:"subjects"`
	NumberOfPages int    `json:"number_of_pages"`
	PublishDate   string `json:"publish_date"`
}

// Lookup fetches metadata for isbn. An ISBN OpenLibrary does not know
// yields a NotFoundError; HTTP 429 yields a RateLimitError. The check
// digit is not verified, so stored legacy ISBNs can be looked up.
func (c *Client) Lookup(ctx context.Context, isbn string) (*Metadata, error) {
	key, err := book.CanonicalISBN(isbn)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("bibkeys", "ISBN:"+key)
	q.Set("format", "json")
	q.Set("jscmd", "data")
	endpoint := c.baseURL + "/api/books?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("Querying OpenLibrary", "isbn", key)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenLibrary request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, liberrors.NewRateLimitErrorWithRetry("OpenLibrary rate limit exceeded", retryAfter(resp.Header.Get("Retry-After")))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("OpenLibrary returned status %d", resp.StatusCode)
	}

	var result map[string]bookResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding OpenLibrary response: %w", err)
	}

	olBook, ok := result["ISBN:"+key]
	if !ok {
		return nil, liberrors.NewNotFoundError(key)
	}

	md := toMetadata(key, olBook)
	slog.Debug("OpenLibrary match", "isbn", key, "title", md.Title)
	return md, nil
}

func toMetadata(isbn string, b bookResponse) *Metadata {
	md := &Metadata{
		ISBN:        isbn,
		Title:       b.Title,
		Subtitle:    b.Subtitle,
		Description: extractDescription(b.Description),
		Pages:       b.NumberOfPages,
		PublishYear: parseYear(b.PublishDate),
		Subjects:    extractStringSlice(b.Subjects),
	}
	for _, a := range b.Authors {
		if a.Name != "" {
			md.Authors = append(md.Authors, a.Name)
		}
	}
	if len(b.Publishers) > 0 {
		md.Publisher = b.Publishers[0].Name
	}
	return md
}

func retryAfter(header string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// extractDescription handles the various forms description can take.
func extractDescription(desc any) string {
	switch v := desc.(type) {
	case string:
		return v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	}
	return ""
}

// extractStringSlice converts []any to []string, handling various element types.
func extractStringSlice(items []any) []string {
	if len(items) == 0 {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			result = append(result, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				result = append(result, name)
			}
		}
	}
	return result
}
