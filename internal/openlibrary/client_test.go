package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liberrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/ratelimit"
)

const selfishGeneResponse = `{
  "ISBN:9780241952702": {
    "title": "The Selfish Gene",
    "authors": [{"name": "Richard Dawkins"}],
    "publishers": [{"name": "Penguin"}],
    "number_of_pages": 360,
    "publish_date": "March 2016",
    "description": {"type": "/type/text", "value": "A classic of evolutionary biology."},
    "subjects": [{"name": "Evolution"}, "Genetics", {"name": "Evolution"}]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, 1, WithRateLimiter(ratelimit.New("test", 1000)))
}

func TestLookup_Success(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(selfishGeneResponse))
	})

	md, err := client.Lookup(context.Background(), "978-0-241-95270-2")
	require.NoError(t, err)

	assert.Equal(t, "bibkeys=ISBN%3A9780241952702&format=json&jscmd=data", gotQuery)
	assert.Equal(t, &Metadata{
		ISBN:        "9780241952702",
		Title:       "The Selfish Gene",
		Authors:     []string{"Richard Dawkins"},
		Publisher:   "Penguin",
		Description: "A classic of evolutionary biology.",
		Pages:       360,
		PublishYear: 2016,
		Subjects:    []string{"Evolution", "Genetics", "Evolution"},
	}, md)
}

func TestLookup_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Lookup(context.Background(), "9780143127550")
	require.Error(t, err)
	var nf *liberrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "9780143127550", nf.Key)
}

func TestLookup_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Lookup(context.Background(), "9780143127550")
	require.Error(t, err)
	var rl *liberrors.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 30*time.Second, rl.RetryAfter)
}

func TestLookup_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Lookup(context.Background(), "9780143127550")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.False(t, liberrors.IsNotFoundError(err))
}

func TestLookup_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := client.Lookup(context.Background(), "9780143127550")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestLookup_InvalidISBNNeverHitsServer(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.Lookup(context.Background(), "123")
	assert.True(t, liberrors.IsValidationError(err))
	assert.False(t, called)
}

func TestLookup_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(selfishGeneResponse))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Lookup(ctx, "9780241952702")
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 0)
	assert.Equal(t, DefaultBaseURL, c.baseURL)

	c = NewClient("http://localhost:9000/", 2)
	assert.Equal(t, "http://localhost:9000", c.baseURL)
}
