// Package library is the entry point used by the CLI and any other caller.
// It owns one catalog store and one cache, and routes every query through
// the cache so repeated reads within the TTL avoid rescanning the catalog.
package library

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/libris/internal/book"
	"github.com/lepinkainen/libris/internal/cache"
	"github.com/lepinkainen/libris/internal/catalog"
	"github.com/lepinkainen/libris/internal/recommend"
	"github.com/lepinkainen/libris/internal/search"
	"github.com/lepinkainen/libris/internal/stats"
)

// Options configures Open.
type Options struct {
	BooksFile    string
	BackupFile   string
	CacheEnabled bool
	CacheTTL     time.Duration
	MaxBooks     int
	// Clock overrides time.Now for both the store and the cache
	Clock func() time.Time
}

// Library bundles the catalog store with its cached projections.
type Library struct {
	store *catalog.Store
	cache *cache.Cache
}

// Open builds the cache and store, wires invalidation and loads the catalog.
func Open(opts Options) (*Library, error) {
	if opts.BooksFile == "" {
		return nil, fmt.Errorf("books file path is required")
	}

	var cacheOpts []cache.Option
	storeOpts := []catalog.Option{
		catalog.WithBackupPath(opts.BackupFile),
		catalog.WithMaxBooks(opts.MaxBooks),
	}
	if opts.Clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(opts.Clock))
		storeOpts = append(storeOpts, catalog.WithClock(opts.Clock))
	}

	c := cache.New(cache.Config{Enabled: opts.CacheEnabled, TTL: opts.CacheTTL}, cacheOpts...)
	storeOpts = append(storeOpts, catalog.WithInvalidator(c))
	s := catalog.New(opts.BooksFile, storeOpts...)

	if err := s.Load(); err != nil {
		return nil, err
	}

	slog.Debug("Library opened", "path", opts.BooksFile, "books", s.Count(), "cache_enabled", c.Enabled(), "cache_ttl", opts.CacheTTL)
	return &Library{store: s, cache: c}, nil
}

// Path returns the catalog file path
func (l *Library) Path() string {
	return l.store.Path()
}

// Add inserts a new book
func (l *Library) Add(b book.Book) (book.Book, error) {
	return l.store.Add(b)
}

// AddMany inserts a batch of books with a single save. See catalog.Store.AddMany.
func (l *Library) AddMany(books []book.Book) ([]catalog.AddResult, error) {
	return l.store.AddMany(books)
}

// Update applies patch to the book identified by isbn
func (l *Library) Update(isbn string, patch book.Patch) (book.Book, error) {
	return l.store.Update(isbn, patch)
}

// Remove deletes the book identified by isbn
func (l *Library) Remove(isbn string) (book.Book, error) {
	return l.store.Remove(isbn)
}

// Get returns the book identified by isbn
func (l *Library) Get(isbn string) (book.Book, error) {
	return l.store.Get(isbn)
}

// At returns the book at the given insertion-order index
func (l *Library) At(index int) (book.Book, error) {
	return l.store.At(index)
}

// Count returns the number of books in the catalog
func (l *Library) Count() int {
	return l.store.Count()
}

// ListAll returns every book in catalog order.
func (l *Library) ListAll() ([]book.Book, error) {
	all, err := l.allBooks()
	if err != nil {
		return nil, err
	}
	return cloneBooks(all), nil
}

// Search runs a substring query of the given type. See search.Run.
func (l *Library) Search(text string, searchType string, limit int) ([]book.Book, error) {
	q, err := search.Prepare(search.Query{Text: text, Type: search.Type(searchType), Limit: limit})
	if err != nil {
		return nil, err
	}

	results, _, err := cache.GetOrCompute(l.cache, q.CacheKey(), func() ([]book.Book, error) {
		all, err := l.allBooks()
		if err != nil {
			return nil, err
		}
		return search.Run(all, q)
	})
	if err != nil {
		return nil, err
	}
	return cloneBooks(results), nil
}

// Statistics aggregates the catalog by groupBy. See stats.Compute.
func (l *Library) Statistics(groupBy string) (stats.Report, error) {
	g, err := stats.ParseGroupBy(groupBy)
	if err != nil {
		return stats.Report{}, err
	}

	report, _, err := cache.GetOrCompute(l.cache, g.CacheKey(), func() (stats.Report, error) {
		all, err := l.allBooks()
		if err != nil {
			return stats.Report{}, err
		}
		return stats.Compute(all, g)
	})
	if err != nil {
		return stats.Report{}, err
	}
	return report.Clone(), nil
}

// Recommend ranks books for req. See recommend.Run.
func (l *Library) Recommend(req recommend.Request) ([]recommend.Recommendation, error) {
	req, err := recommend.Prepare(req)
	if err != nil {
		return nil, err
	}

	recs, _, err := cache.GetOrCompute(l.cache, req.CacheKey(), func() ([]recommend.Recommendation, error) {
		all, err := l.allBooks()
		if err != nil {
			return nil, err
		}
		return recommend.Run(all, req)
	})
	if err != nil {
		return nil, err
	}

	out := make([]recommend.Recommendation, len(recs))
	for i, r := range recs {
		r.Book = r.Book.Clone()
		out[i] = r
	}
	return out, nil
}

// CacheStats reports the cache counters
func (l *Library) CacheStats() cache.Stats {
	return l.cache.Stats()
}

// allBooks returns the cached full listing. The slice is shared with the
// cache and must not be modified.
func (l *Library) allBooks() ([]book.Book, error) {
	all, _, err := cache.GetOrCompute(l.cache, cache.KeyAllBooks, func() ([]book.Book, error) {
		return l.store.ListAll(), nil
	})
	return all, err
}

func cloneBooks(books []book.Book) []book.Book {
	out := make([]book.Book, len(books))
	for i, b := range books {
		out[i] = b.Clone()
	}
	return out
}
