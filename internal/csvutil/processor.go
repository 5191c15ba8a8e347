// Package csvutil reads header-led CSV exports row by row.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures CSV processing behavior.
type Options struct {
	// RequiredColumns must all be present in the header row.
	RequiredColumns []string

	// SkipInvalid controls whether to skip invalid records or return an error.
	SkipInvalid bool
}

// Row is one data record addressed by header name.
type Row struct {
	Line   int
	header map[string]int
	record []string
}

// Get returns the trimmed value of column, or "" when the row lacks it.
func (r Row) Get(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

// Skipped describes a record that was not parsed.
type Skipped struct {
	Line int
	Err  error
}

// Process reads the header row from r and parses every following record
// with parse. Unreadable records are always skipped; records parse rejects
// are skipped only with SkipInvalid.
func Process[T any](r io.Reader, parse func(Row) (T, error), opts Options) ([]T, []Skipped, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headerRecord, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	header := make(map[string]int, len(headerRecord))
	for i, name := range headerRecord {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[strings.TrimSpace(name)] = i
	}
	for _, col := range opts.RequiredColumns {
		if _, ok := header[col]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var (
		items   []T
		skipped []Skipped
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var line int
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			slog.Warn("Error reading record", "line", line, "error", err)
			skipped = append(skipped, Skipped{Line: line, Err: err})
			continue
		}
		line, _ := reader.FieldPos(0)

		item, err := parse(Row{Line: line, header: header, record: record})
		if err != nil {
			if !opts.SkipInvalid {
				return nil, nil, fmt.Errorf("invalid record on line %d: %w", line, err)
			}
			slog.Warn("Skipping invalid record", "line", line, "error", err)
			skipped = append(skipped, Skipped{Line: line, Err: err})
			continue
		}
		items = append(items, item)
	}

	return items, skipped, nil
}

// ProcessFile is Process over the file at path.
func ProcessFile[T any](path string, parse func(Row) (T, error), opts Options) ([]T, []Skipped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Process(f, parse, opts)
}
