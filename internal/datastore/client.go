package datastore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"slices"
	"time"
)

// MaxRowsPerRequest matches the default row limit of the insert API
const MaxRowsPerRequest = 100

// DatasetteClient pushes rows to a remote Datasette through the
// datasette-insert plugin API.
type DatasetteClient struct {
	baseURL        string
	apiToken       string
	client         *http.Client
	rowsPerRequest int
}

// NewDatasetteClient creates a new DatasetteClient instance
func NewDatasetteClient(baseURL, apiToken string) *DatasetteClient {
	return &DatasetteClient{
		baseURL:        baseURL,
		apiToken:       apiToken,
		client:         &http.Client{Timeout: 30 * time.Second},
		rowsPerRequest: MaxRowsPerRequest,
	}
}

// Connect validates the base URL
func (c *DatasetteClient) Connect() error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.baseURL)
	}
	return nil
}

// CreateTable is a no-op for remote Datasette as tables are created via the insert API
func (c *DatasetteClient) CreateTable(schema string) error {
	return nil
}

// BatchInsert upserts records keyed by isbn through the insert API,
// sending at most rowsPerRequest rows per request.
func (c *DatasetteClient) BatchInsert(database string, table string, records []map[string]any) error {
	if len(records) == 0 {
		return nil
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, "-/insert", database, table)
	q := u.Query()
	q.Set("pk", "isbn")
	q.Set("upsert", "1")
	u.RawQuery = q.Encode()
	endpoint := u.String()

	sent := 0
	for chunk := range slices.Chunk(records, c.rowsPerRequest) {
		if err := c.post(endpoint, chunk); err != nil {
			return fmt.Errorf("after %d of %d rows: %w", sent, len(records), err)
		}
		sent += len(chunk)
		slog.Debug("Sent rows to Datasette", "table", table, "sent", sent, "total", len(records))
	}
	return nil
}

func (c *DatasetteClient) post(endpoint string, rows []map[string]any) error {
	jsonData, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("datasette API error (status %d): %v", resp.StatusCode, errResp)
	}
	return nil
}

// Close is a no-op for the HTTP client
func (c *DatasetteClient) Close() error {
	return nil
}
