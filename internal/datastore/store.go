// Package datastore exports the catalog to SQLite, either a local file
// or a remote Datasette instance, so it can be browsed with Datasette.
package datastore

// DatabaseName is the Datasette database the catalog is written to
const DatabaseName = "libris"

// Store is a destination for exported rows
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// CreateTable creates a new table with the given schema if it doesn't exist
	CreateTable(schema string) error

	// BatchInsert inserts or replaces multiple records in the specified table
	BatchInsert(database string, table string, records []map[string]any) error

	// Close closes the connection to the data store
	Close() error
}

// Replacer is implemented by stores that can swap a table's whole
// content at once, dropping rows left over from a previous export.
type Replacer interface {
	ReplaceAll(table string, records []map[string]any) error
}
