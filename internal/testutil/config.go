package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// libraryEnvPrefix is shared by every environment variable libris reads
const libraryEnvPrefix = "LIBRARY_"

// ClearLibraryEnv blanks every LIBRARY_* variable inherited from the host
// for the duration of the test. Viper treats empty variables as unset.
func ClearLibraryEnv(t *testing.T) {
	t.Helper()

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, libraryEnvPrefix) {
			t.Setenv(key, "")
		}
	}
}

// ResetConfig resets the global viper instance now and again when the
// test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}

// SetViperValue sets a global viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
		// Note: viper doesn't have an Unset function, so we can't
		// restore the "unset" state. This is a known limitation.
	})
}

// SetupLibraryEnv points libris at files inside the sandbox through the
// LIBRARY_* variables and returns the catalog path.
func SetupLibraryEnv(t *testing.T, env *TestEnv) string {
	t.Helper()

	ClearLibraryEnv(t)

	booksFile := env.Path("books.json")
	t.Setenv("LIBRARY_BOOKS_FILE", booksFile)
	t.Setenv("LIBRARY_DATASETTE_DB", env.Path("libris.db"))
	t.Setenv("LIBRARY_LOG_LEVEL", "ERROR")

	return booksFile
}
