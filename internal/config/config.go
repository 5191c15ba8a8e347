// Package config reads libris settings from defaults, an optional
// config.yaml and LIBRARY_* environment variables through viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	liberrors "github.com/lepinkainen/libris/internal/errors"
)

// Viper keys
const (
	KeyBooksFile      = "books_file"
	KeyBackupFile     = "backup_file"
	KeyCacheEnabled   = "cache.enabled"
	KeyCacheTTL       = "cache.ttl"
	KeyMaxBooks       = "max_books"
	KeyLogLevel       = "log_level"
	KeyDatasetteDB    = "datasette.dbfile"
	KeyOpenLibraryURL = "openlibrary.url"
	KeyOpenLibraryRPS = "openlibrary.rps"
)

// envBindings maps viper keys to the environment variables that override them
var envBindings = map[string]string{
	KeyBooksFile:      "LIBRARY_BOOKS_FILE",
	KeyBackupFile:     "LIBRARY_BACKUP_FILE",
	KeyCacheEnabled:   "LIBRARY_CACHE_ENABLED",
	KeyCacheTTL:       "LIBRARY_CACHE_TTL",
	KeyMaxBooks:       "LIBRARY_MAX_BOOKS",
	KeyLogLevel:       "LIBRARY_LOG_LEVEL",
	KeyDatasetteDB:    "LIBRARY_DATASETTE_DB",
	KeyOpenLibraryURL: "LIBRARY_OPENLIBRARY_URL",
	KeyOpenLibraryRPS: "LIBRARY_OPENLIBRARY_RPS",
}

// EnvVars returns the environment variable names libris reads
func EnvVars() []string {
	vars := make([]string, 0, len(envBindings))
	for _, name := range envBindings {
		vars = append(vars, name)
	}
	return vars
}

// Config is the validated, typed configuration.
type Config struct {
	BooksFile      string
	BackupFile     string
	CacheEnabled   bool
	CacheTTL       time.Duration
	MaxBooks       int
	LogLevel       string
	DatasetteDB    string
	OpenLibraryURL string
	OpenLibraryRPS float64
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBooksFile, "books.json")
	v.SetDefault(KeyBackupFile, "")
	v.SetDefault(KeyCacheEnabled, true)
	v.SetDefault(KeyCacheTTL, 300) // seconds
	v.SetDefault(KeyMaxBooks, 10000)
	v.SetDefault(KeyLogLevel, "INFO")
	v.SetDefault(KeyDatasetteDB, "libris.db")
	v.SetDefault(KeyOpenLibraryURL, "https://openlibrary.org")
	v.SetDefault(KeyOpenLibraryRPS, 1.0)
}

// BindEnv binds every key to its LIBRARY_* environment variable
func BindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// ReadFile merges config.yaml from the given directories when present.
// A missing file is not an error and nothing is written.
func ReadFile(v *viper.Viper, dirs ...string) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("Config file not found, using defaults and environment")
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	slog.Debug("Config file loaded", "path", v.ConfigFileUsed())
	return nil
}

// Setup prepares v with defaults, environment bindings and config.yaml
func Setup(v *viper.Viper, dirs ...string) error {
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return err
	}
	return ReadFile(v, dirs...)
}

// Load builds a validated Config from v. Values that cannot be converted
// to the key's type are reported as a ValidationError.
func Load(v *viper.Viper) (Config, error) {
	cacheEnabled, err := convert(v, KeyCacheEnabled, cast.ToBoolE, "a boolean")
	if err != nil {
		return Config{}, err
	}
	ttlSeconds, err := convert(v, KeyCacheTTL, cast.ToIntE, "a whole number of seconds")
	if err != nil {
		return Config{}, err
	}
	maxBooks, err := convert(v, KeyMaxBooks, cast.ToIntE, "an integer")
	if err != nil {
		return Config{}, err
	}
	rps, err := convert(v, KeyOpenLibraryRPS, cast.ToFloat64E, "a number")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BooksFile:      strings.TrimSpace(v.GetString(KeyBooksFile)),
		BackupFile:     strings.TrimSpace(v.GetString(KeyBackupFile)),
		CacheEnabled:   cacheEnabled,
		CacheTTL:       time.Duration(ttlSeconds) * time.Second,
		MaxBooks:       maxBooks,
		LogLevel:       strings.ToUpper(strings.TrimSpace(v.GetString(KeyLogLevel))),
		DatasetteDB:    strings.TrimSpace(v.GetString(KeyDatasetteDB)),
		OpenLibraryURL: strings.TrimRight(strings.TrimSpace(v.GetString(KeyOpenLibraryURL)), "/"),
		OpenLibraryRPS: rps,
	}

	if cfg.BackupFile == "" {
		cfg.BackupFile = cfg.BooksFile + ".bak"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// convert reads key with a strict cast; viper's Get* helpers turn
// malformed values into the zero value instead.
func convert[T any](v *viper.Viper, key string, castE func(any) (T, error), want string) (T, error) {
	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	val, err := castE(raw)
	if err != nil {
		var zero T
		return zero, liberrors.NewValidationError(key, "must be %s, got %q", want, fmt.Sprint(v.Get(key)))
	}
	return val, nil
}

// Validate checks every field and reports the first invalid one.
func (c Config) Validate() error {
	switch {
	case c.BooksFile == "":
		return liberrors.NewValidationError(KeyBooksFile, "must not be empty")
	case c.CacheTTL < 0:
		return liberrors.NewValidationError(KeyCacheTTL, "must not be negative")
	case c.MaxBooks < 1:
		return liberrors.NewValidationError(KeyMaxBooks, "must be at least 1, got %d", c.MaxBooks)
	case c.OpenLibraryRPS <= 0:
		return liberrors.NewValidationError(KeyOpenLibraryRPS, "must be positive")
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return liberrors.NewValidationError(KeyLogLevel, "unknown level %q", c.LogLevel)
	}
	return nil
}

var logLevels = map[string]slog.Level{
	"DEBUG":    slog.LevelDebug,
	"INFO":     slog.LevelInfo,
	"WARN":     slog.LevelWarn,
	"WARNING":  slog.LevelWarn,
	"ERROR":    slog.LevelError,
	"CRITICAL": slog.LevelError + 4,
}

// SlogLevel maps LogLevel to a slog level, defaulting to Info
func (c Config) SlogLevel() slog.Level {
	if level, ok := logLevels[strings.ToUpper(c.LogLevel)]; ok {
		return level
	}
	return slog.LevelInfo
}
