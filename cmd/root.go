package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/libris/internal/config"
	"github.com/lepinkainen/libris/internal/library"
	"github.com/lepinkainen/libris/internal/render"
)

const description = "A personal book library: catalog, search, statistics and recommendations."

// CLI represents the complete command structure for the libris application
type CLI struct {
	// Global flags, each overriding its LIBRARY_* environment variable
	BooksFile string   `help:"Path to the catalog JSON file (LIBRARY_BOOKS_FILE)"`
	CacheTTL  *int     `help:"Cache time-to-live in seconds, 0 disables caching (LIBRARY_CACHE_TTL)"`
	NoCache   bool     `help:"Disable the query cache (LIBRARY_CACHE_ENABLED=false)"`
	MaxBooks  *int     `help:"Maximum number of books in the catalog (LIBRARY_MAX_BOOKS)"`
	LogLevel  string   `help:"Log level: DEBUG, INFO, WARNING, ERROR or CRITICAL (LIBRARY_LOG_LEVEL)"`
	Output    string   `short:"o" help:"Output format: json, yaml or text" default:"text"`
	RPS       *float64 `name:"openlibrary-rps" help:"OpenLibrary requests per second (LIBRARY_OPENLIBRARY_RPS)"`

	Add       AddCmd       `cmd:"" help:"Add a book to the catalog"`
	Update    UpdateCmd    `cmd:"" help:"Update fields of an existing book"`
	Remove    RemoveCmd    `cmd:"" help:"Remove a book from the catalog"`
	Get       GetCmd       `cmd:"" help:"Show a book by ISBN or catalog index"`
	List      ListCmd      `cmd:"" help:"List every book in the catalog"`
	Count     CountCmd     `cmd:"" help:"Print the number of books in the catalog"`
	Search    SearchCmd    `cmd:"" help:"Search books by title, author, genre or tag"`
	Stats     StatsCmd     `cmd:"" help:"Show library statistics"`
	Recommend RecommendCmd `cmd:"" help:"Recommend books by preference or similarity"`
	Export    ExportCmd    `cmd:"" help:"Export the catalog to SQLite for Datasette"`
	Enrich    EnrichCmd    `cmd:"" help:"Fill missing book details from OpenLibrary"`
	Import    ImportCmd    `cmd:"" help:"Import books from a Goodreads library export"`
}

// App carries what every command needs. It is bound into kong's Run.
type App struct {
	Config config.Config
	Out    io.Writer
	Format string
	Ctx    context.Context

	lib *library.Library
}

// Library opens the catalog on first use
func (a *App) Library() (*library.Library, error) {
	if a.lib != nil {
		return a.lib, nil
	}
	lib, err := library.Open(library.Options{
		BooksFile:    a.Config.BooksFile,
		BackupFile:   a.Config.BackupFile,
		CacheEnabled: a.Config.CacheEnabled,
		CacheTTL:     a.Config.CacheTTL,
		MaxBooks:     a.Config.MaxBooks,
	})
	if err != nil {
		return nil, err
	}
	a.lib = lib
	return lib, nil
}

// Render writes v in the selected output format
func (a *App) Render(v any) error {
	return render.Write(a.Out, a.Format, v)
}

func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("libris"),
		kong.Description(description),
		kong.UsageOnError(),
	}
	return kong.New(cli, append(base, opts...)...)
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(slog.LevelInfo)

	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		slog.Error("Failed to build command line parser", "error", err)
		os.Exit(1)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, kctx, &cli, os.Stdout); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run loads configuration, applies the global flags and runs the selected command.
func run(ctx context.Context, kctx *kong.Context, cli *CLI, out io.Writer) error {
	v := viper.GetViper()
	if err := config.Setup(v, "."); err != nil {
		return err
	}
	updateGlobalConfig(v, cli)

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	initLogging(cfg.SlogLevel())

	format, err := render.ParseFormat(cli.Output)
	if err != nil {
		return err
	}

	return kctx.Run(&App{
		Config: cfg,
		Out:    out,
		Format: string(format),
		Ctx:    ctx,
	})
}

// updateGlobalConfig copies explicitly given flags over the configured values
func updateGlobalConfig(v *viper.Viper, cli *CLI) {
	if cli.BooksFile != "" {
		v.Set(config.KeyBooksFile, cli.BooksFile)
	}
	if cli.CacheTTL != nil {
		v.Set(config.KeyCacheTTL, *cli.CacheTTL)
	}
	if cli.NoCache {
		v.Set(config.KeyCacheEnabled, false)
	}
	if cli.MaxBooks != nil {
		v.Set(config.KeyMaxBooks, *cli.MaxBooks)
	}
	if cli.LogLevel != "" {
		v.Set(config.KeyLogLevel, cli.LogLevel)
	}
	if cli.RPS != nil {
		v.Set(config.KeyOpenLibraryRPS, *cli.RPS)
	}
}

func initLogging(level slog.Level) {
	// Logs go to stderr so stdout stays machine readable
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
