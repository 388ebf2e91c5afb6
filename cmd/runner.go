package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tlsync/internal/match"
	"github.com/desertthunder/tlsync/internal/repositories"
	"github.com/desertthunder/tlsync/internal/services"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    *services.SpotifyService
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, parseCommand, syncCommand, historyCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger for every component the Runner owns.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// requireSpotify returns the configured Spotify service, constructing it from credentials when needed.
func (r *Runner) requireSpotify() (*services.SpotifyService, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: set credentials.spotify.client_id and client_secret in %s", shared.ErrMissingCredentials, r.configLocation())
	}

	svc, err := services.NewSpotifyService(creds, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	r.spotify = svc
	return svc, nil
}

// authenticate installs the stored OAuth token on the Spotify service and
// arranges for refreshed tokens to be written back to the config file.
func (r *Runner) authenticate(ctx context.Context, svc *services.SpotifyService) error {
	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		return fmt.Errorf("%w: run 'tlsync auth login' first", shared.ErrNotAuthenticated)
	}

	if err := svc.Authenticate(ctx, token); err != nil {
		return err
	}

	svc.OnTokenRefresh(func(refreshed *oauth2.Token) {
		if err := r.saveTokens(refreshed); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})

	return nil
}

// saveTokens updates the in-memory config with the token and writes the config file when a path is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}

	return nil
}

// openDatabase opens the configured SQLite database and applies pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	return db, nil
}

// buildMatcher wires a Matcher from config, with the search cache backed by the database when one is open.
func (r *Runner) buildMatcher(catalog services.Catalog, opts match.Options) *match.Matcher {
	matcher := match.NewMatcher(catalog, r.logger, opts)
	if r.db != nil {
		matcher.SetCache(repositories.NewTrackCacheRepository(r.db))
	}
	return matcher
}

// buildEngine wires a PlaylistEngine with the run store backed by the database when one is open.
func (r *Runner) buildEngine(catalog services.Catalog, matcher *match.Matcher) *tasks.PlaylistEngine {
	engine := tasks.NewPlaylistEngine(catalog, matcher, r.logger)
	if suffix := r.config.Sync.PlaylistSuffix; suffix != "" {
		engine.SetPlaylistSuffix(suffix)
	}
	if r.db != nil {
		engine.SetRunStore(repositories.NewRunRepository(r.db))
	}
	return engine
}

func (r *Runner) configLocation() string {
	if r.configPath != "" {
		return r.configPath
	}
	return "config.toml"
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
