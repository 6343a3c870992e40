package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/linkbox/internal/auth"
	"github.com/desertthunder/linkbox/internal/backend"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/realtime"
	"github.com/desertthunder/linkbox/internal/repositories"
	"github.com/desertthunder/linkbox/internal/shared"
	"github.com/desertthunder/linkbox/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, change broker, store and auth provider are opened on first use by [Runner.connect]
// unless they were injected through [RunnerOpts].
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db       *sql.DB
	broker   *realtime.Broker
	provider *auth.Provider
	store    backend.DataStore
	auth     backend.AuthProvider
	engine   *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Store      backend.DataStore
	Auth       backend.AuthProvider
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		store:      opts.Store,
		auth:       opts.Auth,
	}
	if r.store != nil {
		r.engine = tasks.NewEngine(r.store, r.logger)
	}
	return r
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, bookmarksCommand, watchCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and applies the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" && path != r.configPath {
		config, err := shared.LoadOrDefault(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
	}
	if cmd.Bool("debug") {
		r.config.Log.Level = "debug"
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	return ctx, nil
}

// connect opens the database, the change broker, the store and the auth provider.
// It is a no-op for the pieces that are already set.
func (r *Runner) connect(ctx context.Context) error {
	if r.store != nil && r.auth != nil {
		return nil
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return err
		}
		r.db = db
	}

	if r.broker == nil {
		broker, err := realtime.NewBrokerFromConfig(ctx, r.config.Realtime, r.db, r.logger)
		if err != nil {
			return fmt.Errorf("failed to start change broker: %w", err)
		}
		r.broker = broker
	}

	if r.store == nil {
		r.store = backend.NewSQLStore(r.db, r.broker, r.logger)
		r.engine = tasks.NewEngine(r.store, r.logger)
	}

	if r.auth == nil {
		r.provider = auth.NewProvider(auth.Options{
			Config:     r.config.Auth,
			Accounts:   repositories.NewAccountRepository(r.db),
			Sessions:   repositories.NewSessionRepository(r.db),
			Broker:     r.broker,
			Logger:     r.logger,
			HTTPClient: r.httpClient,
		})
		r.auth = r.provider
	}
	return nil
}

// Close releases whatever [Runner.connect] opened. It is safe to call more than once.
func (r *Runner) Close() error {
	var errs []error
	if r.provider != nil {
		errs = append(errs, r.provider.Close())
		r.provider = nil
	}
	if r.broker != nil {
		errs = append(errs, r.broker.Close())
		r.broker = nil
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	return errors.Join(errs...)
}

// session connects and returns the signed-in session, or [shared.ErrNotAuthenticated].
func (r *Runner) session(ctx context.Context) (*models.Session, error) {
	if err := r.connect(ctx); err != nil {
		return nil, err
	}
	s, err := r.auth.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: run 'linkbox auth login' first", shared.ErrNotAuthenticated)
	}
	return s, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
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
