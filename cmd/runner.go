package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auraspace/internal/repositories"
	"github.com/desertthunder/auraspace/internal/services"
	"github.com/desertthunder/auraspace/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	openDB     func(shared.DatabaseConfig) (*sql.DB, error)
	prober     services.Prober
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	OpenDB     func(shared.DatabaseConfig) (*sql.DB, error)
	Prober     services.Prober
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
	if opts.OpenDB == nil {
		opts.OpenDB = shared.OpenConfigured
	}
	if opts.Prober == nil {
		opts.Prober = services.NewHTTPProber(nil)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		openDB:     opts.OpenDB,
		prober:     opts.Prober,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, tracksCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reloads the configuration when --config names a different file than the one
// loaded at startup, then validates it and applies the log level.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	if path := cmd.String("config"); cmd.IsSet("config") && path != r.configPath {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
		r.configPath = path
	}

	if err := r.config.Validate(); err != nil {
		return err
	}

	return shared.SetLogLevel(r.logger, r.config.Log.Level)
}

// openRepository opens the configured database, applies pending migrations and wraps it in a
// [repositories.TrackRepository]. The caller closes the repository.
func (r *Runner) openRepository() (*repositories.TrackRepository, error) {
	db, err := r.openDB(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return repositories.NewTrackRepository(db), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
