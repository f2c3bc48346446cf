package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emx/internal/repositories"
	"github.com/desertthunder/emx/internal/services"
	"github.com/desertthunder/emx/internal/shared"
	"github.com/desertthunder/emx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	sleep      tasks.SleepFunc
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client // Base client for emoji.list and image downloads
	Logger     *log.Logger
	Output     io.Writer
	Sleep      tasks.SleepFunc // Backoff and pacing; defaults to a real timer
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
	if opts.Sleep == nil {
		opts.Sleep = tasks.SleepContext
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		sleep:      opts.Sleep,
	}
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		listCommand, downloadCommand, uploadCommand, exportCommand, historyCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config file and applies the log level ahead of every command.
//
// A missing file is only an error when --config was given explicitly.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if path != "" {
		config, err := shared.LoadConfig(path)
		switch {
		case err == nil:
			r.config = config
			r.configPath = path
		case errors.Is(err, fs.ErrNotExist) && !cmd.IsSet("config"):
			r.logger.Debug("no config file, using defaults", "path", path)
		case errors.Is(err, fs.ErrNotExist):
			return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		default:
			return ctx, err
		}
	}

	level := shared.FirstNonEmpty(cmd.String("log-level"), r.config.Logging.Level)
	if err := shared.SetLogLevelString(r.logger, level); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// Root shows usage when no subcommand is given.
func (r *Runner) Root(ctx context.Context, cmd *cli.Command) error {
	if err := cli.ShowAppHelp(cmd); err != nil {
		return err
	}
	return fmt.Errorf("%w: expected one of list, download, upload, export", shared.ErrMissingCommand)
}

// sourceToken resolves the emoji.list token: flag or env, then config.
func (r *Runner) sourceToken(cmd *cli.Command) string {
	return shared.FirstNonEmpty(cmd.String("source-token"), r.config.Source.Token)
}

// destination resolves the emoji.add credentials field by field: flag or env, then config.
func (r *Runner) destination(cmd *cli.Command) shared.DestinationConfig {
	return shared.DestinationConfig{
		TeamID: shared.FirstNonEmpty(cmd.String("team-id"), r.config.Destination.TeamID),
		Cookie: shared.FirstNonEmpty(cmd.String("cookie"), r.config.Destination.Cookie),
		Token:  shared.FirstNonEmpty(cmd.String("token"), r.config.Destination.Token),
	}
}

func (r *Runner) newDirectory(ctx context.Context, cmd *cli.Command) (services.Directory, error) {
	return services.NewDirectoryClient(ctx, r.sourceToken(cmd), services.DirectoryOpts{
		Endpoint:   r.config.API.DirectoryURL,
		HTTPClient: r.httpClient,
	})
}

func (r *Runner) newPublisher(cmd *cli.Command, out io.Writer) (*tasks.Publisher, string, error) {
	dest := r.destination(cmd)

	httpCfg := services.DefaultHTTPConfig()
	if r.config.API.Timeout > 0 {
		httpCfg.Timeout = r.config.API.Timeout
	}

	uploader, err := services.NewUploadClient(dest.TeamID, dest.Cookie, dest.Token, services.UploadOpts{
		Endpoint: r.config.API.UploadURL,
		HTTP:     httpCfg,
	})
	if err != nil {
		return nil, "", err
	}

	publisher := tasks.NewPublisher(uploader, tasks.PublisherOpts{
		Config: tasks.PublishConfigFrom(r.config.Upload),
		Sleep:  r.sleep,
		Output: out,
		Logger: r.logger,
	})
	return publisher, dest.TeamID, nil
}

// engineNeeds selects which remote clients an [tasks.Engine] is built with.
type engineNeeds struct {
	directory bool
	publisher bool
	output    io.Writer // Defaults to the runner output
}

// newEngine wires an engine for cmd. The returned close func releases the run ledger.
func (r *Runner) newEngine(ctx context.Context, cmd *cli.Command, needs engineNeeds) (*tasks.Engine, func(), error) {
	out := needs.output
	if out == nil {
		out = r.output
	}

	opts := tasks.EngineOpts{
		Fetcher: tasks.NewFetcher(r.httpClient, tasks.FetchOpts{
			Workers:   r.config.Download.Workers,
			RateLimit: r.config.Download.RateLimit,
		}, r.logger),
		Output: out,
		Logger: r.logger,
	}

	if needs.directory {
		dir, err := r.newDirectory(ctx, cmd)
		if err != nil {
			return nil, nil, err
		}
		opts.Directory = dir
	}

	if needs.publisher {
		publisher, team, err := r.newPublisher(cmd, out)
		if err != nil {
			return nil, nil, err
		}
		opts.Publisher = publisher
		opts.Destination = team
	}

	closeFn := func() {}
	if ledger, db := r.openLedger(cmd); ledger != nil {
		opts.Ledger = ledger
		closeFn = func() { db.Close() }
	}

	return tasks.NewEngine(opts), closeFn, nil
}

// openLedger opens the run history database. Failures are logged and disable history for this run.
func (r *Runner) openLedger(cmd *cli.Command) (*repositories.Ledger, interface{ Close() error }) {
	if !r.config.Database.Enabled || cmd.Bool("no-history") {
		return nil, nil
	}

	db, err := shared.OpenLedger(r.config.Database)
	if err != nil {
		r.logger.Warn("run history disabled", "path", r.config.Database.Path, "error", err)
		return nil, nil
	}
	return repositories.NewLedger(db), db
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
