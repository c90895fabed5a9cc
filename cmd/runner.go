package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/session"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/desertthunder/pophits/internal/tasks"
	"github.com/urfave/cli/v3"
)

// API is the PopHits client surface the commands use.
type API interface {
	services.Client
	Raw(ctx context.Context, method, path string, body []byte) (*services.APIResponse, error)
}

// SpotifyClient is the Spotify helper surface the commands use.
type SpotifyClient interface {
	tasks.SpotifyClient
	AuthURL(state string) string
}

var (
	_ API           = (*services.PopHitsService)(nil)
	_ SpotifyClient = (*services.SpotifyService)(nil)
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        API
	spotify    SpotifyClient
	manager    *session.Manager
	prompter   Prompter
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        API
	Spotify    SpotifyClient
	Manager    *session.Manager
	Prompter   Prompter
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// Without a Manager the session lives in memory for the life of the process.
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
	if opts.Prompter == nil {
		opts.Prompter = huhPrompter{}
	}
	if opts.Manager == nil && opts.API != nil {
		if m, err := session.NewManager(session.New(), &session.MemoryStore{}, opts.API, opts.Logger); err == nil {
			opts.Manager = m
		}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		spotify:    opts.Spotify,
		manager:    opts.Manager,
		prompter:   opts.Prompter,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger, e.g. when the TUI takes over the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, songsCommand, generateCommand, authCommand, spotifyCommand, blogCommand, cacheCommand,
		rawCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireAPI guards commands that talk to PopHits.
func (r *Runner) requireAPI() error {
	if r.api == nil || r.manager == nil {
		return fmt.Errorf("%w: PopHits client not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// requireSignIn guards commands that need a PopHits token.
func (r *Runner) requireSignIn() error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	if !r.manager.Session().IsAuthenticated() {
		return fmt.Errorf("%w: run 'pophits auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// watchSession follows session file changes made by other pophits processes until ctx ends.
func (r *Runner) watchSession(ctx context.Context) {
	if !r.config.Session.Watch {
		return
	}
	go func() {
		if err := r.manager.Watch(ctx); err != nil {
			r.logger.Warn("session watch stopped", "error", err)
		}
	}()
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

func (r *Runner) writeRaw(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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
