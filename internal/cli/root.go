// Package cli is the command line surface: with no subcommand it starts the
// TUI, otherwise it runs one operation synchronously and prints the result.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"thronemind/internal/api"
	"thronemind/internal/config"
	"thronemind/internal/db"
	"thronemind/internal/logging"
	"thronemind/internal/models"
	"thronemind/internal/session"
	"thronemind/internal/state"
	"thronemind/internal/store"
	"thronemind/internal/ui"
	"thronemind/internal/voice"
)

var (
	errNotSignedIn     = errors.New("not signed in; run `thronemind login <email>` first")
	errSessionEnded    = errors.New("session ended: the server rejected the stored credentials")
	errMissingArgument = errors.New("missing argument")
)

// App holds the flags and the services every command shares.
type App struct {
	ConfigPath string
	Origin     string
	JSON       bool

	cfg     *config.Config
	conn    *sql.DB
	logs    io.Closer
	session *session.Store
	client  *api.Client
	store   *store.Store
	voice   voice.Recognizer
}

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "thronemind",
		Short:        "ThroneMind productivity assistant (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  thronemind

  # Sign in and talk to the assistant from scripts
  thronemind login ana@example.com
  thronemind act "remind me to call the bank tomorrow"
  thronemind summary --with-prompts
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return app.runTUI()
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("THRONEMIND_CONFIG", ""), "Path to config.yaml (default: <user config dir>/thronemind/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.Origin, "origin", "", "API origin, overrides config (e.g. http://localhost:8083)")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print results as JSON")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newImproveCmd(app))
	cmd.AddCommand(newPromptsCmd(app))
	cmd.AddCommand(newActCmd(app))
	cmd.AddCommand(newOptimizeCmd(app))
	cmd.AddCommand(newTaskStatusCmd(app))
	cmd.AddCommand(newSummaryCmd(app))

	return cmd
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &App{}
	defer app.Close()
	return NewRootCmd(app).ExecuteContext(ctx)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// open loads configuration and wires storage, session, transport and store.
func (a *App) open() error {
	if a.store != nil {
		return nil
	}
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	if a.Origin != "" {
		cfg.APIOrigin = a.Origin
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	if a.logs, err = logging.Setup(cfg.LogPath(), cfg.LogLevel); err != nil {
		logging.Discard()
	}

	conn, err := db.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.conn = conn

	a.session = session.New(db.KV{DB: conn}, cfg.APIOrigin)
	a.session.Rehydrate()
	a.session.SetNavigator(session.NavigatorFunc(func(r models.Route) {
		if r == models.RouteLogin {
			fmt.Fprintln(os.Stderr, "Sign in again with `thronemind login <email>`.")
		}
	}))

	a.client = api.New(cfg.BaseURL(), cfg.Timeout, a.session)
	var owner string
	if p, ok := a.session.Profile(); ok {
		owner = p.Email
	}
	a.store = store.New(a.client, store.WithDB(conn), store.WithOwner(owner))
	a.voice = voice.NewCommandRecognizer(cfg.VoiceCommand, cfg.Locale)

	log.Info().Str("origin", cfg.APIOrigin).Bool("authenticated", a.session.Authenticated()).Msg("started")
	return nil
}

func (a *App) Close() {
	if a.conn != nil {
		_ = a.conn.Close()
		a.conn = nil
	}
	if a.logs != nil {
		_ = a.logs.Close()
		a.logs = nil
	}
}

func (a *App) runTUI() error {
	p, _ := ui.NewProgram(ui.Deps{
		Session: a.session,
		Auth:    a.client,
		Store:   a.store,
		Voice:   a.voice,
	})
	_, err := p.Run()
	return err
}

func (a *App) requireSession() error {
	if !a.session.Authenticated() {
		return errNotSignedIn
	}
	return nil
}

// run drives a started request to completion. A failure is reported with
// the message the request recorded, which already falls back to a generic
// one when the server sent none.
func run(ctx context.Context, r state.Runner, startErr error, failed func() string) error {
	if startErr != nil {
		return startErr
	}
	return failure(state.Do(ctx, r), failed)
}

func failure(err error, failed func() string) error {
	switch {
	case err == nil:
		return nil
	case api.IsUnauthorized(err):
		return errSessionEnded
	}
	if msg := failed(); msg != "" {
		return errors.New(msg)
	}
	return err
}

// print writes v as JSON when --json is set, otherwise calls text.
func (a *App) print(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
