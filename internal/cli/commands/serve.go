package commands

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ratetable/internal/cli/config"
	"github.com/leapstack-labs/ratetable/internal/notifier"
	"github.com/leapstack-labs/ratetable/internal/outbox"
	"github.com/leapstack-labs/ratetable/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port  int
	Watch bool
	Open  bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API and live update server",
		Long: `Start a local HTTP server exposing the table over REST.

The server provides:
- /api/columns and /api/countries for direct store access
- /api/editor for validated edits, the sorted table and the leaderboard
- /api/editor/updates, a server-sent event stream of changes
- /healthz and /metrics

Writes are persisted in the background; pending writes are flushed on
shutdown. With the json backend the data file is watched and reloaded
when it is edited outside the server.`,
		Example: `  # Start on the default port
  ratetable serve

  # Start on a custom port with a JSON data file
  ratetable serve --port 3000 --backend json --data countries.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", config.DefaultPort, "Port to serve on")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload the data file when it changes")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the API in a browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	notify := notifier.New()

	cmdCtx, cleanup, err := NewCommandContext(cmd,
		outbox.WithNotifier(notify),
		outbox.WithMetrics(outbox.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	if cfg.Server.SessionSecret == config.DefaultSessionSecret {
		r.Warning("using the default session secret; set server.session_secret or RATETABLE_SERVER_SESSION_SECRET")
	}

	srv := server.New(server.Config{
		Store:         cmdCtx.Store,
		Editor:        cmdCtx.Editor,
		Outbox:        cmdCtx.Outbox,
		Notifier:      notify,
		Gatherer:      reg,
		Port:          cfg.Server.Port,
		Watch:         cfg.Server.Watch,
		SessionSecret: cfg.Server.SessionSecret,
		Logger:        cmdCtx.Logger,
	})

	url := fmt.Sprintf("http://localhost:%d/api/editor/table", cfg.Server.Port)
	if opts.Open {
		go openBrowser(url)
	}

	r.Printf("Starting server on http://localhost:%d\n", cfg.Server.Port)
	r.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		return err
	}

	stats := cmdCtx.Outbox.Stats()
	cmdCtx.Logger.Info("server stopped", "issued", stats.Issued, "applied", stats.Applied, "failed", stats.Failed)
	return nil
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
