package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/ratetable/internal/cli/config"
	"github.com/leapstack-labs/ratetable/internal/cli/output"
	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/internal/outbox"
	"github.com/leapstack-labs/ratetable/internal/state"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    core.Store
	Outbox   *outbox.Outbox
	Editor   *editor.Editor
	Renderer *output.Renderer
}

// NewCommandContext opens the configured store and loads the working set.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, opts ...outbox.Option) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	ctx := cmd.Context()

	store, err := openStore(ctx, cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}

	ed, ob, err := newEditor(cmdCtx.Cfg, store, cmdCtx.Logger, opts...)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	if err := ed.Load(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cmdCtx.Store = store
	cmdCtx.Outbox = ob
	cmdCtx.Editor = ed

	cleanup := func() {
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a store.
// Useful for commands that don't need database access.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.Output)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Mutate runs fn against the editor with a persistence worker running, then
// waits for every queued write to reach the store. Writes still queued after
// outbox.flush_timeout, or writes the store rejected, fail the command.
func (c *CommandContext) Mutate(ctx context.Context, fn func(ed *editor.Editor) error) error {
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- c.Outbox.Run(runCtx)
	}()

	err := fn(c.Editor)

	stop()
	if runErr := <-done; runErr != nil {
		err = errors.Join(err, runErr)
	}
	if err != nil {
		return err
	}

	if stats := c.Outbox.Stats(); stats.Failed > 0 {
		return fmt.Errorf("%d of %d writes failed to persist", stats.Failed, stats.Issued)
	}
	return nil
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to defaults.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return &config.Config{
		LogLevel: config.DefaultLogLevel,
		Output:   config.DefaultOutput,
		Storage: config.StorageConfig{
			Backend: config.DefaultBackend,
		},
		Server: config.ServerConfig{
			Port:          config.DefaultPort,
			SessionSecret: config.DefaultSessionSecret,
			Watch:         true,
		},
		Ranking: config.RankingConfig{
			TopN:   config.DefaultTopN,
			Locale: config.DefaultLocale,
		},
		Outbox: config.OutboxConfig{
			FlushTimeout: config.DefaultFlushTimeout,
		},
		ProjectRoot: root,
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.Store, error) {
	stateCfg := cfg.StateConfig()

	// Ensure the data directory exists
	if stateCfg.Path != "" && stateCfg.Path != ":memory:" {
		dir := filepath.Dir(stateCfg.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	store, err := state.Open(ctx, stateCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", stateCfg.Backend, err)
	}
	logger.Debug("store opened", "backend", stateCfg.Backend, "path", stateCfg.Path)
	return store, nil
}

func newEditor(cfg *config.Config, store core.Store, logger *slog.Logger, opts ...outbox.Option) (*editor.Editor, *outbox.Outbox, error) {
	locale, err := language.Parse(cfg.Ranking.Locale)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid locale %q: %w", cfg.Ranking.Locale, err)
	}

	obOpts := append([]outbox.Option{
		outbox.WithLogger(logger),
		outbox.WithDrainTimeout(cfg.Outbox.FlushTimeout),
	}, opts...)
	ob := outbox.New(store, obOpts...)

	ed := editor.New(store, ob,
		editor.WithLogger(logger),
		editor.WithLocale(locale),
		editor.WithTopN(cfg.Ranking.TopN),
	)
	return ed, ob, nil
}
