// Package server runs the HTTP interface together with the persistence
// worker and the data file watcher.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/ratetable/internal/api"
	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/internal/notifier"
	"github.com/leapstack-labs/ratetable/internal/outbox"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

const (
	shutdownTimeout = 5 * time.Second
	debounceDelay   = 100 * time.Millisecond
)

// Reloader is a store backed by a file that can be edited outside the
// process.
type Reloader interface {
	Path() string
	Reload() (bool, error)
}

// Server is the HTTP server.
type Server struct {
	store        core.Store
	editor       *editor.Editor
	outbox       *outbox.Outbox
	notifier     *notifier.Notifier
	sessionStore *sessions.CookieStore
	gatherer     prometheus.Gatherer
	port         int
	watch        bool
	logger       *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Store         core.Store
	Editor        *editor.Editor
	Outbox        *outbox.Outbox
	Notifier      *notifier.Notifier
	Gatherer      prometheus.Gatherer
	Port          int
	Watch         bool
	SessionSecret string
	Logger        *slog.Logger
}

// New creates a new server instance.
func New(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	notify := cfg.Notifier
	if notify == nil {
		notify = notifier.New()
	}

	return &Server{
		store:        cfg.Store,
		editor:       cfg.Editor,
		outbox:       cfg.Outbox,
		notifier:     notify,
		sessionStore: sessionStore,
		gatherer:     cfg.Gatherer,
		port:         cfg.Port,
		watch:        cfg.Watch,
		logger:       logger,
	}
}

// Handler builds the router with middleware and all routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := api.SetupRoutes(r, api.Deps{
		Store:        s.store,
		Editor:       s.editor,
		Notifier:     s.notifier,
		SessionStore: s.sessionStore,
		Gatherer:     s.gatherer,
		Logger:       s.logger,
	}); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the server and blocks until the context is cancelled.
// Queued writes are drained before it returns.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.logger.Info("starting server", "addr", ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.outbox != nil {
		eg.Go(func() error {
			return s.outbox.Run(egctx)
		})
	}

	if reloader, ok := s.store.(Reloader); ok && s.watch && s.editor != nil {
		eg.Go(func() error {
			return s.watchFile(egctx, reloader)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchFile reloads the working set when the data file changes on disk.
// The directory is watched so that editors replacing the file are seen.
func (s *Server) watchFile(ctx context.Context, reloader Reloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	path := filepath.Clean(reloader.Path())
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		s.logger.Error("failed to watch data file", "path", path, "error", err)
		// Don't fail - continue without watching
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.logger.Debug("data file changed", "file", event.Name)
				s.reload(ctx, reloader)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// reload re-reads the data file into the store and the working set. It is
// skipped while writes are queued, since the file would not reflect them yet.
// Editor mutations wait until the reload finishes.
func (s *Server) reload(ctx context.Context, reloader Reloader) {
	changed, err := s.editor.ReloadIfIdle(ctx, reloader.Reload)
	switch {
	case errors.Is(err, editor.ErrWritesPending):
		s.logger.Debug("skipping reload while writes are pending")
		return
	case err != nil:
		s.logger.Error("reload data file", "error", err)
		s.notifier.Broadcast(notifier.Event{Kind: notifier.KindError, Message: "Failed to reload data file"})
		return
	case !changed:
		return
	}

	s.logger.Info("reloaded data file", "path", reloader.Path())
	s.notifier.Broadcast(notifier.Event{Kind: notifier.KindReload})
}
