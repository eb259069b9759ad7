// Package api provides the HTTP interface: a REST transport over core.Store,
// editor endpoints over the in-memory working set, and an SSE update stream.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/internal/notifier"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// Deps holds everything the handlers need.
type Deps struct {
	Store        core.Store
	Editor       *editor.Editor
	Notifier     *notifier.Notifier
	SessionStore sessions.Store
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
}

// SetupRoutes registers all API routes on router.
func SetupRoutes(router chi.Router, deps Deps) error {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	store := NewStoreHandlers(deps.Store, logger)
	router.Route("/api/columns", func(r chi.Router) {
		r.Get("/", store.ListColumns)
		r.Post("/", store.CreateColumn)
		r.Put("/", store.ReplaceColumns)
		r.Get("/{id}", store.GetColumn)
		r.Put("/{id}", store.UpdateColumn)
		r.Patch("/{id}", store.PatchColumn)
		r.Delete("/{id}", store.DeleteColumn)
	})
	router.Route("/api/countries", func(r chi.Router) {
		r.Get("/", store.ListCountries)
		r.Post("/", store.CreateCountry)
		r.Put("/", store.ReplaceCountries)
		r.Get("/{id}", store.GetCountry)
		r.Put("/{id}", store.UpdateCountry)
		r.Patch("/{id}", store.PatchCountry)
		r.Delete("/{id}", store.DeleteCountry)
	})

	if deps.Editor == nil {
		return nil
	}

	if deps.Notifier == nil {
		deps.Notifier = notifier.New()
	}
	h := NewEditorHandlers(deps.Editor, deps.SessionStore, deps.Notifier, logger)
	router.Route("/api/editor", func(r chi.Router) {
		r.Get("/columns", h.ListColumns)
		r.Post("/columns", h.CreateColumn)
		r.Put("/columns/{id}", h.EditColumn)
		r.Delete("/columns/{id}", h.DeleteColumn)
		r.Post("/columns/{id}/visibility", h.SetColumnVisible)

		r.Get("/countries", h.ListCountries)
		r.Post("/countries", h.CreateCountry)
		r.Put("/countries/{id}", h.EditCountry)
		r.Patch("/countries/{id}", h.PatchCountry)
		r.Delete("/countries/{id}", h.DeleteCountry)

		r.Get("/table", h.Table)
		r.Post("/sort/{key}", h.ToggleSort)
		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/updates", h.Updates)
	})

	return nil
}
