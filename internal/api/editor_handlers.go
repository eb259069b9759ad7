package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/ratetable/internal/editor"
	"github.com/leapstack-labs/ratetable/internal/notifier"
	"github.com/leapstack-labs/ratetable/internal/ranking"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// EditorHandlers drive the in-memory working set. Mutations answer as soon
// as the working set changed; persistence follows through the outbox.
type EditorHandlers struct {
	editor       *editor.Editor
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
}

// NewEditorHandlers creates a new EditorHandlers instance.
func NewEditorHandlers(ed *editor.Editor, sessionStore sessions.Store, notify *notifier.Notifier, logger *slog.Logger) *EditorHandlers {
	return &EditorHandlers{
		editor:       ed,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
	}
}

// UpdateSignals is the payload patched into the page on every change.
type UpdateSignals struct {
	Event       notifier.Event     `json:"event"`
	Pending     bool               `json:"pending"`
	Table       editor.Table       `json:"table"`
	Leaderboard []ranking.Standing `json:"leaderboard"`
}

// =============================================================================
// Columns
// =============================================================================

// ListColumns returns the working set's columns.
func (h *EditorHandlers) ListColumns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.editor.Columns())
}

// CreateColumn adds a column and fills every row with its default.
func (h *EditorHandlers) CreateColumn(w http.ResponseWriter, r *http.Request) {
	var def core.ColumnDefinition
	if err := decodeBody(r, &def); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	col, err := h.editor.CreateColumn(def)
	if err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "create column")
		return
	}
	writeJSON(w, http.StatusCreated, col)
}

// EditColumn replaces a column definition.
func (h *EditorHandlers) EditColumn(w http.ResponseWriter, r *http.Request) {
	var def core.ColumnDefinition
	if err := decodeBody(r, &def); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	col, err := h.editor.EditColumn(chi.URLParam(r, "id"), def)
	if err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "update column")
		return
	}
	writeJSON(w, http.StatusOK, col)
}

// DeleteColumn removes a column and its values.
func (h *EditorHandlers) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	if _, err := h.editor.DeleteColumn(chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "delete column")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetColumnVisible handles {"visible": bool}.
func (h *EditorHandlers) SetColumnVisible(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeBody(r, &body); err != nil || body.Visible == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	col, err := h.editor.SetColumnVisible(chi.URLParam(r, "id"), *body.Visible)
	if err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "update column")
		return
	}
	writeJSON(w, http.StatusOK, col)
}

// =============================================================================
// Countries
// =============================================================================

// ListCountries returns the working set's rows in storage order.
func (h *EditorHandlers) ListCountries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.editor.Rows())
}

// CreateCountry validates and appends a row.
func (h *EditorHandlers) CreateCountry(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	row, err := h.editor.CreateRow(fields)
	if err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "create country")
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

// EditCountry replaces a row's fields.
func (h *EditorHandlers) EditCountry(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	row, err := h.editor.EditRow(chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "update country")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// PatchCountry merges fields into a row.
func (h *EditorHandlers) PatchCountry(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	row, err := h.editor.PatchRow(chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "update country")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// DeleteCountry removes a row.
func (h *EditorHandlers) DeleteCountry(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.DeleteRow(chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "delete country")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Views
// =============================================================================

// Table renders the table in the session's sort order, or in the order given
// by ?sort=<key>&dir=asc|desc.
func (h *EditorHandlers) Table(w http.ResponseWriter, r *http.Request) {
	state := sortFromQuery(r, sortFromSession(h.sessionStore, r))
	writeJSON(w, http.StatusOK, h.editor.Table(state))
}

// ToggleSort advances the session's sort state for the clicked column and
// returns the re-sorted table.
func (h *EditorHandlers) ToggleSort(w http.ResponseWriter, r *http.Request) {
	current := sortFromSession(h.sessionStore, r)
	next, err := h.editor.ToggleSort(current, chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "sort table")
		return
	}
	if err := saveSort(h.sessionStore, w, r, next); err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "save sort")
		return
	}
	writeJSON(w, http.StatusOK, h.editor.Table(next))
}

// Leaderboard returns the standings over the visible columns.
func (h *EditorHandlers) Leaderboard(w http.ResponseWriter, _ *http.Request) {
	board := h.editor.Leaderboard()
	if board == nil {
		board = []ranking.Standing{}
	}
	writeJSON(w, http.StatusOK, board)
}

// Updates is the long-lived SSE endpoint. It sends nothing until a change is
// broadcast, then patches the table and leaderboard signals.
func (h *EditorHandlers) Updates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	state := sortFromSession(h.sessionStore, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			signals := UpdateSignals{
				Event:       ev,
				Pending:     h.editor.Pending(),
				Table:       h.editor.Table(state),
				Leaderboard: h.editor.Leaderboard(),
			}
			if err := sse.MarshalAndPatchSignals(signals); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}
