package api

import (
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"

	"github.com/leapstack-labs/ratetable/internal/schema"
	"github.com/leapstack-labs/ratetable/pkg/core"
)

// StoreHandlers expose a core.Store as a plain REST resource. They enforce
// only per-entity shape; uniqueness is left to the store.
type StoreHandlers struct {
	store  core.Store
	logger *slog.Logger
}

// NewStoreHandlers creates a new StoreHandlers instance.
func NewStoreHandlers(store core.Store, logger *slog.Logger) *StoreHandlers {
	return &StoreHandlers{store: store, logger: logger}
}

// =============================================================================
// Columns
// =============================================================================

// ListColumns returns every column in storage order.
func (h *StoreHandlers) ListColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.store.ListColumns(r.Context())
	if err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "fetch columns")
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// GetColumn returns one column.
func (h *StoreHandlers) GetColumn(w http.ResponseWriter, r *http.Request) {
	col, err := h.store.GetColumn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "fetch column")
		return
	}
	writeJSON(w, http.StatusOK, col)
}

// CreateColumn stores a new column. An empty id is filled with a UUID.
func (h *StoreHandlers) CreateColumn(w http.ResponseWriter, r *http.Request) {
	var col core.ColumnDefinition
	if err := decodeBody(r, &col); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if col.ID == "" {
		col.ID = uuid.NewString()
	}
	if err := schema.Validate(col, col.ID, nil); err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "create column")
		return
	}

	created, err := h.store.CreateColumn(r.Context(), col)
	if err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "create column")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateColumn replaces the column stored under the path id. A different id
// in the body renames the column.
func (h *StoreHandlers) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	var col core.ColumnDefinition
	if err := decodeBody(r, &col); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	h.saveColumn(w, r, chi.URLParam(r, "id"), col)
}

// PatchColumn merges the body into the stored column.
func (h *StoreHandlers) PatchColumn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch map[string]any
	if err := decodeBody(r, &patch); err != nil || patch == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	current, err := h.store.GetColumn(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "update column")
		return
	}
	col := current.Clone()
	if err := MergeColumn(&col, patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	h.saveColumn(w, r, id, col)
}

func (h *StoreHandlers) saveColumn(w http.ResponseWriter, r *http.Request, id string, col core.ColumnDefinition) {
	selfID := col.ID
	if selfID == "" {
		selfID = id
	}
	if err := schema.Validate(col, selfID, nil); err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "update column")
		return
	}

	updated, err := h.store.UpdateColumn(r.Context(), id, col)
	if err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "update column")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteColumn removes a column.
func (h *StoreHandlers) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteColumn(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "delete column")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceColumns rewrites the whole column collection from {"columns": [...]}.
func (h *StoreHandlers) ReplaceColumns(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Columns *[]core.ColumnDefinition `json:"columns"`
	}
	if err := decodeBody(r, &body); err != nil || body.Columns == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	cols := *body.Columns
	for i := range cols {
		if cols[i].ID == "" {
			cols[i].ID = uuid.NewString()
		}
		if err := schema.Validate(cols[i], cols[i].ID, cols[:i]); err != nil {
			writeError(w, h.logger, err, core.EntityColumn, "update columns")
			return
		}
	}

	if err := h.store.ReplaceColumns(r.Context(), cols); err != nil {
		writeError(w, h.logger, err, core.EntityColumn, "update columns")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": cols})
}

// MergeColumn decodes a partial JSON object onto col. Keys absent from patch
// keep their value; an explicit null clears optional settings.
func MergeColumn(col *core.ColumnDefinition, patch map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		ZeroFields: true,
		Result:     col,
	})
	if err != nil {
		return err
	}
	return dec.Decode(patch)
}

// =============================================================================
// Countries
// =============================================================================

// ListCountries returns every row in storage order.
func (h *StoreHandlers) ListCountries(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListRows(r.Context())
	if err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "fetch countries")
		return
	}
	if rows == nil {
		rows = []core.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetCountry returns one row.
func (h *StoreHandlers) GetCountry(w http.ResponseWriter, r *http.Request) {
	row, err := h.store.GetRow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "fetch country")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// CreateCountry stores a new row under a fresh UUID.
func (h *StoreHandlers) CreateCountry(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	row := core.NewRow(uuid.NewString(), fields)
	if err := validateCountry(row); err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "create country")
		return
	}

	created, err := h.store.CreateRow(r.Context(), row)
	if err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "create country")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateCountry replaces the fields of a row. The id always comes from the path.
func (h *StoreHandlers) UpdateCountry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	h.saveCountry(w, r, core.NewRow(id, fields))
}

// PatchCountry merges the body into the stored row.
func (h *StoreHandlers) PatchCountry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	current, err := h.store.GetRow(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "update country")
		return
	}
	row := current.Clone()
	maps.Copy(row.Fields, fields)
	row.ID = id
	h.saveCountry(w, r, row)
}

func (h *StoreHandlers) saveCountry(w http.ResponseWriter, r *http.Request, row core.Row) {
	if err := validateCountry(row); err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "update country")
		return
	}
	updated, err := h.store.UpdateRow(r.Context(), row.ID, row)
	if err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "update country")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteCountry removes a row.
func (h *StoreHandlers) DeleteCountry(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRow(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "delete country")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceCountries rewrites the whole row collection from {"countries": [...]}.
// Rows without an id get a fresh UUID.
func (h *StoreHandlers) ReplaceCountries(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Countries *[]core.Row `json:"countries"`
	}
	if err := decodeBody(r, &body); err != nil || body.Countries == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	rows := *body.Countries
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if err := validateCountry(rows[i]); err != nil {
			writeError(w, h.logger, err, core.EntityCountry, "update countries")
			return
		}
	}

	if err := h.store.ReplaceRows(r.Context(), rows); err != nil {
		writeError(w, h.logger, err, core.EntityCountry, "update countries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"countries": rows})
}

func validateCountry(row core.Row) error {
	if strings.TrimSpace(row.Name()) == "" {
		return core.NewValidationError(core.NameKey, "Name is required")
	}
	return nil
}
