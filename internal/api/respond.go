package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps err onto a status code. entity selects the not-found
// message; action completes the generic "Failed to ..." message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, entity, action string) {
	var (
		verr *core.ValidationError
		cerr *core.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Validation failed", Fields: verr.Fields})
	case errors.As(err, &cerr):
		writeMessage(w, http.StatusConflict, cerr.Error())
	case errors.Is(err, core.ErrPinnedColumn):
		writeMessage(w, http.StatusBadRequest, "The name column cannot be deleted, renamed or hidden")
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFoundMessage(entity))
	default:
		logger.Error("request failed", "action", action, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func notFoundMessage(entity string) string {
	if entity == core.EntityColumn {
		return "Column not found"
	}
	return "Country not found"
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// decodeFields reads a flat JSON object and narrows its values to the cell
// value domain. The id key is dropped.
func decodeFields(r *http.Request) (map[string]any, error) {
	var raw map[string]any
	if err := decodeBody(r, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("body must be an object")
	}
	delete(raw, core.IDField)
	return core.NormalizeFields(raw)
}
