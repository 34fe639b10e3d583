package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/speeddial/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
	// Data carries the result of a mutation that was applied but not persisted.
	Data any `json:"data,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// respond writes v with status on success and maps service errors otherwise.
// Store failures still return the applied result so the client can render it.
func respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err == nil {
		if v == nil {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, v)
		return
	}

	switch {
	case errors.Is(err, apperr.ErrQuotaExceeded):
		slog.Warn("store quota exceeded", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInsufficientStorage, errResponse{
			Error: "storage quota exceeded; the change is not saved (is the background image too large?)",
			Data:  v,
		})
	case errors.Is(err, apperr.ErrStoreUnavailable):
		slog.Error("store unavailable", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errResponse{
			Error: "storage unavailable; the change is not saved",
			Data:  v,
		})
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrConstraint):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrImport):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid file"))
	default:
		slog.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
