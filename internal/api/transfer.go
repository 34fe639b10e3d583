package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starford/speeddial/internal/checksum"
)

const maxImportBytes = 10 << 20

// Export handles GET /api/export and serves the native backup as a download.
// A matching If-None-Match yields 304.
//
//	@Summary	Download a native backup
//	@Tags		transfer
//	@Produce	json
//	@Success	200	{object}	transfer.Document
//	@Security	BearerAuth
//	@Router		/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Export(r.Context())
	if err != nil {
		respond(w, r, http.StatusOK, nil, err)
		return
	}
	etag := checksum.ETag(data)
	w.Header().Set("ETag", etag)
	if checksum.Matches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	name := fmt.Sprintf("speeddial-backup-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/import. The body is a native backup or a legacy
// export; ?format=native|legacy skips detection.
//
//	@Summary	Restore a backup or migrate a legacy export
//	@Tags		transfer
//	@Accept		json
//	@Produce	json
//	@Param		format	query		string	false	"Document format"	Enums(native, legacy)
//	@Success	200		{object}	state.State
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	switch r.URL.Query().Get("format") {
	case "native":
		err = h.svc.ImportNative(r.Context(), data)
	case "legacy":
		err = h.svc.ImportLegacy(r.Context(), data)
	case "":
		err = h.svc.Import(r.Context(), data)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("format must be native or legacy"))
		return
	}
	respond(w, r, http.StatusOK, h.svc.Snapshot(r.Context()), err)
}
