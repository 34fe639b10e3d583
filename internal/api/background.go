package api

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/starford/speeddial/internal/dashboard"
)

// multipart overhead on top of the image itself
const maxUploadBytes = dashboard.MaxBackgroundImageBytes + 1<<20

// UploadBackground handles POST /api/settings/background (multipart/form-data,
// field "file"). The image is embedded into settings as a data URL.
//
//	@Summary	Set the background image
//	@Tags		settings
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Image"
//	@Success	200		{object}	models.Settings
//	@Failure	422		{object}	errResponse	"Not an image or too large"
//	@Failure	507		{object}	errResponse	"Store quota exceeded"
//	@Security	BearerAuth
//	@Router		/settings/background [post]
func (h *Handler) UploadBackground(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	s, err := h.svc.SetBackgroundImage(r.Context(), imageType(header.Header.Get("Content-Type"), header.Filename, data), data)
	respond(w, r, http.StatusOK, s, err)
}

// ClearBackground handles DELETE /api/settings/background.
func (h *Handler) ClearBackground(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.ClearBackgroundImage(r.Context())
	respond(w, r, http.StatusOK, s, err)
}

// imageType picks the declared part type, then the file extension, then sniffs.
func imageType(declared, filename string, data []byte) string {
	if t, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(t, "image/") {
		return t
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); strings.HasPrefix(t, "image/") {
		t, _, _ = strings.Cut(t, ";")
		return t
	}
	t, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return t
}
