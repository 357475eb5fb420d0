package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pawprint/backend/internal/middleware"
	"github.com/pawprint/backend/internal/storage"
	"github.com/pawprint/backend/pkg/response"
)

// maxUploadBytes bounds story media uploads.
const maxUploadBytes = 25 << 20

type MediaHandler struct {
	storage storage.FileStorage
	logger  *zap.Logger
}

func NewMediaHandler(fileStorage storage.FileStorage, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{storage: fileStorage, logger: logger}
}

// Upload stores story media and returns its public URL, for use in a
// subsequent photo/video story creation.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetViewerID(r.Context()); !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "missing file")
		return
	}
	defer file.Close()

	url, err := h.storage.SaveFile(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error("media upload failed", zap.Error(err))
		response.InternalError(w, "failed to store media")
		return
	}

	response.Created(w, map[string]string{"media_url": url})
}
