package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pawprint/backend/internal/domain"
	"github.com/pawprint/backend/internal/middleware"
	"github.com/pawprint/backend/pkg/response"
)

type DeviceHandler struct {
	notifications *domain.NotificationService
	logger        *zap.Logger
}

func NewDeviceHandler(notifications *domain.NotificationService, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{notifications: notifications, logger: logger}
}

type registerDeviceRequest struct {
	Token string `json:"token"`
}

// RegisterDevice stores a push token for the viewer's device
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		response.BadRequest(w, "missing token")
		return
	}

	if err := h.notifications.RegisterDevice(r.Context(), viewerID, req.Token); err != nil {
		h.logger.Error("register device failed", zap.Error(err))
		response.InternalError(w, "failed to register device")
		return
	}
	response.NoContent(w)
}
