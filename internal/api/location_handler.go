package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pawprint/backend/internal/domain"
	"github.com/pawprint/backend/internal/middleware"
	"github.com/pawprint/backend/pkg/response"
	"github.com/pawprint/backend/pkg/validator"
)

// LocationStore records viewer and content-owner positions in the geo index.
type LocationStore interface {
	SetViewerLocation(ctx context.Context, viewerID uuid.UUID, loc domain.GeoPoint) error
	UpdateOwnerLocation(ctx context.Context, ownerID uuid.UUID, loc domain.GeoPoint) error
}

type LocationHandler struct {
	locations LocationStore
	logger    *zap.Logger
}

func NewLocationHandler(locations LocationStore, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{locations: locations, logger: logger}
}

type updateLocationRequest struct {
	Lat     float64    `json:"lat"`
	Lng     float64    `json:"lng"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"` // also update a pet's position
}

// UpdateLocation records the viewer's current position, and optionally one
// of their pets' position, for nearby-feed matching.
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if !validator.ValidateCoordinates(req.Lat, req.Lng) {
		response.BadRequest(w, "invalid coordinates")
		return
	}

	loc := domain.GeoPoint{Lat: req.Lat, Lng: req.Lng}
	if err := h.locations.SetViewerLocation(r.Context(), viewerID, loc); err != nil {
		h.logger.Error("set viewer location failed", zap.Error(err))
		response.InternalError(w, "failed to update location")
		return
	}

	if req.OwnerID != nil {
		if err := h.locations.UpdateOwnerLocation(r.Context(), *req.OwnerID, loc); err != nil {
			h.logger.Error("set owner location failed", zap.Error(err))
			response.InternalError(w, "failed to update location")
			return
		}
	}

	response.NoContent(w)
}
