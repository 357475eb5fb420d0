package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pawprint/backend/internal/domain"
	"github.com/pawprint/backend/internal/middleware"
	"github.com/pawprint/backend/pkg/response"
)

type FollowHandler struct {
	followService *domain.FollowService
	logger        *zap.Logger
}

func NewFollowHandler(followService *domain.FollowService, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{followService: followService, logger: logger}
}

// Follow makes the viewer follow an author
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	viewerID, authorID, ok := h.viewerAndAuthor(w, r)
	if !ok {
		return
	}

	if err := h.followService.Follow(r.Context(), viewerID, authorID); err != nil {
		h.logger.Error("follow failed", zap.Error(err))
		response.BadRequest(w, err.Error())
		return
	}
	response.NoContent(w)
}

// Unfollow removes the viewer's follow of an author
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	viewerID, authorID, ok := h.viewerAndAuthor(w, r)
	if !ok {
		return
	}

	if err := h.followService.Unfollow(r.Context(), viewerID, authorID); err != nil {
		h.logger.Error("unfollow failed", zap.Error(err))
		response.InternalError(w, "failed to unfollow")
		return
	}
	response.NoContent(w)
}

// Following lists the author ids the viewer follows
func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	ids, err := h.followService.Following(r.Context(), viewerID)
	if err != nil {
		h.logger.Error("following lookup failed", zap.Error(err))
		response.InternalError(w, "failed to list follows")
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	response.OK(w, ids)
}

func (h *FollowHandler) viewerAndAuthor(w http.ResponseWriter, r *http.Request) (viewerID, authorID uuid.UUID, ok bool) {
	viewerID, authed := middleware.GetViewerID(r.Context())
	if !authed {
		response.Unauthorized(w, "not authenticated")
		return uuid.Nil, uuid.Nil, false
	}

	authorID, err := uuid.Parse(chi.URLParam(r, "authorID"))
	if err != nil {
		response.BadRequest(w, "invalid author id")
		return uuid.Nil, uuid.Nil, false
	}
	return viewerID, authorID, true
}
