package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pawprint/backend/internal/domain"
	"github.com/pawprint/backend/internal/middleware"
	"github.com/pawprint/backend/pkg/response"
	"github.com/pawprint/backend/pkg/validator"
)

type StoryHandler struct {
	storyService *domain.StoryService
	feedService  *domain.FeedService
	logger       *zap.Logger
}

func NewStoryHandler(storyService *domain.StoryService, feedService *domain.FeedService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		storyService: storyService,
		feedService:  feedService,
		logger:       logger,
	}
}

type createStoryRequest struct {
	ContentOwnerID uuid.UUID        `json:"content_owner_id"`
	Kind           domain.StoryKind `json:"kind"`
	Payload        domain.Payload   `json:"payload"`
	Origin         *domain.GeoPoint `json:"origin,omitempty"`
}

// CreateStory handles creating a new story
func (h *StoryHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req createStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if req.Origin != nil && !validator.ValidateCoordinates(req.Origin.Lat, req.Origin.Lng) {
		response.BadRequest(w, "invalid origin coordinates")
		return
	}

	story, err := h.storyService.CreateStory(r.Context(), domain.CreateStoryParams{
		AuthorID:       viewerID,
		ContentOwnerID: req.ContentOwnerID,
		Kind:           req.Kind,
		Payload:        req.Payload,
		OriginLocation: req.Origin,
	})
	if err != nil {
		if domain.IsValidation(err) {
			response.BadRequest(w, err.Error())
			return
		}
		h.logger.Error("create story failed", zap.Error(err))
		response.InternalError(w, "failed to create story")
		return
	}

	response.Created(w, story)
}

// GetFeed handles fetching the grouped story feed for the viewer
func (h *StoryHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetViewerID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	groups, err := h.feedService.ComposeGroupedFeed(r.Context(), viewerID, time.Now())
	if err != nil {
		h.logger.Error("compose feed failed", zap.String("viewer_id", viewerID.String()), zap.Error(err))
		if errors.Is(err, domain.ErrFeedUnavailable) {
			response.ServiceUnavailable(w, "feed unavailable")
			return
		}
		response.InternalError(w, "failed to get feed")
		return
	}

	if groups == nil {
		groups = []*domain.StoryGroup{}
	}
	response.OK(w, groups)
}

// RecordView marks the story viewed by the viewer. Repeat views are no-ops.
func (h *StoryHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	viewerID, storyID, ok := h.viewerAndStory(w, r)
	if !ok {
		return
	}

	story, err := h.storyService.RecordView(r.Context(), storyID, viewerID)
	if err != nil {
		h.writeEngagementError(w, err)
		return
	}
	response.OK(w, story)
}

// ToggleLike flips the viewer's like on the story
func (h *StoryHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	viewerID, storyID, ok := h.viewerAndStory(w, r)
	if !ok {
		return
	}

	liked, story, err := h.storyService.ToggleLike(r.Context(), storyID, viewerID)
	if err != nil {
		h.writeEngagementError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{
		"liked": liked,
		"story": story,
	})
}

// RecordReply counts a reply event on the story
func (h *StoryHandler) RecordReply(w http.ResponseWriter, r *http.Request) {
	_, storyID, ok := h.viewerAndStory(w, r)
	if !ok {
		return
	}

	story, err := h.storyService.RecordReply(r.Context(), storyID)
	if err != nil {
		h.writeEngagementError(w, err)
		return
	}
	response.OK(w, story)
}

// RecordShare counts a share event on the story
func (h *StoryHandler) RecordShare(w http.ResponseWriter, r *http.Request) {
	_, storyID, ok := h.viewerAndStory(w, r)
	if !ok {
		return
	}

	story, err := h.storyService.RecordShare(r.Context(), storyID)
	if err != nil {
		h.writeEngagementError(w, err)
		return
	}
	response.OK(w, story)
}

func (h *StoryHandler) viewerAndStory(w http.ResponseWriter, r *http.Request) (viewerID, storyID uuid.UUID, ok bool) {
	viewerID, authed := middleware.GetViewerID(r.Context())
	if !authed {
		response.Unauthorized(w, "not authenticated")
		return uuid.Nil, uuid.Nil, false
	}

	storyID, err := uuid.Parse(chi.URLParam(r, "storyID"))
	if err != nil {
		response.BadRequest(w, "invalid story id")
		return uuid.Nil, uuid.Nil, false
	}
	return viewerID, storyID, true
}

func (h *StoryHandler) writeEngagementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrStoryNotFound):
		response.NotFound(w, "story not found")
	case errors.Is(err, domain.ErrStoryExpired):
		response.Gone(w, "story has expired")
	default:
		h.logger.Error("engagement update failed", zap.Error(err))
		response.InternalError(w, "failed to update story")
	}
}
