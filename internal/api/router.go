package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pawprint/backend/internal/auth"
	"github.com/pawprint/backend/internal/middleware"
)

// Router holds all handlers and creates the chi router
type Router struct {
	storyHandler    *StoryHandler
	followHandler   *FollowHandler
	mediaHandler    *MediaHandler
	locationHandler *LocationHandler
	deviceHandler   *DeviceHandler
	healthHandler   *HealthHandler
	eventHub        *EventHub
	jwtManager      *auth.JWTManager
	logger          *zap.Logger
}

// NewRouter creates a new router
func NewRouter(
	storyHandler *StoryHandler,
	followHandler *FollowHandler,
	mediaHandler *MediaHandler,
	locationHandler *LocationHandler,
	deviceHandler *DeviceHandler,
	healthHandler *HealthHandler,
	eventHub *EventHub,
	jwtManager *auth.JWTManager,
	logger *zap.Logger,
) *Router {
	return &Router{
		storyHandler:    storyHandler,
		followHandler:   followHandler,
		mediaHandler:    mediaHandler,
		locationHandler: locationHandler,
		deviceHandler:   deviceHandler,
		healthHandler:   healthHandler,
		eventHub:        eventHub,
		jwtManager:      jwtManager,
		logger:          logger,
	}
}

// Setup configures and returns the chi router
func (rt *Router) Setup() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RateLimitMiddleware(120, time.Minute, 30))
	r.Use(chimiddleware.Compress(5))

	// Health endpoints (no auth required)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", rt.healthHandler.Health)
		r.Get("/ready", rt.healthHandler.Ready)
		r.Get("/live", rt.healthHandler.Live)
	})

	// API v1 (viewer identity required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(rt.jwtManager))

		r.Route("/stories", func(r chi.Router) {
			r.Post("/", rt.storyHandler.CreateStory)
			r.Post("/{storyID}/view", rt.storyHandler.RecordView)
			r.Post("/{storyID}/like", rt.storyHandler.ToggleLike)
			r.Post("/{storyID}/reply", rt.storyHandler.RecordReply)
			r.Post("/{storyID}/share", rt.storyHandler.RecordShare)
		})

		r.Get("/feed", rt.storyHandler.GetFeed)

		r.Route("/follows", func(r chi.Router) {
			r.Get("/", rt.followHandler.Following)
			r.Post("/{authorID}", rt.followHandler.Follow)
			r.Delete("/{authorID}", rt.followHandler.Unfollow)
		})

		r.Post("/media", rt.mediaHandler.Upload)
		r.Put("/location", rt.locationHandler.UpdateLocation)
		r.Post("/devices", rt.deviceHandler.RegisterDevice)
		r.Get("/events", rt.eventHub.ServeWS)
	})

	return r
}
