package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pawprint/backend/internal/api"
	"github.com/pawprint/backend/internal/auth"
	"github.com/pawprint/backend/internal/config"
	"github.com/pawprint/backend/internal/domain"
	"github.com/pawprint/backend/internal/fcm"
	"github.com/pawprint/backend/internal/repository"
	"github.com/pawprint/backend/internal/storage"
)

// expiredStoryRetention is how long expired story rows are kept before the
// cleanup worker purges them.
const expiredStoryRetention = 7 * 24 * time.Hour

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Starting PawPrint stories API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	ctx := context.Background()
	db, err := initDatabase(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to database")

	// Geo index (viewer and owner positions)
	geoIndex, err := repository.NewRedisGeoIndex(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("Failed to connect to geo index", zap.Error(err))
	}
	defer geoIndex.Close()
	logger.Info("Connected to geo index")

	repo := repository.NewPostgresRepository(db)
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	// Push notifications are optional; a missing Firebase setup only
	// disables them.
	var pusher domain.Pusher
	fcmClient, err := fcm.NewClient(ctx, logger, cfg.FCM.CredentialsFile)
	if err != nil {
		logger.Warn("Failed to initialize Firebase client - push notifications disabled", zap.Error(err))
	} else {
		logger.Info("Firebase client initialized")
		pusher = fcmClient
	}

	fileStorage, err := initStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize file storage", zap.Error(err))
	}

	// Services
	notificationService := domain.NewNotificationService(repo, repo, pusher, logger)
	eventHub := api.NewEventHub(repo, logger)

	storyService := domain.NewStoryService(repo, logger, notificationService, eventHub)
	feedService := domain.NewFeedService(repo, repo, geoIndex, domain.FeedOptions{
		NearbyRadiusKm:   cfg.Feed.NearbyRadiusKm,
		TrendingMinViews: cfg.Feed.TrendingMinViews,
		TrendingLimit:    cfg.Feed.TrendingLimit,
		TrendingCacheTTL: cfg.Feed.TrendingCacheTTL,
	}, logger)
	followService := domain.NewFollowService(repo)

	hubCtx, hubCancel := context.WithCancel(ctx)
	go eventHub.Run(hubCtx)

	// Handlers
	storyHandler := api.NewStoryHandler(storyService, feedService, logger)
	followHandler := api.NewFollowHandler(followService, logger)
	mediaHandler := api.NewMediaHandler(fileStorage, logger)
	locationHandler := api.NewLocationHandler(geoIndex, logger)
	deviceHandler := api.NewDeviceHandler(notificationService, logger)
	healthHandler := api.NewHealthHandler(db, geoIndex)

	router := api.NewRouter(storyHandler, followHandler, mediaHandler, locationHandler, deviceHandler, healthHandler, eventHub, jwtManager, logger)
	r := router.Setup()

	// Purge long-expired story rows in the background
	cleanupCtx, cleanupCancel := context.WithCancel(ctx)
	repo.StartCleanupWorker(cleanupCtx, cfg.Feed.CleanupInterval, expiredStoryRetention)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cleanupCancel()
	hubCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func initLogger() (*zap.Logger, error) {
	if os.Getenv("ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func initDatabase(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	poolCfg.MaxConns = 25
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = 1 * time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func initStorage(ctx context.Context, cfg *config.Config) (storage.FileStorage, error) {
	if cfg.Storage.Type == "s3" {
		return storage.NewS3Storage(ctx, cfg.Storage)
	}

	baseURL := fmt.Sprintf("http://localhost:%s/uploads", cfg.Server.Port)
	if cfg.IsProduction() {
		baseURL = cfg.Storage.PublicURL
	}
	return storage.NewLocalFileStorage(cfg.Storage.LocalPath, baseURL)
}
