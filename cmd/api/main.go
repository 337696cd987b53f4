package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/probing-go-api/internal/config"
	"github.com/noah-isme/probing-go-api/internal/database"
	"github.com/noah-isme/probing-go-api/internal/handler"
	"github.com/noah-isme/probing-go-api/internal/middleware"
	"github.com/noah-isme/probing-go-api/internal/repository"
	"github.com/noah-isme/probing-go-api/internal/router"
	"github.com/noah-isme/probing-go-api/internal/service"
	cloud "github.com/noah-isme/probing-go-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, drafts and sign-outs are kept in memory")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	var exportStorage service.FileStorage
	if cfg.CloudinaryEnabled() {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryExportFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		exportStorage = uploader
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	admins := service.NewAdminPolicy(cfg.AdminUIDs)
	events := service.NewNATSPublisher(natsConn, cfg.EventSubjectBase, logger)

	drafts := service.NewMemoryDraftStore()
	revoker := service.NewMemoryTokenRevoker()
	if redisClient != nil {
		drafts = service.NewRedisDraftStore(redisClient, cfg.DraftTTL)
		revoker = service.NewRedisTokenRevoker(redisClient)
	}

	userRepo := repository.NewUserRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	registryService := service.NewUserRegistryService(userRepo, events, validate, service.NewCodeGenerator(nil), cfg.ImportMaxSizeKB, logger)
	settingsService := service.NewSettingsService(settingsRepo, redisClient, cfg.SettingsCacheTTL, logger)
	featureGate := service.NewFeatureGate(settingsService, admins, logger)
	sessionService := service.NewSessionService(registryService, revoker, admins, logger)
	workspaceService := service.NewWorkspaceService(submissionRepo, drafts, events, validate, logger)
	reviewService := service.NewReviewService(submissionRepo, userRepo, events, logger)
	exportService := service.NewExportService(submissionRepo, userRepo, exportStorage, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.ImportMaxSizeKB + 64) * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SessionHandler:   handler.NewSessionHandler(sessionService, registryService, logger),
		SettingsHandler:  handler.NewSettingsHandler(settingsService, featureGate, logger),
		AdminUserHandler: handler.NewAdminUserHandler(registryService, logger),
		WorkspaceHandler: handler.NewWorkspaceHandler(workspaceService, logger),
		ReviewHandler:    handler.NewReviewHandler(reviewService, exportService, logger),
		Workflows:        service.DefaultWorkflows(),
		FeatureGate:      featureGate,
		Admins:           admins,
		AuthMiddleware: middleware.Authenticate(middleware.AuthConfig{
			Secret:   cfg.JWTSecret,
			Revoked:  revoker,
			Redirect: cfg.LandingPath,
			Logger:   logger,
		}),
		LinkRateLimiter: middleware.RateLimit("link", cfg.LinkRateLimit, cfg.LinkRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
