package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"earn-service/config"
	"earn-service/handlers"
	"earn-service/middleware"
	"earn-service/models"
	"earn-service/services"
	"earn-service/utils"
	"earn-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.IsProduction())
	if err != nil {
		log.Fatalf("❌ failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	scheduler, err := services.NewScheduler(ctx, logger)
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}

	// --- Outbound integrations (all optional except prices) ---
	prices := services.NewPriceClient(cfg.PriceAPIURL, cfg.PriceAPIKey)
	emails := services.NewEmailQueue(db)
	notifier := services.NewNotifier(db, logger, emails, cfg.FrontendURL)

	if cfg.DiscordWinnersWebhook != "" {
		notifier.Chat = services.NewDiscordClient(cfg.DiscordWinnersWebhook)
	} else {
		logger.Warn("⚠️ DISCORD_WINNERS_WEBHOOK not set, winner announcements will not be posted to chat")
	}
	if cfg.SyncServiceURL != "" {
		notifier.Sync = services.NewSyncClient(cfg.SyncServiceURL, cfg.SyncServiceToken)
	}
	if cfg.R2Enabled() {
		store, err := utils.NewR2Store(ctx, cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2AccessKeySecret, cfg.R2Bucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		notifier.Store = store
	}

	listingService := services.NewListingService(db, logger, prices)
	submissionService := services.NewSubmissionService(db, logger)
	announceService := services.NewAnnounceService(db, logger, prices, notifier, scheduler)

	// --- Background jobs ---
	if err := scheduler.Every("publish-scheduled-listings", time.Minute, listingService.PublishScheduled); err != nil {
		logger.Fatal("failed to schedule publish sweep", zap.Error(err))
	}
	if cfg.EmailAPIKey != "" {
		sender := workers.NewResendSender(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom)
		emailWorker := workers.NewEmailWorker(db, sender, logger, cfg.FrontendURL)
		if err := scheduler.Every("email-drain", cfg.EmailPollInterval, emailWorker.Drain); err != nil {
			logger.Fatal("failed to schedule e-mail worker", zap.Error(err))
		}
	} else {
		logger.Warn("⚠️ EMAIL_API_KEY not set, queued e-mails will not be sent")
	}
	if cfg.SyncServiceURL != "" {
		profileSync := workers.NewProfileSyncWorker(db, logger, cfg.SyncServiceURL, cfg.SyncServiceToken)
		scheduler.Run("profile-sync-backfill", profileSync.Sync)
		if err := scheduler.Every("profile-sync", cfg.ProfileSyncInterval, profileSync.Sync); err != nil {
			logger.Fatal("failed to schedule profile sync", zap.Error(err))
		}
	} else {
		logger.Warn("⚠️ SYNC_SERVICE_URL not set, user profiles will not be mirrored")
	}
	scheduler.Start()

	// --- HTTP ---
	app := fiber.New(fiber.Config{
		AppName:      "earn-service",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupListingRoutes(app, middleware.UserContextMiddleware(logger), listingService, submissionService, announceService)

	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	logger.Info("✅ Server running", zap.String("addr", cfg.Addr()), zap.Strings("cors_origins", cfg.AllowedOrigins))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := scheduler.Shutdown(); err != nil {
		logger.Error("scheduler shutdown failed", zap.Error(err))
	}
}
