package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/config"
	"github.com/noah-isme/lira-intern-api/internal/database"
	"github.com/noah-isme/lira-intern-api/internal/handler"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/repository"
	"github.com/noah-isme/lira-intern-api/internal/router"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/pkg/ai"
	cloud "github.com/noah-isme/lira-intern-api/pkg/cloudinary"
)

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "run database migrations before serving")
	return cmd
}

func serve(parent context.Context, cfg config.Config, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(ctx, cfg.DatabaseURL, poolOptions(cfg), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; caching and cross-node fan-out disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer natsConn.Close()
	}

	var storage service.FileStorage
	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("cloudinary not configured; uploads disabled")
	} else {
		storage = uploader
	}

	var chatCompleter ai.ChatCompleter
	chatClient, err := ai.NewChatClient(ai.ChatConfig{
		Provider:  cfg.AIProvider,
		APIKey:    cfg.AssistantAPIKey(),
		Model:     cfg.AIModel,
		MaxTokens: cfg.AIMaxTokens,
		Timeout:   cfg.AITimeout,
		Logger:    logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("assistant provider not configured")
	} else {
		chatCompleter = chatClient
	}

	var generator service.Generator
	hfClient, err := ai.NewHuggingFaceClient(ai.HuggingFaceConfig{
		Token:   cfg.HuggingFaceToken,
		BaseURL: cfg.HuggingFaceBaseURL,
		Timeout: cfg.AITimeout,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("inference provider not configured")
	} else {
		generator = ai.NewRouter(hfClient, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	deps := wire(ctx, cfg, db, redisClient, natsConn, storage, chatCompleter, generator, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})
	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("http server listening")
		errCh <- app.Listen(cfg.HTTPAddress())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func wire(
	ctx context.Context,
	cfg config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	natsConn *nats.Conn,
	storage service.FileStorage,
	chatCompleter ai.ChatCompleter,
	generator service.Generator,
	validate *validator.Validate,
	logger zerolog.Logger,
) router.Dependencies {
	activityRepo := repository.NewActivityRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reviewLogRepo := repository.NewReviewLogRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)
	reviewLogService := service.NewReviewLogService(reviewLogRepo, logger)
	uploadService := service.NewUploadService(storage, cfg.UploadMaxSizeMB, logger)

	activityService := service.NewActivityService(activityRepo, commentRepo, profileRepo, notificationService, reviewLogService, validate, logger)
	commentService := service.NewCommentService(commentRepo, activityRepo, profileRepo, notificationService, validate, logger)
	channelService := service.NewChannelService(channelRepo, reviewLogService, validate, logger)
	chatService := service.NewChatService(channelRepo, messageRepo, profileRepo, uploadService, notificationService, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)
	profileService := service.NewProfileService(profileRepo, departmentRepo, activityRepo, uploadService, notificationService, validate, logger)
	departmentService := service.NewDepartmentService(departmentRepo, reviewLogService, validate, logger)
	reportService := service.NewReportService(activityRepo, attendanceRepo, profileRepo, reviewLogService, validate, logger)
	dashboardService := service.NewDashboardService(activityRepo, profileRepo, departmentRepo, channelRepo, notificationRepo, redisClient, cfg.DashboardCacheTTL, logger)
	aggregator := service.NewContextAggregator(activityRepo, profileRepo, departmentRepo, commentRepo, logger)
	assistantService := service.NewAssistantService(aggregator, chatCompleter, logger)
	generationService := service.NewGenerationService(generator, logger)
	seedService := service.NewSeedService(departmentRepo, profileRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	notificationService.Start(ctx)
	chatService.Start(ctx)

	probes := []handler.HealthProbe{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if redisClient != nil {
		probes = append(probes, handler.HealthProbe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	return router.Dependencies{
		ActivityHandler:     handler.NewActivityHandler(activityService, commentService, validate, logger),
		ChannelHandler:      handler.NewChannelHandler(channelService, chatService, validate, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.SSEKeepAlive),
		ProfileHandler:      handler.NewProfileHandler(profileService, validate, logger),
		DepartmentHandler:   handler.NewDepartmentHandler(departmentService, logger),
		ReportHandler:       handler.NewReportHandler(reportService, dashboardService, logger),
		ReviewLogHandler:    handler.NewReviewLogHandler(reviewLogService, logger),
		FunctionHandler:     handler.NewFunctionHandler(assistantService, generationService, logger),
		SeedHandler:         handler.NewSeedHandler(seedService, logger),
		HealthProbes:        probes,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		FunctionJWTMiddleware: middleware.JWTProtected(cfg.JWTSecret,
			middleware.OnUnauthorized(handler.FunctionUnauthorized)),
	}
}
