package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"communityhub/internal/adapter/api"
	"communityhub/internal/adapter/api/handler"
	apimiddleware "communityhub/internal/adapter/api/middleware"
	"communityhub/internal/adapter/api/router"
	"communityhub/internal/adapter/repository"
	"communityhub/internal/infrastructure/firebase"
	"communityhub/internal/infrastructure/notification"
	"communityhub/internal/infrastructure/presence"
	"communityhub/internal/infrastructure/ratelimit"
	"communityhub/internal/infrastructure/storage"
	"communityhub/internal/infrastructure/websocket"
	"communityhub/internal/metrics"
	"communityhub/internal/usecase"
	"communityhub/migrations"
	"communityhub/pkg/config"
	"communityhub/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opt option.ClientOption
	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))
	} else {
		if _, err := os.Stat(cfg.FirebaseServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.FirebaseServiceAccountPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Messaging: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	pool, err := repository.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DatabaseSchema)
	if err != nil {
		log.Fatalf("Failed to connect to ledger database: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := repository.ApplyMigrations(ctx, pool, migrations.Files); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("Ledger migrations applied")
	}

	redisClient := presence.NewClient(presence.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		UseTLS:   cfg.RedisTLS,
	})
	presenceTracker := presence.NewTracker(redisClient, time.Duration(cfg.PresenceTTL)*time.Second)
	defer presenceTracker.Close()

	if err := presenceTracker.Ping(ctx); err != nil {
		logger.Warn("Redis unavailable, presence will read as offline: %v", err)
	}

	var attachments usecase.AttachmentStore
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		attachments = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET not set, attachment uploads are disabled")
	}

	appMetrics := metrics.Registry(cfg.MetricsNamespace)

	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)
	walletRepo := repository.NewPostgresWalletRepository(pool)
	referralRepo := repository.NewPostgresReferralRepository(pool)

	wsManager := websocket.NewManager(appMetrics)
	wsManager.Start(ctx)

	rateLimiter := ratelimit.NewRateLimiter(nil)
	rateLimiter.StartCleanupRoutine(ctx, 10*time.Minute)

	dispatcher := notification.NewDispatcher(notificationRepo, userRepo, messagingClient)

	unreadUseCase := usecase.NewUnreadUseCase(messageRepo, chatRepo, wsManager, appMetrics)
	participantUseCase := usecase.NewParticipantUseCase(chatRepo, userRepo, presenceTracker)
	realtimeUseCase := usecase.NewRealtimeUseCase(chatRepo, userRepo, presenceTracker, unreadUseCase)
	chatUseCase := usecase.NewChatUseCase(usecase.ChatDependencies{
		ChatRepo:    chatRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
		Realtime:    wsManager,
		Attachments: attachments,
		RateLimiter: rateLimiter,
		Metrics:     appMetrics,
	})
	walletUseCase := usecase.NewWalletUseCase(walletRepo, referralRepo, rateLimiter, appMetrics, cfg.ReferralBaseURL, cfg.Currency)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.RateLimit(rateLimiter))

	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.ErrorHandler

	authMiddleware := apimiddleware.NewAuthMiddleware(firebase.NewFirebaseAuthClient(authClient, cfg.AuthCheckRevoked))

	handlers := router.Handlers{
		Chat:      handler.NewChatHandler(chatUseCase, participantUseCase),
		Unread:    handler.NewUnreadHandler(unreadUseCase),
		Wallet:    handler.NewWalletHandler(walletUseCase),
		WebSocket: handler.NewWebSocketHandler(wsManager, realtimeUseCase, cfg.WSAllowedOrigins),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": pool.Ping,
			"redis":    presenceTracker.Ping,
		}),
	}
	router.Setup(e, handlers, authMiddleware, prometheus.DefaultGatherer)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error: %v", err)
	}
}
