package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"caseintake/internal/admin"
	"caseintake/internal/api"
	"caseintake/internal/auth"
	"caseintake/internal/config"
	"caseintake/internal/database"
	"caseintake/internal/intake"
	"caseintake/internal/notify"
	"caseintake/internal/storage"
	"caseintake/internal/store"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.String("db", cfg.Database.Name),
	)

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	// /v1/uploads 直接写 bucket，不能依赖 worker 或首个表单提交去创建。
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		logger.Warn("ensure bucket failed", slog.String("bucket", storageClient.Bucket()), slog.Any("error", err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	tokens, err := loadTokenService(cfg.Auth)
	if err != nil {
		log.Fatalf("init token service: %v", err)
	}

	var scanner api.Scanner
	if cfg.Clamd.Addr != "" {
		scanner = api.ClamdScanner{Addr: cfg.Clamd.Addr}
	}

	records := store.New(db)
	notifier := notify.NewRedisPublisher(redisClient)

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, api.Deps{
		Intake:             intake.NewService(records, storageClient, logger),
		Admin:              admin.NewService(records, logger),
		Queue:              asynqClient,
		Uploads:            storageClient,
		Scanner:            scanner,
		Operators:          auth.NewOperators(db),
		Tokens:             tokens,
		Notifier:           notifier,
		RateCounter:        redisClient,
		Subscriber:         redisClient,
		Logger:             logger,
		MaxUploadBytes:     cfg.MinIO.MaxUploadBytes,
		IntakeLimitPerHour: cfg.API.IntakeRateLimitPerIP,
		LoginLimitPerHour:  cfg.API.LoginRateLimitPerHour,
		AllowedOrigins:     cfg.API.Origins(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api listening",
			slog.String("addr", srv.Addr),
			slog.Duration("access_token_ttl", tokens.AccessTokenTTL()),
			slog.Bool("clamd", scanner != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server forced to shutdown", slog.Any("error", err))
	}
}

func loadTokenService(cfg config.AuthConfig) (*auth.TokenService, error) {
	privateKey, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	publicKey, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return auth.NewTokenService(privateKey, publicKey, cfg.AccessTokenTTL)
}
