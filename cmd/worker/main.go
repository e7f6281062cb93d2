package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"caseintake/internal/admin"
	"caseintake/internal/config"
	"caseintake/internal/database"
	"caseintake/internal/metrics"
	"caseintake/internal/notify"
	"caseintake/internal/pdf"
	"caseintake/internal/storage"
	"caseintake/internal/store"
	"caseintake/internal/tasks"
	"caseintake/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
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

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Logger:      newAsynqLogger(logger),
	})

	users := admin.NewService(store.New(db), logger)
	notifier := notify.NewRedisPublisher(redisClient)
	renderer := pdf.ChromeRenderer{Bin: cfg.Worker.ChromeBin}

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeExportSnapshot, worker.NewExportHandler(users, storageClient, notifier, logger))
	mux.Handle(tasks.TypeSheetRender, worker.NewSheetHandler(users, renderer, storageClient, notifier, logger))

	if cfg.Worker.MetricsAddr != "" {
		go serveMetrics(cfg.Worker.MetricsAddr, logger)
	}

	logger.Info("worker service started",
		slog.String("redis_addr", cfg.Redis.Addr()),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}

// serveMetrics 暴露 asynq 任务指标供 Prometheus 抓取。
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("metrics server stopped", slog.String("addr", addr), slog.Any("error", err))
	}
}
