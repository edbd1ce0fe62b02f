package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/chartlab/chartlab/internal/adapter/llm/openaicompat"
	"github.com/chartlab/chartlab/internal/adapter/logging"
	"github.com/chartlab/chartlab/internal/adapter/postgres/datasetrepo"
	"github.com/chartlab/chartlab/internal/adapter/postgres/executionrepo"
	"github.com/chartlab/chartlab/internal/adapter/postgres/resultrepo"
	"github.com/chartlab/chartlab/internal/adapter/redis/queue"
	"github.com/chartlab/chartlab/internal/adapter/redis/workerport"
	"github.com/chartlab/chartlab/internal/config"
	"github.com/chartlab/chartlab/internal/core/services/dataset"
	"github.com/chartlab/chartlab/internal/core/services/result"
	workersvc "github.com/chartlab/chartlab/internal/core/services/worker"
	"github.com/chartlab/chartlab/internal/domain"
	"github.com/chartlab/chartlab/internal/observability"
	"github.com/chartlab/chartlab/internal/sandbox"
	"github.com/chartlab/chartlab/internal/worker"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	logger := logging.NewZapLogger()
	defer logger.Sync()

	logger.Info("Starting chartlab worker")

	sysCfg := config.NewSystemConfig()

	db, err := setupDatabase(sysCfg.PostgresConfig)
	if err != nil {
		logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password,
		DB:       sysCfg.RedisConfig.DB,
	})
	defer redisClient.Close()

	metrics := observability.NewMetrics()

	executionRepo := executionrepo.NewExecutionRepository(db, logger)
	resultRepo := resultrepo.NewResultRepository(db, logger)
	datasetRepo := datasetrepo.NewDatasetRepository(db, logger)
	workerRegistry := workerport.NewWorkerRegistry(redisClient, logger)
	dispatcher := queue.NewDispatcher(redisClient, logger)

	resultSvc := result.NewResultService(resultRepo, logger)
	datasetSvc := dataset.NewDatasetService(datasetRepo, dispatcher, logger)
	workerSvc := workersvc.NewWorkerRegistrationService(workerRegistry, logger)

	runner, err := sandbox.NewRunner(logger, sysCfg.SandboxConfig)
	if err != nil {
		logger.Error("Failed to set up sandbox runner", "error", err)
		os.Exit(1)
	}

	var llmClient *openaicompat.Client
	if sysCfg.LLMConfig.Enabled() {
		llmClient = openaicompat.NewClient(
			sysCfg.LLMConfig.BaseURL,
			sysCfg.LLMConfig.APIKey,
			sysCfg.LLMConfig.Model,
			60*time.Second,
		)
		logger.Info("LLM provider configured", "model", sysCfg.LLMConfig.Model)
	}

	lanes := make([]domain.Lane, 0, len(sysCfg.WorkerConfig.Lanes))
	for _, lane := range sysCfg.WorkerConfig.Lanes {
		if !domain.ValidLane(lane) {
			logger.Error("Unknown lane in WORKER_LANES", "lane", lane)
			os.Exit(1)
		}
		lanes = append(lanes, domain.Lane(lane))
	}

	w := worker.New(
		dispatcher,
		lanes,
		sysCfg.WorkerConfig.Concurrency,
		logger,
		worker.WithMetrics(metrics),
		worker.WithDequeueTimeout(time.Duration(sysCfg.WorkerConfig.DequeueTimeoutSec)*time.Second),
	)

	handlers := worker.NewHandlers(
		executionRepo,
		resultSvc,
		datasetSvc,
		workerSvc,
		dispatcher,
		runner,
		llmClient,
		logger,
		metrics,
		sysCfg.SweeperConfig.ExecutionRetention,
	)
	handlers.RegisterAll(w)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registerWithServer(ctx, sysCfg.WorkerConfig, w, logger)

	go w.ReportQueueDepths(ctx, 15*time.Second)
	go serveMetrics(metrics, logger)
	go w.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	logger.Info("Worker exited")
}

// registerWithServer announces this worker to the api server and keeps
// heartbeating in the background. Registration failures are logged, not
// fatal: the worker still consumes its lanes.
func registerWithServer(ctx context.Context, cfg *config.WorkerConfig, w *worker.Worker, logger *logging.ZapLogger) {
	client := worker.NewClient(cfg.ServerURL, logger)

	hostname, _ := os.Hostname()
	laneNames := make([]string, 0, len(w.Lanes()))
	for _, lane := range w.Lanes() {
		laneNames = append(laneNames, string(lane))
	}

	info := &domain.WorkerInfo{
		ID:          w.ID,
		Lanes:       laneNames,
		Concurrency: cfg.Concurrency,
		Hostname:    hostname,
		Version:     version,
	}

	if err := client.Register(ctx, info); err != nil {
		logger.Error("Failed to register with server", "error", err)
	}

	go client.SendHeartbeats(ctx, w.ID, time.Duration(cfg.HeartbeatInterval)*time.Second, w.Load)
}

func serveMetrics(metrics *observability.Metrics, logger *logging.ZapLogger) {
	addr := getEnv("WORKER_METRICS_ADDR", ":9090")
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	logger.Info("Worker metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Worker metrics server error", "error", err)
	}
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(cfg *config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Url)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
