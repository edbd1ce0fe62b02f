package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/chartlab/chartlab/internal/adapter/logging"
	"github.com/chartlab/chartlab/internal/adapter/postgres/datasetrepo"
	"github.com/chartlab/chartlab/internal/adapter/postgres/executionrepo"
	"github.com/chartlab/chartlab/internal/adapter/postgres/languageconfig"
	"github.com/chartlab/chartlab/internal/adapter/postgres/resultrepo"
	"github.com/chartlab/chartlab/internal/adapter/postgres/sessionrepo"
	"github.com/chartlab/chartlab/internal/adapter/redis/queue"
	"github.com/chartlab/chartlab/internal/adapter/redis/workerport"
	"github.com/chartlab/chartlab/internal/config"
	"github.com/chartlab/chartlab/internal/core/services/dataset"
	"github.com/chartlab/chartlab/internal/core/services/execution"
	"github.com/chartlab/chartlab/internal/core/services/result"
	"github.com/chartlab/chartlab/internal/core/services/session"
	"github.com/chartlab/chartlab/internal/core/services/worker"
	httpserver "github.com/chartlab/chartlab/internal/http"
	"github.com/chartlab/chartlab/internal/observability"
	"github.com/chartlab/chartlab/internal/pipeline"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logger := logging.NewZapLogger()
	defer logger.Sync()

	logger.Info("Starting chartlab api server")

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

	// SECONDARY PORTS
	executionRepo := executionrepo.NewExecutionRepository(db, logger)
	resultRepo := resultrepo.NewResultRepository(db, logger)
	sessionRepo := sessionrepo.NewSessionRepository(db, logger)
	datasetRepo := datasetrepo.NewDatasetRepository(db, logger)
	languageRepo := languageconfig.NewLanguageConfigRepository(db, logger)
	workerRegistry := workerport.NewWorkerRegistry(redisClient, logger)
	dispatcher := queue.NewDispatcher(redisClient, logger)

	// SERVICES
	executionSvc := execution.NewExecutionService(executionRepo, languageRepo, dispatcher, logger)
	resultSvc := result.NewResultService(resultRepo, logger)
	sessionSvc := session.NewSessionService(sessionRepo, dispatcher, logger)
	datasetSvc := dataset.NewDatasetService(datasetRepo, dispatcher, logger)
	workerSvc := worker.NewWorkerRegistrationService(workerRegistry, logger)

	serviceProvider := httpserver.NewServiceProvider(
		executionSvc, resultSvc, sessionSvc, datasetSvc, workerSvc, languageRepo,
	)

	server := httpserver.NewServer(
		sysCfg.ServerConfig.Port,
		sysCfg.ServerConfig.ServiceName,
		*serviceProvider,
		sysCfg.UploadConfig,
		metrics,
		logger,
	)
	if err := server.Init(); err != nil {
		logger.Error("Failed to init http server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server.Start(ctx)

	sweeper := pipeline.NewSweeper(sysCfg.SweeperConfig, executionRepo, dispatcher, logger)
	go sweeper.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()
	server.Stop()
	logger.Info("Server exited")
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
