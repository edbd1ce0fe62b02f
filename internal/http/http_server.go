package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/chartlab/chartlab/internal/config"
	"github.com/chartlab/chartlab/internal/core/ports/primary"
	"github.com/chartlab/chartlab/internal/core/ports/secondary"
	"github.com/chartlab/chartlab/internal/core/services/dataset"
	"github.com/chartlab/chartlab/internal/core/services/execution"
	"github.com/chartlab/chartlab/internal/core/services/result"
	"github.com/chartlab/chartlab/internal/core/services/session"
	"github.com/chartlab/chartlab/internal/core/services/worker"
	"github.com/chartlab/chartlab/internal/handlers/executions"
	"github.com/chartlab/chartlab/internal/handlers/languages"
	"github.com/chartlab/chartlab/internal/handlers/results"
	"github.com/chartlab/chartlab/internal/handlers/sessions"
	"github.com/chartlab/chartlab/internal/handlers/uploads"
	"github.com/chartlab/chartlab/internal/handlers/workers"
	"github.com/chartlab/chartlab/internal/observability"
)

type ServiceProvider struct {
	executionService execution.IExecutionService
	resultService    result.IResultService
	sessionService   session.ISessionService
	datasetService   dataset.IDatasetService
	workerService    worker.IWorkerRegistrationService
	languageRepo     secondary.LanguageConfigRepository
}

func NewServiceProvider(
	executionService execution.IExecutionService,
	resultService result.IResultService,
	sessionService session.ISessionService,
	datasetService dataset.IDatasetService,
	workerService worker.IWorkerRegistrationService,
	languageRepo secondary.LanguageConfigRepository,
) *ServiceProvider {
	return &ServiceProvider{
		executionService: executionService,
		resultService:    resultService,
		sessionService:   sessionService,
		datasetService:   datasetService,
		workerService:    workerService,
		languageRepo:     languageRepo,
	}
}

type Server struct {
	router          *mux.Router
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	uploadCfg       *config.UploadConfig
	metrics         *observability.Metrics
	logger          primary.Logger
	srv             *http.Server
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, uploadCfg *config.UploadConfig, metrics *observability.Metrics, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		uploadCfg:       uploadCfg,
		metrics:         metrics,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()
	if s.metrics != nil {
		r.Use(metricsMiddleware(s.metrics))
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	executions.NewExecutionHandler(s.ServiceProvider.executionService, s.logger).RegisterRoutes(r)
	results.NewResultHandler(s.ServiceProvider.resultService, s.logger).RegisterRoutes(r)
	sessions.NewSessionHandler(s.ServiceProvider.sessionService, s.logger).RegisterRoutes(r)
	uploads.NewUploadHandler(s.ServiceProvider.datasetService, s.uploadCfg, s.logger).RegisterRoutes(r)
	workers.NewWorkerHandler(s.ServiceProvider.workerService, s.logger).RegisterRoutes(r)
	languages.NewLanguageHandler(s.ServiceProvider.languageRepo, s.logger).RegisterRoutes(r)

	r.HandleFunc("/healthz", s.Healthz).Methods("GET")

	s.router = r
	return nil
}

// Router exposes the configured routes, mainly for tests
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","service":%q}`, s.ServiceName)
}

func (s *Server) Start(ctx context.Context) {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
}

func (s *Server) Stop() {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down http server", "error", err)
	}
}

// metricsMiddleware instruments every route with request metrics, using
// the mux path template as the route label to keep cardinality bounded
func metricsMiddleware(m *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			m.Middleware(route, next).ServeHTTP(w, r)
		})
	}
}
