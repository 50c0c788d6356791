// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/eduriesgo/retencion/internal/cohort"
	"github.com/eduriesgo/retencion/internal/config"
	"github.com/eduriesgo/retencion/internal/idgen"
	"github.com/eduriesgo/retencion/internal/intervention"
	"github.com/eduriesgo/retencion/internal/logging"
	"github.com/eduriesgo/retencion/internal/metrics"
	"github.com/eduriesgo/retencion/internal/model"
	"github.com/eduriesgo/retencion/internal/ratelimit"
	"github.com/eduriesgo/retencion/internal/realtime"
	"github.com/eduriesgo/retencion/internal/scoring"
	"github.com/eduriesgo/retencion/internal/traces"
	"github.com/eduriesgo/retencion/internal/validation"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg           *config.Config
	pipeline      *model.Pipeline
	interventions intervention.Store
	realtimeHub   *realtime.Hub
	rateLimiter   *ratelimit.Limiter
	db            *sql.DB // nil if using in-memory
	router        *gin.Engine
	httpSrv       *http.Server
	logger        *slog.Logger
	tracesStop    func(context.Context) error
	cancelRunCtx  context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a new server instance. The risk pipeline is trained here,
// before any route is registered: the service never serves without a model.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	// Train the risk model on the synthetic cohort. This happens exactly
	// once; the pipeline is immutable for the process's life.
	observations := cohort.Generate(cfg.CohortSize, cfg.CohortSeed)
	pipeline, err := model.Train(observations)
	if err != nil {
		return nil, fmt.Errorf("failed to train risk model: %w", err)
	}
	s.pipeline = pipeline

	stats := pipeline.Stats()
	metrics.ModelTrainIterations.Set(float64(stats.Iterations))
	metrics.ModelFinalLoss.Set(stats.FinalLoss)
	if stats.Converged {
		s.logger.Info("risk model trained",
			"cohort_size", cfg.CohortSize,
			"seed", cfg.CohortSeed,
			"iterations", stats.Iterations,
			"log_loss", stats.FinalLoss,
		)
	} else {
		// Usable but degraded: the optimizer hit the iteration cap.
		s.logger.Warn("risk model did not fully converge, using best iterate",
			"iterations", stats.Iterations,
			"log_loss", stats.FinalLoss,
		)
	}

	// Intervention ledger (Postgres if DATABASE_URL set, otherwise in-memory)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		store := intervention.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate intervention store", "error", err)
		}
		s.interventions = store
		s.logger.Info("using PostgreSQL intervention ledger", "url", maskDSN(cfg.DatabaseURL))
	} else {
		s.interventions = intervention.NewMemoryStore()
		s.logger.Info("using in-memory intervention ledger (entries lost on restart)")
	}

	// Tracing (no-op unless an OTLP endpoint is configured)
	stop, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.tracesStop = stop
	}

	// Realtime hub for the dashboard's live intervention feed
	s.realtimeHub = realtime.NewHub(s.logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "An unexpected error occurred",
		})
	}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.RequestsPerMinute = s.cfg.RateLimitRPM
	s.rateLimiter = ratelimit.New(limiterCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = idgen.New()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// interventionEventEmitter adapts the realtime hub to intervention.EventEmitter
type interventionEventEmitter struct {
	hub *realtime.Hub
}

func (e *interventionEventEmitter) InterventionRecorded(entry *intervention.Entry) {
	e.hub.InterventionRecorded(entry)
}

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// Browser pages
	s.router.GET("/", indexPageHandler)
	s.router.GET("/dashboard", dashboardPageHandler)

	// WebSocket for the live intervention feed
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	// API info
	s.router.GET("/api", s.infoHandler)

	// Core API
	api := s.router.Group("/api")

	scoringHandler := scoring.NewHandler(s.pipeline)
	scoringHandler.RegisterRoutes(api)

	interventionHandler := intervention.NewHandler(s.interventions, s.logger).
		WithEvents(&interventionEventEmitter{s.realtimeHub})
	interventionHandler.RegisterRoutes(api)
}

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp string            `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	checks := map[string]string{
		"model": "ok",
	}
	status := "ok"
	code := http.StatusOK

	if s.pipeline == nil {
		checks["model"] = "missing"
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			checks["database"] = "unreachable"
			status = "degraded"
		} else {
			checks["database"] = "ok"
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "retencion",
		"description": "Student dropout risk scoring and intervention tracking",
		"version":     "0.1.0",
		"endpoints":   []string{"/api/predict", "/api/intervene", "/api/interventions"},
	})
}

// Run starts the server and blocks until shutdown
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.realtimeHub.Run(runCtx)

	// The pipeline was trained in New, so the service is ready as soon as
	// the listener is up.
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		cancel()
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
		return s.Shutdown()
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.healthy.Store(false)

	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("graceful shutdown failed", "error", err)
		}
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if s.tracesStop != nil {
		if err := s.tracesStop(shutdownCtx); err != nil {
			s.logger.Warn("trace exporter shutdown failed", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("database close failed", "error", err)
		}
	}

	s.logger.Info("server stopped")
	return nil
}
