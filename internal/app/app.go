// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/program-catalog-go/internal/buildinfo"
	"github.com/garyellow/program-catalog-go/internal/catalog"
	"github.com/garyellow/program-catalog-go/internal/config"
	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	catalogmod "github.com/garyellow/program-catalog-go/internal/modules/catalog"
	programmod "github.com/garyellow/program-catalog-go/internal/modules/program"
	"github.com/garyellow/program-catalog-go/internal/modules/subscription"
	"github.com/garyellow/program-catalog-go/internal/r2client"
	"github.com/garyellow/program-catalog-go/internal/ratelimit"
	"github.com/garyellow/program-catalog-go/internal/sentry"
	"github.com/garyellow/program-catalog-go/internal/snapshot"
	"github.com/garyellow/program-catalog-go/internal/source"
	"github.com/garyellow/program-catalog-go/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	db             *storage.DB
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	snapshots      *snapshot.Manager // nil when R2 is disabled
	probeClient    *http.Client
	selector       *source.Selector
	sessions       *catalog.Registry
	limiter        *ratelimit.KeyedLimiter // nil when rate limiting is disabled
	router         *gin.Engine
	server         *http.Server
	readinessState *ReadinessState
	wg             sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	opts := logger.Options{FilePath: cfg.LogFile}
	if cfg.BetterStack.Enabled {
		opts.BetterStackToken = cfg.BetterStack.Token
	}
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, opts)

	log = log.WithField("service", cfg.ServerName)
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context() calls pick up request and session IDs.
	slog.SetDefault(log.Logger)

	build := buildinfo.Get()
	log.WithField("version", build.Version).WithField("commit", build.Commit).Info("Initializing application...")

	sentryCfg := cfg.Sentry
	if sentryCfg.Release == "" {
		sentryCfg.Release = build.Version
	}
	if err := sentry.Initialize(sentryCfg); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", sentryCfg.Environment).Info("Sentry error tracking enabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	var snapshots *snapshot.Manager
	if cfg.R2.Enabled {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2.Endpoint(),
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretAccessKey,
			BucketName:  cfg.R2.BucketName,
		})
		if err != nil {
			log.WithError(err).Warn("R2 client unavailable, serving bundled snapshot only")
		} else {
			snapshots = snapshot.New(client, cfg.R2.SnapshotKey, cfg.SnapshotDir, log, m)
			log.WithField("bucket", cfg.R2.BucketName).WithField("key", cfg.R2.SnapshotKey).Info("Snapshot distribution enabled")
		}
	}

	local := source.NewLocalLoader(os.DirFS(cfg.SnapshotDir), log, m)
	status := source.StatusIdle
	var remote source.Source
	if cfg.RemoteEnabled() {
		remote = source.NewRemoteClient(cfg.RemoteBaseURL, cfg.RemoteTimeout,
			source.WithMaxRetries(cfg.RemoteMaxRetries),
			source.WithRemoteMetrics(m))
		status = source.StatusTesting
	}
	selector := source.NewSelector(status, remote, local, log, m)

	orch := catalog.New(selector, cfg.ItemsPerPage, log, m)
	sessions := catalog.NewRegistry(orch, cfg.SessionIdleTTL, config.SessionCleanupInterval, m)

	app := &Application{
		cfg:            cfg,
		logger:         log,
		db:             db,
		metrics:        m,
		registry:       registry,
		snapshots:      snapshots,
		probeClient:    &http.Client{},
		selector:       selector,
		sessions:       sessions,
		readinessState: NewReadinessState(config.StartupGracePeriod),
	}
	if cfg.RateLimitRPM > 0 {
		app.limiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Name:              "api",
			RequestsPerMinute: float64(cfg.RateLimitRPM),
			CleanupPeriod:     config.RateLimitCleanupInterval,
			Metrics:           m,
		})
	}

	content := source.NewContentLoader(os.DirFS(cfg.ContentDir), log, m)
	app.router = app.newRouter(
		programmod.NewHandler(content, m, log),
		catalogmod.NewHandler(orch, sessions, m, log),
		subscription.NewHandler(db, m, log),
	)

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// Handler returns the HTTP handler serving every route.
func (a *Application) Handler() http.Handler {
	return a.router
}

// Run starts the HTTP server and background jobs and blocks until
// SIGINT/SIGTERM.
//
// Shutdown order: cancel background jobs, wait for them, then stop the
// HTTP server and close resources.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	errCh := a.startHTTPServer()

	select {
	case sig := <-a.waitForShutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-errCh:
		a.logger.WithError(err).Error("HTTP server stopped unexpectedly")
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startHTTPServer starts the HTTP server in a goroutine. The returned
// channel receives the error if the server fails for a reason other than
// shutdown.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func (a *Application) waitForShutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown stops accepting requests, waits for in-flight ones and closes
// resources. Call it after background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Closing resources...")
	a.sessions.Stop()
	if a.limiter != nil {
		a.limiter.Stop()
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	if !sentry.Flush(2 * time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	a.logger.Info("Shutdown complete")
	return a.logger.Close()
}

func (a *Application) newRouter(modules ...module) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsAuthEnabled, a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	api := router.Group("/", a.readinessMiddleware(), rateLimitMiddleware(a.limiter))
	for _, m := range modules {
		m.RegisterRoutes(api)
		a.logger.WithField("module", m.Name()).Debug("Module routes registered")
	}
	return router
}

// module is an HTTP feature module.
type module interface {
	Name() string
	RegisterRoutes(r gin.IRoutes)
}
