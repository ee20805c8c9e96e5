// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/patient-checkin/camera"
	"github.com/ariebrainware/patient-checkin/config"
	"github.com/ariebrainware/patient-checkin/endpoint"
	"github.com/ariebrainware/patient-checkin/metrics"
	"github.com/ariebrainware/patient-checkin/middleware"
	"github.com/ariebrainware/patient-checkin/model"
	"github.com/ariebrainware/patient-checkin/source"
	"github.com/ariebrainware/patient-checkin/util"
	"github.com/ariebrainware/patient-checkin/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 5 * time.Second

// app bundles the long-lived parts of the kiosk service.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	ctrl    *workflow.Controller
	metrics *metrics.Collector
}

func main() {
	// Load the configuration
	cfg := config.LoadConfig()
	util.SetupLoggingWithLevel(util.LevelFromString(cfg.LogLevel))

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		slog.Error("Error connecting to database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	if err := migrate(db); err != nil {
		slog.Error("Error migrating database", "error", err)
		os.Exit(1)
	}
	util.SetCheckInLoggerDB(db)

	if _, err := config.ConnectRedis(cfg); err != nil {
		slog.Warn("Redis unavailable, rate limiting disabled", "addr", cfg.RedisAddr, "error", err)
	}

	src, err := newSource(cfg, db)
	if err != nil {
		slog.Error("Error preparing patient source", "data_source", cfg.DataSource, "error", err)
		os.Exit(1)
	}

	a := newApp(cfg, db, src, camera.NewSimulated(cfg.FaceSignature))
	defer a.ctrl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.serve(ctx); err != nil {
		slog.Error("Error running server", "error", err)
		os.Exit(1)
	}
}

func migrate(db *gorm.DB) error {
	if err := source.Migrate(db); err != nil {
		return err
	}
	return db.AutoMigrate(&model.CheckInEvent{})
}

// newSource picks the patient source named by DATA_SOURCE. The database
// source is seeded with the demo patient on first run.
func newSource(cfg *config.Config, db *gorm.DB) (source.PatientSource, error) {
	switch cfg.DataSource {
	case config.DataSourceMock:
		m := &source.Mock{Patient: source.DemoPatient(), Latency: cfg.SourceLatency}
		if cfg.MockFailure != "" {
			m.Err = errors.New(cfg.MockFailure)
		}
		return m, nil
	case config.DataSourceDatabase:
		if err := source.Seed(db, cfg.FaceSignature, source.DemoPatient()); err != nil {
			return nil, err
		}
		return source.NewStore(db, cfg.PatientCacheTTL), nil
	}
	return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
}

func newApp(cfg *config.Config, db *gorm.DB, src source.PatientSource, dev camera.Device) *app {
	a := &app{
		cfg:     cfg,
		db:      db,
		ctrl:    workflow.NewController(src, dev, workflow.Config{DetectDelay: cfg.DetectDelay, LookupTimeout: cfg.LookupTimeout}),
		metrics: metrics.New(),
	}
	a.ctrl.Subscribe(util.LogWorkflowChange)
	a.ctrl.Subscribe(a.metrics.Observe)
	return a
}

func (a *app) router() *gin.Engine {
	// Create a Gin router with default middleware
	router := gin.Default()
	router.Use(
		middleware.CORSMiddleware(),
		middleware.EndpointCallLogger(),
		middleware.DatabaseMiddleware(a.db),
		middleware.WorkflowMiddleware(a.ctrl),
		middleware.MetricsMiddleware(a.metrics),
	)

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", a.cfg.AppName),
		})
	})
	router.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	endpoint.RegisterCheckInRoutes(router, middleware.RateLimiter(middleware.RateLimitConfig{
		Limit:  a.cfg.RateLimit,
		Window: a.cfg.RateWindow,
	}))
	return router
}

// serve runs the HTTP server until ctx is canceled, then shuts it down.
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.AppPort),
		Handler: a.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "app", a.cfg.AppName, "addr", srv.Addr, "data_source", a.cfg.DataSource)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
