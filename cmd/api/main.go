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
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"labentry/internal/config"
	"labentry/internal/handler"
	"labentry/internal/httpmiddleware"
	"labentry/internal/labentry"
	"labentry/internal/metrics"
	"labentry/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using environment variables")
	}

	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := runHTTP(cfg, logger); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func newLogger(cfg config.App) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func runHTTP(cfg config.App, logger *slog.Logger) error {
	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checks := map[string]handler.HealthChecker{}

	entries, closeStore, err := openStore(startCtx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	var limiter httpmiddleware.Limiter
	switch {
	case !cfg.RateLimitEnabled():
		logger.Warn("rate limiting disabled", "per_min", cfg.RateLimitPerMin)
	case cfg.RateLimitBackend == "redis":
		redisClient := store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		limiter = httpmiddleware.NewRedisFixedWindow(redisClient.Client, "labentry:ratelimit", cfg.RateLimitPerMin)
		checks["redis"] = redisClient
	default:
		limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	svc := labentry.NewService(entries, cfg.Location())
	h := handler.New(svc, checks, logger)

	r := gin.New()

	r.Use(gin.Recovery())

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/healthz", "/metrics"},
	}))

	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.Use(securityHeaders())
	r.Use(metrics.GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/", httpmiddleware.GinMiddleware(limiter, logger))
	h.Register(api)

	r.StaticFile("/", filepath.Join(cfg.WebDir, "index.html"))
	r.Static("/static", filepath.Join(cfg.WebDir, "static"))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "timezone", cfg.Location().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", "error", err)
	}

	logger.Info("server exited")
	return nil
}

// openStore selects the entry store named by STORE_BACKEND and registers its
// health check. The returned func releases it.
func openStore(ctx context.Context, cfg config.App, checks map[string]handler.HealthChecker) (labentry.Store, func(), error) {
	if cfg.StoreBackend == "memory" {
		var students []labentry.Student
		if cfg.RosterFile != "" {
			f, err := os.Open(cfg.RosterFile)
			if err != nil {
				return nil, nil, err
			}
			students, err = labentry.ReadRosterCSV(f)
			_ = f.Close()
			if err != nil {
				return nil, nil, fmt.Errorf("roster %s: %w", cfg.RosterFile, err)
			}
		}
		slog.Info("using in-memory store", "students", len(students))
		return labentry.NewMemoryStore(students...), func() {}, nil
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.MigrateOnStart {
		if err := store.Migrate(ctx, db.Client); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	checks["db"] = db
	return labentry.NewRepository(db.Client), func() { _ = db.Close() }, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       24 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
