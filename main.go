package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jane4246/coffee-advisory/auth"
	"github.com/jane4246/coffee-advisory/config"
	"github.com/jane4246/coffee-advisory/db"
	"github.com/jane4246/coffee-advisory/diagnoses"
	"github.com/jane4246/coffee-advisory/globals"
	"github.com/jane4246/coffee-advisory/live"
	"github.com/jane4246/coffee-advisory/middleware"
	"github.com/jane4246/coffee-advisory/mq"
	"github.com/jane4246/coffee-advisory/objects"
	"github.com/jane4246/coffee-advisory/predict"
	"github.com/jane4246/coffee-advisory/ratelim"
	"github.com/jane4246/coffee-advisory/rdx"
	"github.com/jane4246/coffee-advisory/routes"
	"github.com/jane4246/coffee-advisory/tips"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}
	return cfg.Build()
}

// Set up all routes and middleware layers
func setupRouter(cfg config.AppConfig, rateLimiter *ratelim.RateLimiter, hub *live.Hub) http.Handler {
	router := httprouter.New()

	routes.AddHealthRoutes(router)
	routes.AddAuthRoutes(router, rateLimiter)
	routes.AddDiagnosisRoutes(router, rateLimiter)
	routes.AddTipRoutes(router)
	routes.AddContactRoutes(router)
	routes.AddObjectRoutes(router, rateLimiter)
	routes.AddHomeRoutes(router)
	routes.AddLiveRoutes(router, hub)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return middleware.RecoverMiddleware(middleware.LoggingMiddleware(middleware.SecurityHeaders(c.Handler(router))))
}

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	globals.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancelStart := context.WithTimeout(ctx, 15*time.Second)
	store, err := db.Open(startCtx, cfg)
	if err != nil {
		cancelStart()
		logger.Fatal("open storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	db.Store = store
	logger.Info("storage ready", zap.String("driver", cfg.StorageDriver))

	if cfg.RedisAddr != "" {
		if err := rdx.Init(startCtx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
			logger.Warn("redis unavailable, using in-process cache", zap.Error(err))
		} else {
			logger.Info("redis cache ready", zap.String("addr", cfg.RedisAddr))
		}
	}
	cancelStart()
	tips.Configure(cfg.CacheTTL)

	objectStore, err := objects.NewDiskStore(cfg.ObjectDir)
	if err != nil {
		logger.Fatal("open object store", zap.String("dir", cfg.ObjectDir), zap.Error(err))
	}
	if cfg.UploadSecret == "" {
		logger.Warn("UPLOAD_SECRET not set, upload URLs will not survive a restart")
	}
	objects.Configure(objectStore, objects.NewSigner(cfg.UploadSecret, cfg.UploadURLTTL), cfg.PublicBaseURL, cfg.MaxUploadBytes)

	if cfg.PredictURL != "" {
		diagnoses.Configure(predict.New(cfg.PredictURL, cfg.PredictTimeout))
		logger.Info("image prediction enabled", zap.String("url", cfg.PredictURL))
	} else {
		diagnoses.Configure(nil)
	}

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, sessions will not survive a restart")
	}
	auth.Configure(cfg.JWTSecret)

	hub := live.NewHub()
	go hub.Run(ctx)
	detach := hub.Attach(mq.Default, diagnoses.EventCreated)
	defer detach()

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	if err := rateLimiter.TrustProxies(cfg.TrustedProxies...); err != nil {
		logger.Fatal("invalid TRUSTED_PROXIES", zap.Error(err))
	}
	janitorStop := make(chan struct{})
	go rateLimiter.Janitor(time.Minute, janitorStop)
	defer close(janitorStop)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg, rateLimiter, hub),
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		logger.Info("cleaning up resources before shutdown")
	})

	go func() {
		logger.Info("server started", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("could not listen", zap.String("port", cfg.Port), zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("close storage", zap.Error(err))
	}
	if err := rdx.Close(); err != nil {
		logger.Error("close redis", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}
