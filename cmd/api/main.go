package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/justsurfingit/job-success-tracker/internal/auth"
	"github.com/justsurfingit/job-success-tracker/internal/cache"
	"github.com/justsurfingit/job-success-tracker/internal/config"
	"github.com/justsurfingit/job-success-tracker/internal/database"
	"github.com/justsurfingit/job-success-tracker/internal/handlers"
	"github.com/justsurfingit/job-success-tracker/internal/logger"
	"github.com/justsurfingit/job-success-tracker/internal/middleware"
	"github.com/justsurfingit/job-success-tracker/internal/repository"
	"github.com/justsurfingit/job-success-tracker/internal/routes"
	"github.com/justsurfingit/job-success-tracker/internal/scoring"
	"github.com/justsurfingit/job-success-tracker/internal/services"
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	store, err := buildStore(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}

	var extractionCache cache.Cache = cache.Nop{}
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, extraction cache disabled")
		} else {
			defer rdb.Close()
			extractionCache = cache.NewRedisCache(rdb)
		}
	}

	// 3. Core services
	factors, err := scoring.NewFactorSource(cfg.Scoring.FactorMode)
	if err != nil {
		log.WithError(err).Fatal("invalid scoring factor mode")
	}
	engine := scoring.NewEngine(scoring.WithFactorSource(factors))

	var llmService *services.LLMService
	if cfg.LLM.APIKey != "" {
		llmService, err = services.NewLLMService(ctx, cfg.LLM, extractionCache, cfg.Redis.CacheTTL, log)
		if err != nil {
			log.WithError(err).Warn("llm unavailable, extraction and mailbox sync disabled")
		}
	} else {
		log.Warn("no llm api key, extraction and mailbox sync disabled")
	}

	// 4. Mailbox watcher
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Gmail.Enabled && llmService != nil {
		gm, err := auth.NewGmailService(ctx, cfg.Gmail, log)
		if err != nil {
			log.WithError(err).Warn("gmail unavailable, mailbox sync disabled")
		} else {
			matcher := services.NewMatcherService(store.Applications)
			watcher := services.NewEmailService(store, llmService, gm, matcher, cfg.Gmail, log)
			g.Go(func() error {
				watcher.Run(gctx)
				return nil
			})
		}
	}

	// 5. HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	routes.RegisterRoutes(r, routes.Deps{
		Applications: handlers.NewApplicationHandler(services.NewApplicationService(store, log)),
		Predictions:  handlers.NewPredictionHandler(services.NewPredictionService(engine, store.Applications, log)),
		Analytics:    handlers.NewAnalyticsHandler(services.NewAnalyticsService(store.Applications, engine)),
		Settings:     handlers.NewSettingsHandler(services.NewSettingsService(store.Users, log)),
		Jobs:         handlers.NewJobHandler(llmService),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":        srv.Addr,
			"store":       cfg.Database.Driver,
			"factor_mode": cfg.Scoring.FactorMode,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
	log.Info("server stopped")
}

func buildStore(cfg config.DatabaseConfig, log logrus.FieldLogger) (repository.Store, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
	db, err := database.Connect(cfg, log)
	if err != nil {
		return repository.Store{}, err
	}
	return repository.NewGormStore(db), nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	c.ExposeHeaders = []string{middleware.RequestIDHeader}
	return c
}
