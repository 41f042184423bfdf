package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stwalsh4118/donations/api/internal/analytics"
	"github.com/stwalsh4118/donations/api/internal/config"
	"github.com/stwalsh4118/donations/api/internal/handlers"
	"github.com/stwalsh4118/donations/api/internal/logger"
	"github.com/stwalsh4118/donations/api/internal/metrics"
	"github.com/stwalsh4118/donations/api/internal/middleware"
	"github.com/stwalsh4118/donations/api/internal/repository"
	"github.com/stwalsh4118/donations/api/internal/services"
	"github.com/stwalsh4118/donations/api/internal/source"
	"github.com/stwalsh4118/donations/api/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	restoreTimeout  = time.Minute
)

func main() {
	_ = godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting donations API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"years":       cfg.Analytics.Years,
		"storage":     cfg.Storage.Backend,
	})

	params, err := cfg.Analytics.Params()
	if err != nil {
		log.Fatal("Invalid analytics configuration", err, nil)
	}
	analyzer, err := analytics.New(params)
	if err != nil {
		log.Fatal("Invalid analytics configuration", err, nil)
	}

	ctx := context.Background()
	repo, err := repository.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open dataset cache", err, map[string]interface{}{
			"backend": cfg.Storage.Backend,
		})
	}
	defer repo.Close()

	src, err := source.New(cfg.Source)
	if err != nil {
		log.Fatal("Failed to configure dataset source", err, nil)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	records := store.NewRecordStore()

	datasetService := services.NewDatasetService(services.DatasetServiceOptions{
		Repository:     repo,
		Source:         src,
		Store:          records,
		Years:          cfg.Analytics.Years,
		StorageEnabled: cfg.Storage.Enabled,
		Metrics:        m,
		Logger:         log,
	})
	analyticsService := services.NewAnalyticsService(analyzer, records, m, log)

	go restoreCached(ctx, repo, datasetService, cfg.Storage.Enabled, log)

	// Setup Gin router
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> Metrics -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log, m))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Health:    handlers.NewHealthHandler(datasetService, cfg.Storage.Backend, cfg.Server.Env),
		Datasets:  handlers.NewDatasetHandler(datasetService, cfg.Storage.Backend),
		Analytics: handlers.NewAnalyticsHandler(analyticsService),
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler(prometheus.DefaultGatherer)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// restoreCached loads every year that is already in the dataset cache so a
// restart serves the same data without refetching.
func restoreCached(ctx context.Context, repo repository.DatasetRepository, svc services.DatasetService, enabled bool, log *logger.Logger) {
	if !enabled {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, restoreTimeout)
	defer cancel()

	restored := 0
	for _, year := range svc.Years() {
		has, err := repo.HasData(ctx, year)
		if err != nil {
			log.Warn("Failed to check dataset cache", map[string]interface{}{
				"year":  int(year),
				"error": err.Error(),
			})
			continue
		}
		if !has {
			continue
		}
		if _, err := svc.LoadYear(ctx, year, false); err != nil {
			log.Warn("Failed to restore cached dataset", map[string]interface{}{
				"year":  int(year),
				"error": err.Error(),
			})
			continue
		}
		restored++
	}

	if restored > 0 {
		log.Info("Restored cached datasets", map[string]interface{}{"years": restored})
	}
}
