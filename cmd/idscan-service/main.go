package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/medflow/medflow-idscan/internal/idscan/consumers"
	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/events"
	"github.com/medflow/medflow-idscan/internal/idscan/handler"
	"github.com/medflow/medflow-idscan/internal/idscan/pipeline"
	"github.com/medflow/medflow-idscan/internal/idscan/repository"
	"github.com/medflow/medflow-idscan/internal/idscan/service"
	"github.com/medflow/medflow-idscan/internal/idscan/storage"
	"github.com/medflow/medflow-idscan/pkg/config"
	"github.com/medflow/medflow-idscan/pkg/database"
	"github.com/medflow/medflow-idscan/pkg/httputil"
	"github.com/medflow/medflow-idscan/pkg/logger"
	"github.com/medflow/medflow-idscan/pkg/messaging"
)

const serviceName = "idscan-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Identity Scan Service")

	opts := []service.Option{
		service.WithThresholds(domain.Thresholds{
			AutoPopulate: cfg.Scan.AutoPopulateScore,
			Review:       cfg.Scan.ReviewScore,
		}),
		service.WithMaxPayload(cfg.Scan.MaxPayloadBytes),
	}

	// Connect to database (audit trail only)
	var db *database.DB
	if cfg.Scan.AuditEnabled {
		db, err = database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		opts = append(opts, service.WithAudit(repository.NewAuditRepository(db)))
	}

	// Connect to RabbitMQ
	var rmq *messaging.RabbitMQ
	if cfg.Scan.EventsEnabled || cfg.Scan.ConsumerEnabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, serviceName, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()
	}

	if cfg.Scan.EventsEnabled {
		publisher, err := events.NewScanEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		opts = append(opts, service.WithEvents(publisher))
	}

	// Initialize service
	jobs := storage.NewJobStore(cfg.Scan.JobTTL)
	scanService := service.NewService(pipeline.New(), jobs, log, opts...)

	// Initialize handlers
	scanHandler := handler.NewHandler(scanService, cfg.Scan.MaxPayloadBytes, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start scan request consumer
	if cfg.Scan.ConsumerEnabled {
		scanConsumer, err := consumers.NewScanRequestConsumer(rmq, scanService, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create scan request consumer")
		}
		if err := scanConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start scan request consumer")
		}
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.UserMiddleware)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.NewRateLimiter(cfg.Scan.RateLimitRPS, cfg.Scan.RateLimitBurst).Middleware)
	r.Use(httputil.TenantMiddleware) // Tenant middleware with /health exception

	// Health check (no tenant required - handled by middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":  "healthy",
			"service": serviceName,
			"jobs":    jobs.Len(),
		}
		if db != nil {
			status["database"] = db.Health(r.Context())
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	// API routes (tenant required)
	r.Route("/api/v1/idscan", func(r chi.Router) {
		r.Use(httputil.RequirePermission(handler.PermissionScan))
		scanHandler.Routes(r)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
