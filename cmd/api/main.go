package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/config"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/database"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/database/migration"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/engine"
	handlers "github.com/sponsorcomplians/ai-qualification-compliance/internal/http/handler"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/http/middleware"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/otel"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/repository/postgres"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/service"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Tracing is optional; startup continues without it.
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() {
			_ = shutdownTracing(context.Background())
		}()
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Metrics registry shared by the HTTP middleware and the services
	reg := prometheus.NewRegistry()
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to set up metrics: %v", err)
	}

	// Decision procedure configured from the environment
	eng := engine.New(engine.Config{
		RequiredSOCCodes: cfg.Engine.RequiredSOCCodes,
		UndatedPolicy:    engine.UndatedPolicy(cfg.Engine.UndatedMentionPolicy),
	})

	// Repositories and services
	caseRepo := postgres.NewCasePostgres(db)
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo)
	assessSvc, err := service.NewAssessmentService(objStore, caseRepo, eng, reg)
	if err != nil {
		log.Fatalf("failed to set up assessment service: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    32 * 1024 * 1024, // uploads carry whole evidence files
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, assessSvc, docSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
