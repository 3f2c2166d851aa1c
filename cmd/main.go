package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	// Instrumentation
	"github.com/exaring/otelpgx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Interne
	"github.com/Kudzu86/P9bis/config"
	"github.com/Kudzu86/P9bis/internal/adapters/primary/events"
	"github.com/Kudzu86/P9bis/internal/adapters/secondary/eventbroker"
	"github.com/Kudzu86/P9bis/internal/adapters/secondary/repository"
	"github.com/Kudzu86/P9bis/internal/core/services"
)

func main() {
	// 1. Config & Logger
	cfg := config.Load()
	initLogger(cfg)
	slog.Info("🚀 Starting LITRevu Engine", "config", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure: Base de données (Postgres)
	dbConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		slog.Error("Unable to parse DB config", "error", err)
		os.Exit(1)
	}
	// Instrumentation SQL (Pour voir les requêtes dans Jaeger)
	dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	slog.Info("✅ Connected to Postgres")

	// 4. Infrastructure: Graphe de suivi (Neo4j)
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		slog.Error("Unable to create Neo4j driver", "error", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := driver.VerifyConnectivity(pingCtx); err != nil {
		pingCancel()
		slog.Error("Unable to reach Neo4j", "error", err)
		os.Exit(1)
	}
	pingCancel()
	slog.Info("✅ Connected to Neo4j")

	// 5. Infrastructure: Event Broker (NATS)
	nc, err := nats.Connect(cfg.NatsUrl)
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	slog.Info("✅ Connected to NATS")

	// 6. Initialisation des Adapters (Driven)
	contentRepo := repository.NewPostgresRepo(dbPool)
	followRepo := repository.NewNeo4jFollowRepo(driver)

	if err := contentRepo.EnsureSchema(ctx); err != nil {
		slog.Error("Unable to migrate Postgres schema", "error", err)
		os.Exit(1)
	}
	if err := followRepo.EnsureSchema(ctx); err != nil {
		slog.Error("Unable to migrate Neo4j schema", "error", err)
		os.Exit(1)
	}

	eventPub, err := eventbroker.NewNatsPublisher(nc)
	if err != nil {
		slog.Error("Unable to init JetStream publisher", "error", err)
		os.Exit(1)
	}

	// 7. Initialisation du Core (Domain Logic)
	feedService := services.NewFeedService(contentRepo, followRepo)
	followService := services.NewFollowService(followRepo, contentRepo, eventPub)
	contentService := services.NewContentService(contentRepo, eventPub)

	// 8. Initialisation du Primary Adapter (NATS request-reply)
	handler := events.NewEventHandler(feedService, followService, contentService)
	if err := handler.Subscribe(nc); err != nil {
		slog.Error("Unable to subscribe handlers", "error", err)
		os.Exit(1)
	}

	slog.Info("📡 LITRevu Engine listening", "nats", cfg.NatsUrl)

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	// Drain laisse les requêtes en vol se terminer avant de couper
	if err := nc.Drain(); err != nil {
		slog.Error("NATS drain failed", "error", err)
	}
	slog.Info("👋 Server exited")
}

// --- Helpers (À déplacer un jour dans pkg/telemetry et pkg/logger) ---

func initLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("litrevu-engine"),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
