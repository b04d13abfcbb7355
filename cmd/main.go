package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	// Instrumentation
	"github.com/exaring/otelpgx"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Interne
	"github.com/jupiterclapton/ephemera/config"
	"github.com/jupiterclapton/ephemera/internal/adapters/primary/events"
	"github.com/jupiterclapton/ephemera/internal/adapters/primary/rest"
	"github.com/jupiterclapton/ephemera/internal/adapters/primary/scheduler"
	"github.com/jupiterclapton/ephemera/internal/adapters/secondary/backend"
	"github.com/jupiterclapton/ephemera/internal/adapters/secondary/backend/memory"
	pgbackend "github.com/jupiterclapton/ephemera/internal/adapters/secondary/backend/postgres"
	redisbackend "github.com/jupiterclapton/ephemera/internal/adapters/secondary/backend/redis"
	s3backend "github.com/jupiterclapton/ephemera/internal/adapters/secondary/backend/s3"
	"github.com/jupiterclapton/ephemera/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/ephemera/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
	"github.com/jupiterclapton/ephemera/internal/core/services"
)

func main() {
	// 1. Config & Logger
	cfg, cfgErr := config.Load()
	initLogger(cfg)
	if cfgErr != nil {
		slog.Error("Invalid configuration", "error", cfgErr)
		os.Exit(1)
	}
	slog.Info("🚀 Starting Ephemera", "config", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure: backend de fichiers (Driven Adapter)
	fileBackend, closeBackend, err := connectBackend(ctx, cfg)
	if err != nil {
		slog.Error("Unable to connect to backend", "driver", cfg.BackendDriver, "error", err)
		os.Exit(1)
	}
	defer closeBackend()
	slog.Info("✅ Backend ready", "driver", cfg.BackendDriver)

	instrumented := backend.NewInstrumented(fileBackend, cfg.BackendDriver, prometheus.DefaultRegisterer)
	store := repository.NewDocumentStore(instrumented, cfg.BackendTimeout)
	cols := repository.NewCollections(store, cfg.BackendBasePath)

	// 4. Infrastructure: Event Broker NATS (optionnel)
	var eventPub ports.EventPublisher = eventbroker.NopPublisher{}
	var nc *nats.Conn
	if cfg.NatsUrl != "" {
		nc, err = nats.Connect(cfg.NatsUrl)
		if err != nil {
			slog.Error("Unable to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		eventPub = eventbroker.NewNatsPublisher(nc)
		slog.Info("✅ Connected to NATS")
	}

	// 5. Initialisation du Core
	contentService := services.NewContentService(cols, eventPub)
	cleanupService := services.NewCleanupService(cols, eventPub)

	// Consumer NATS (Driving Adapter - Async)
	if nc != nil {
		handler := events.NewEventHandler(cleanupService, cfg.CleanupTimeout)
		if _, err := nc.Subscribe(events.SubjectCleanupRequested, handler.HandleCleanupRequested); err != nil {
			slog.Error("Failed to subscribe to NATS", "error", err)
			os.Exit(1)
		}
		slog.Info("👂 Listening for events (NATS)", "subject", events.SubjectCleanupRequested)
	}

	// 6. Nettoyage planifié (Driving Adapter - Async)
	sweeper := scheduler.NewSweeper(cleanupService, cfg.CleanupInterval, cfg.CleanupTimeout, prometheus.DefaultRegisterer)
	go sweeper.Run(ctx)

	// 7. Serveur HTTP (Driving Adapter - Sync)
	api := rest.NewServer(contentService, cleanupService, cfg.CorsAllowedOrigins, prometheus.DefaultGatherer)
	srvHTTP := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		slog.Info("📡 HTTP listening", "port", cfg.HTTPPort)
		if err := srvHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// 8. Health Check gRPC standard pour K8s/Docker
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		slog.Error("Failed to listen", "error", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("📡 gRPC health listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	grpcServer.GracefulStop()

	slog.Info("👋 Server exited")
}

// --- HELPERS ---

// connectBackend ouvre le driver choisi et renvoie sa fonction de fermeture.
func connectBackend(ctx context.Context, cfg config.Config) (ports.FileBackend, func(), error) {
	noop := func() {}

	switch cfg.BackendDriver {
	case config.DriverS3:
		b, err := s3backend.New(s3backend.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			Bucket:    cfg.S3Bucket,
		})
		if err != nil {
			return nil, noop, err
		}
		if err := b.EnsureBucket(ctx); err != nil {
			return nil, noop, err
		}
		return b, noop, nil

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		// Instrumentation Redis
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			return nil, noop, err
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, noop, err
		}
		return redisbackend.New(rdb), func() { _ = rdb.Close() }, nil

	case config.DriverPostgres:
		dbConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
		if err != nil {
			return nil, noop, err
		}
		// Instrumentation SQL (Pour voir les requêtes dans Jaeger)
		dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()

		dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
		if err != nil {
			return nil, noop, err
		}
		b := pgbackend.New(dbPool)
		if err := b.Migrate(ctx); err != nil {
			dbPool.Close()
			return nil, noop, err
		}
		return b, dbPool.Close, nil

	default:
		slog.Warn("⚠️ In-memory backend: data is lost on restart")
		return memory.New(), noop, nil
	}
}

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
			semconv.ServiceNameKey.String(cfg.ServiceName),
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
