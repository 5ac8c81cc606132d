package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/coordinator"
	"github.com/modelfold/modelfold/coordinator/api"
	"github.com/modelfold/modelfold/coordinator/middleware"
	"github.com/modelfold/modelfold/pkg/contentstore"
	"github.com/modelfold/modelfold/pkg/mqtt"
	"github.com/modelfold/modelfold/pkg/prometheus"
	"github.com/modelfold/modelfold/pkg/server"
	"github.com/modelfold/modelfold/pkg/storage"
	"github.com/modelfold/modelfold/pkg/tracing"
)

const (
	svcName       = "coordinator"
	defHTTPPort   = "7070"
	envPrefixHTTP = "COORDINATOR_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel     string        `env:"COORDINATOR_LOG_LEVEL"     envDefault:"info"`
	InstanceID   string        `env:"COORDINATOR_INSTANCE_ID"`
	Admin        string        `env:"COORDINATOR_ADMIN"`
	BlobStoreURL string        `env:"COORDINATOR_BLOBSTORE_URL"`
	MQTTAddress  string        `env:"COORDINATOR_MQTT_ADDRESS"  envDefault:""`
	MQTTQoS      uint8         `env:"COORDINATOR_MQTT_QOS"      envDefault:"2"`
	MQTTUsername string        `env:"COORDINATOR_MQTT_USERNAME"`
	MQTTPassword string        `env:"COORDINATOR_MQTT_PASSWORD"`
	MQTTTimeout  time.Duration `env:"COORDINATOR_MQTT_TIMEOUT"  envDefault:"30s"`
	OTELURL      url.URL       `env:"COORDINATOR_OTEL_URL"`
	TraceRatio   float64       `env:"COORDINATOR_TRACE_RATIO"   envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := tracing.NewProvider(ctx, svcName, cfg.OTELURL, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		ps, err := mqtt.NewPubSub(cfg.MQTTAddress, cfg.MQTTQoS, svcName+"-"+cfg.InstanceID, cfg.MQTTUsername, cfg.MQTTPassword, cfg.MQTTTimeout, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := ps.Disconnect(ctx); err != nil {
				logger.Error("error disconnecting mqtt pubsub", slog.Any("error", err))
			}
		}()
		pubsub = ps
	}

	var blobs contentstore.Store
	switch cfg.BlobStoreURL {
	case "":
		blobs = contentstore.NewMemoryStore()
	default:
		blobs = contentstore.NewHTTPStore(cfg.BlobStoreURL, 0)
	}

	svc := coordinator.NewService(
		storage.NewInMemoryStorage(),
		storage.NewInMemoryStorage(),
		contributor.NewRegistry(),
		blobs,
		pubsub,
		cfg.Admin,
		logger,
	)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := server.New(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
