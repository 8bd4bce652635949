// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"metasignet/internal/audit"
	"metasignet/internal/chain"
	"metasignet/internal/platform/config"
	"metasignet/internal/platform/database"
	"metasignet/internal/platform/health"
	"metasignet/internal/platform/kafka/producer"
	"metasignet/internal/platform/logger"
	platformredis "metasignet/internal/platform/redis"
	"metasignet/internal/seeder"
	"metasignet/internal/source/bluesky"
	"metasignet/internal/token"
	httptransport "metasignet/internal/transport/http"
	"metasignet/internal/verification/handler"
	"metasignet/internal/verification/metrics"
	"metasignet/internal/verification/service"
	"metasignet/internal/verification/store"
	"metasignet/internal/verification/tracer"
	"metasignet/pkg/platform/middleware/request"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing metasignet",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"store", cfg.Server.StoreBackend,
	)

	healthHandler := health.New(cfg.Server.Environment)

	ledgerStore, cleanup, err := buildStore(cfg, log, healthHandler)
	if err != nil {
		log.Error("failed to initialize verification store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	auditor, auditSink, auditCleanup := buildAuditor(cfg, log)
	defer auditCleanup()

	if cfg.Server.SeedDemo {
		if err := seeder.New(ledgerStore, auditSink, log).SeedAll(context.Background()); err != nil {
			log.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithTracer(tracer.NewOTel()),
	}
	if auditor != nil {
		opts = append(opts, service.WithAuditor(auditor))
	}
	if cfg.Chain.RelayURL != "" {
		log.Info("chain mirroring enabled", "relay_url", cfg.Chain.RelayURL)
		opts = append(opts, service.WithRegistrar(
			chain.NewRelay(cfg.Chain.RelayURL, cfg.Chain.APIKey, 10*time.Second),
		))
	}
	ledger := service.NewService(ledgerStore, opts...)

	tokenService, err := token.NewService(cfg.Server.JWTSigningKey, cfg.Server.TokenTTL)
	if err != nil {
		log.Error("failed to initialize token service", "error", err)
		os.Exit(1)
	}

	postSource := bluesky.NewClient(
		bluesky.WithBaseURL(cfg.Bluesky.BaseURL),
		bluesky.WithLogger(log),
	)

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:         log,
		Verification:   handler.New(ledger, postSource, log),
		Health:         healthHandler,
		TokenValidator: tokenService,
		RequestMetrics: request.NewMetrics(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// buildStore selects the verification store backend and registers its health
// check. The cleanup closes whatever connection the backend opened.
func buildStore(cfg config.Config, log *slog.Logger, healthHandler *health.Handler) (store.Store, func(), error) {
	switch cfg.Server.StoreBackend {
	case config.StorePostgres:
		pool, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if pool == nil {
			return nil, nil, errors.New("postgres store selected but DATABASE_URL is not set")
		}
		healthHandler.RegisterCheck("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
		return store.NewPostgres(pool.DB()), func() { _ = pool.Close() }, nil

	case config.StoreRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, errors.New("redis store selected but REDIS_URL is not set")
		}
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Health(ctx)
		})
		go recordRedisPoolStats(client)
		return store.NewRedis(client.Client), func() { _ = client.Close() }, nil

	case config.StoreMemory:
		log.Warn("using in-memory verification store, records are lost on restart")
		return store.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, errors.New("unknown store backend: " + cfg.Server.StoreBackend)
	}
}

// buildAuditor wires the audit trail: Kafka-backed when brokers are
// configured, in-memory otherwise. The sink is returned separately so the
// demo seeder can append directly.
func buildAuditor(cfg config.Config, log *slog.Logger) (*audit.Publisher, audit.Store, func()) {
	var sink audit.Store = audit.NewInMemoryStore()
	cleanup := func() {}

	if len(cfg.Kafka.Brokers) > 0 {
		p, err := producer.New(producer.Config{
			Brokers:         strings.Join(cfg.Kafka.Brokers, ","),
			Acks:            "all",
			Retries:         3,
			DeliveryTimeout: 10 * time.Second,
		}, log)
		if err != nil {
			log.Error("failed to initialize kafka producer, audit trail stays in memory", "error", err)
		} else {
			sink = audit.NewKafkaStore(p, cfg.Kafka.Topic)
			cleanup = func() {
				_ = p.Flush(5 * time.Second)
				p.Close()
			}
		}
	}

	publisher := audit.NewPublisher(sink,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	prev := cleanup
	return publisher, sink, func() {
		publisher.Close()
		prev()
	}
}

func recordRedisPoolStats(client *platformredis.Client) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		client.RecordPoolStats()
	}
}
