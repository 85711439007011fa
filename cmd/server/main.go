package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"storebridge/internal/bridge"
	"storebridge/internal/capability"
	jwttoken "storebridge/internal/jwt_token"
	"storebridge/internal/platform/config"
	"storebridge/internal/platform/httpserver"
	"storebridge/internal/platform/kafka"
	"storebridge/internal/platform/logger"
	"storebridge/internal/platform/metrics"
	platformredis "storebridge/internal/platform/redis"
	"storebridge/internal/store"
	"storebridge/internal/store/appstore"
	"storebridge/internal/store/memory"
	httptransport "storebridge/internal/transport/http"
	"storebridge/internal/updates"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Orchestration logic lives in internal/bridge.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	publisher, closePublisher, err := newPublisher(cfg, log)
	if err != nil {
		log.Error("publisher setup failed", "error", err)
		os.Exit(1)
	}
	defer closePublisher()

	br := bridge.New(newStore(cfg, log), capability.NewStatic(cfg.StoreAPIVersion), publisher,
		bridge.WithLogger(log),
		bridge.WithMetrics(metrics.New()),
	)
	br.StartListening()
	defer br.Close()

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	handler := httptransport.NewHandler(br, log)
	router := httptransport.NewRouter(handler, jwttoken.NewJWTServiceAdapter(jwtService), log)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting storebridge",
			"addr", cfg.Addr,
			"store_backend", cfg.StoreBackend,
			"publisher", cfg.Publisher,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		br.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newStore selects the store backend.
func newStore(cfg config.Config, log *slog.Logger) store.Client {
	switch cfg.StoreBackend {
	case "appstore":
		return appstore.New(appstore.Config{
			SharedSecret: cfg.AppStore.SharedSecret,
			BundleID:     cfg.AppStore.BundleID,
			Receipt:      cfg.AppStore.Receipt,
			PollInterval: cfg.AppStore.PollInterval,
		}, appstore.WithLogger(log))
	default:
		return memory.New()
	}
}

// newPublisher selects the outbound update channel. The returned closer
// releases the underlying connection, if any.
func newPublisher(cfg config.Config, log *slog.Logger) (bridge.UpdatePublisher, func(), error) {
	switch cfg.Publisher {
	case "redis":
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("redis publisher selected but REDIS_URL is empty")
		}
		return updates.NewRedis(client.Client, cfg.Redis.Channel), func() { _ = client.Close() }, nil
	case "kafka":
		client, err := kafka.New(cfg.Kafka)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("kafka publisher selected but KAFKA_BROKERS is empty")
		}
		return updates.NewKafka(client, cfg.Kafka.Topic), client.Close, nil
	default:
		return updates.NewLog(log), func() {}, nil
	}
}
