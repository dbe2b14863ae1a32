package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"certo/internal/certification/cache"
	"certo/internal/certification/handler"
	"certo/internal/certification/metrics"
	"certo/internal/certification/service"
	"certo/internal/certification/store"
	"certo/internal/certification/sweeper"
	"certo/internal/docstore"
	httpapi "certo/internal/http"
	"certo/internal/notify"
	"certo/internal/platform/config"
	"certo/internal/platform/httpserver"
	"certo/internal/platform/logger"
	platformredis "certo/internal/platform/redis"
	id "certo/pkg/domain"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence: postgres when a DSN is configured, in-memory otherwise.
	// The in-memory mode exists for local development and demos only.
	var tx service.StoreTx
	if cfg.DatabaseDSN != "" {
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		tx = newCertificationPostgresTx(db)
	} else {
		log.Warn("no database configured, using in-memory store")
		memory := store.NewInMemoryStore()
		store.SeedCompetencies(ctx, memory)
		tx = service.NewMemoryTx(memory)
	}

	// Notification sinks: structured log always, Kafka when configured.
	sinks := []notify.Notifier{notify.NewLogSink(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to connect kafka sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	publisher := notify.NewPublisher(sinks, notify.WithLogger(log), notify.WithAsyncBuffer(256))
	defer publisher.Close()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithNotifier(publisher),
		service.WithMetrics(metrics.New()),
		service.WithAdmins(parseAdmins(log, cfg.AdminUserIDs)),
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithVerificationCache(
			cache.NewRedis(redisClient.Client, cache.WithTTL(cfg.Redis.CacheTTL), cache.WithLogger(log))))
	}

	svc := service.New(tx, opts...)

	checks := map[string]httpapi.HealthChecker{}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	// Inline uploads land in process memory until object storage is plugged
	// in; store_ref uploads are unaffected.
	router := httpapi.NewRouter(handler.New(svc, docstore.NewInMemoryStore(), log), checks)
	srv := httpserver.New(cfg.Addr, router)

	go sweeper.New(svc, cfg.SweepInterval, log).Run(ctx)

	go func() {
		log.Info("starting certo", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// parseAdmins drops malformed admin ids with a warning instead of refusing
// to boot.
func parseAdmins(log interface {
	Warn(msg string, args ...any)
}, raw []string) []id.UserID {
	admins := make([]id.UserID, 0, len(raw))
	for _, s := range raw {
		adminID, err := id.ParseUserID(s)
		if err != nil {
			log.Warn("ignoring invalid admin user id", "value", s)
			continue
		}
		admins = append(admins, adminID)
	}
	return admins
}
