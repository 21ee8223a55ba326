// Command server runs the moderation core: the action gateway, the query
// services, and the HTTP transport. Storage, counters, and the event stream
// are optional externals; with nothing configured the process runs fully
// in-memory.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"spisok/internal/audit"
	"spisok/internal/events"
	"spisok/internal/gateway"
	"spisok/internal/links"
	"spisok/internal/moderation/store"
	"spisok/internal/platform/config"
	"spisok/internal/platform/httpserver"
	"spisok/internal/platform/logger"
	"spisok/internal/platform/metrics"
	platformredis "spisok/internal/platform/redis"
	"spisok/internal/query"
	httptransport "spisok/internal/transport/http"
	"spisok/internal/usage"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var healthChecks []func() error

	var ledger audit.Store = audit.NewInMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		pg := audit.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		ledger = pg
		healthChecks = append(healthChecks, db.Ping)
		log.Info("audit ledger: postgres")
	} else {
		log.Info("audit ledger: in-memory")
	}

	var recorder usage.Recorder = usage.NewInMemoryRecorder()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		recorder = usage.NewRedisRecorder(redisClient.Client)
		healthChecks = append(healthChecks, func() error {
			return redisClient.Health(context.Background())
		})
		log.Info("usage counters: redis")
	} else {
		log.Info("usage counters: in-memory")
	}

	var publisher events.Publisher = events.NewLogPublisher(log)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		publisher = kafka
		log.Info("event stream: kafka", "topic", cfg.KafkaTopic)
	} else {
		log.Info("event stream: log")
	}
	defer publisher.Close()

	stores := store.NewStores()
	linker := links.NewInMemoryLinker()

	gw := gateway.New(stores, ledger, linker, recorder, publisher,
		gateway.WithLogger(log),
		gateway.WithMetrics(m),
	)
	q := query.New(stores, ledger, linker, recorder)

	health := func() error {
		for _, check := range healthChecks {
			if err := check(); err != nil {
				return err
			}
		}
		return nil
	}
	handler := httptransport.New(gw, q, health, log)
	router := httptransport.NewRouter(handler, m, reg)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
