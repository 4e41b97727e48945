package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"parkspace/internal/audit"
	"parkspace/internal/blacklist"
	"parkspace/internal/ledger"
	"parkspace/internal/lot"
	lothandler "parkspace/internal/lot/handler"
	"parkspace/internal/lot/service"
	"parkspace/internal/platform/config"
	"parkspace/internal/platform/httpserver"
	"parkspace/internal/platform/logger"
	"parkspace/internal/platform/metrics"
	"parkspace/internal/platform/middleware"
	redisclient "parkspace/internal/platform/redis"
	"parkspace/internal/registry"
)

const auditInboxSize = 256

// main wires dependencies and owns the process lifecycle. Business rules live
// in internal/lot/service; stores are selected here based on configuration.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lotStore lot.Store = lot.NewInMemoryStore(cfg.MaxLotsPerWallet)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if _, err := db.ExecContext(ctx, lot.Schema); err != nil {
			log.Error("apply schema", "error", err)
			os.Exit(1)
		}
		lotStore = lot.NewPostgres(db, cfg.MaxLotsPerWallet)
		log.Info("lot store: postgres")
	}

	var blStore blacklist.Store = blacklist.NewInMemoryStore()
	rdb, err := redisclient.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		blStore = blacklist.NewRedisStore(rdb.Client)
		log.Info("blacklist store: redis")
	}

	inbox := make(chan audit.Event, auditInboxSize)
	publisher := audit.NewPublisher(inbox, log)
	worker := audit.NewWorker(audit.NewInMemoryStore(), inbox, log)

	svc := service.New(
		lotStore,
		registry.NewInMemoryRegistry(),
		ledger.NewInMemoryLedger(),
		blStore,
		publisher,
		m,
		log,
		service.Config{
			Custodian:        cfg.Custodian,
			FeeRecipient:     cfg.FeeRecipient,
			MintFee:          cfg.MintFee,
			MaxLotsPerWallet: cfg.MaxLotsPerWallet,
			Grace:            cfg.Grace,
		},
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Caller)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Latency(m))
	router.Use(middleware.ContentTypeJSON)

	lothandler.New(svc, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(httpserver.Config{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting parkspace", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
