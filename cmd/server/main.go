package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fitledger/internal/auth"
	"fitledger/internal/config"
	"fitledger/internal/database"
	"fitledger/internal/events"
	"fitledger/internal/gateway"
	"fitledger/internal/metrics"
	"fitledger/internal/repo"
	"fitledger/internal/server"
	"fitledger/internal/service"
	"fitledger/internal/worker"
)

const (
	envLocal = "local"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)
	log.Info("starting fitledger", slog.String("env", cfg.Env))

	metrics.Register()
	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Error("failed to ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	ledger := repo.NewLedgerRepo(db)
	journal := repo.NewJournalRepo(db)

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	defer publisher.Close()
	if publisher.Enabled() {
		log.Info("purchase events enabled", slog.String("topic", cfg.Kafka.Topic))
	}

	gw := gateway.NewPayPalClient(gateway.Config{
		BaseURL:      cfg.PayPal.BaseURL,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		Timeout:      cfg.PayPal.Timeout,
	}, log)

	ttls := service.EntitlementTTLs{Bundle: cfg.Access.BundleTTL, Course: cfg.Access.CourseTTL}
	orders := service.NewOrderService(gw, log)
	captures := service.NewCaptureService(gw, ledger, journal, publisher, ttls, log)
	access := service.NewAccessService(ledger, log)

	reconciler := worker.NewReconciliationWorker(journal, ledger, ttls, cfg.Reconcile.Interval, cfg.Reconcile.MinAge, log)
	go reconciler.Run(ctx)

	sessions := auth.NewVerifier(cfg.Auth.URL, cfg.Auth.Timeout)
	srv := server.New(cfg.HTTP.CORSOrigins, orders, captures, access, sessions, log)
	httpSrv := &http.Server{Addr: cfg.HTTP.Addr, Handler: srv.Router()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("http server listening", slog.String("addr", cfg.HTTP.Addr))
		errChan <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", slog.Any("error", err))
		}
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	log.Info("stopped")
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
