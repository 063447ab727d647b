package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/eventmanager/internal/app"
	"github.com/geocoder89/eventmanager/internal/cancellation"
	"github.com/geocoder89/eventmanager/internal/config"
	"github.com/geocoder89/eventmanager/internal/notifications"
	"github.com/geocoder89/eventmanager/internal/observability"
	"github.com/geocoder89/eventmanager/internal/queue/worker"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "eventmanager-worker", cfg.OTELEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	rt, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer rt.Close()

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{Timeout: 3 * time.Second},
	)

	consumer := cancellation.NewConsumer(cancellation.Config{
		Channel:           cfg.CancelChannel,
		DeadLetterChannel: cfg.DeadLetterChannel,
	}, rt.Lifecycle, rt.Bus, log).
		WithNotifier(notifier).
		WithMetrics(rt.Prom)

	w := worker.New(worker.Config{
		Channel:       cfg.CancelChannel,
		Concurrency:   cfg.WorkerConcurrency,
		SweepInterval: cfg.SweepInterval,
	}, rt.Bus, consumer.Handle, rt.Lifecycle, log).
		WithMetrics(rt.Prom)
	for _, ping := range rt.ReadyChecks {
		w.WithReadiness(pingFunc(ping))
	}

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(rt.Registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", "err", err)
		}
	}()

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("health server shutdown failed", "err", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", "err", err)
	}

	log.Info("worker shutdown complete")
}
