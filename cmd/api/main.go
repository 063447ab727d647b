package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/eventmanager/internal/app"
	"github.com/geocoder89/eventmanager/internal/auth"
	"github.com/geocoder89/eventmanager/internal/cancellation"
	"github.com/geocoder89/eventmanager/internal/config"
	httpx "github.com/geocoder89/eventmanager/internal/http"
	"github.com/geocoder89/eventmanager/internal/http/handlers"
	"github.com/geocoder89/eventmanager/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "eventmanager-api", cfg.OTELEndpoint)
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

	checks := make(map[string]handlers.Pinger, len(rt.ReadyChecks))
	for name, ping := range rt.ReadyChecks {
		checks[name] = ping
	}

	router := httpx.NewRouter(httpx.RouterDeps{
		Env:            cfg.Env,
		Logger:         log,
		Lifecycle:      rt.Lifecycle,
		Cancellations:  cancellation.NewRequester(rt.Lifecycle, rt.Bus, cfg.CancelChannel, log),
		Tokens:         auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL),
		Prom:           rt.Prom,
		Gatherer:       rt.Registry,
		ReadyChecks:    checks,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit:      cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "bus", cfg.BusDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
}
