// Package app assembles the stores, bus and lifecycle service from config so
// every binary wires the same graph.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/eventmanager/internal/cache"
	"github.com/geocoder89/eventmanager/internal/config"
	"github.com/geocoder89/eventmanager/internal/db"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/lifecycle"
	"github.com/geocoder89/eventmanager/internal/observability"
	"github.com/geocoder89/eventmanager/internal/queue"
	"github.com/geocoder89/eventmanager/internal/queue/kafkabus"
	"github.com/geocoder89/eventmanager/internal/queue/membus"
	"github.com/geocoder89/eventmanager/internal/queue/redisclient"
	"github.com/geocoder89/eventmanager/internal/repo/memory"
	"github.com/geocoder89/eventmanager/internal/repo/postgres"
	"github.com/geocoder89/eventmanager/internal/validation/publish"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Runtime struct {
	Config    config.Config
	Log       *slog.Logger
	Registry  *prometheus.Registry
	Prom      *observability.Prom
	Lifecycle *lifecycle.Service
	Bus       queue.Bus
	// ReadyChecks name every backing dependency a readiness probe should ping.
	ReadyChecks map[string]func(ctx context.Context) error

	closers []func()
}

type stores struct {
	events  lifecycle.EventStore
	users   lifecycle.UserStore
	catalog publish.CatalogLookup
}

// Build connects to the configured store and bus. Close releases them.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger) (*Runtime, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rt := &Runtime{
		Config:      cfg,
		Log:         log,
		Registry:    reg,
		Prom:        observability.NewProm(reg),
		ReadyChecks: map[string]func(ctx context.Context) error{},
	}

	st, err := rt.openStores(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	bus, err := rt.openBus()
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Bus = bus

	rt.Lifecycle = lifecycle.New(lifecycle.Deps{
		Events:  st.events,
		Users:   st.users,
		Catalog: cache.NewCatalog(st.catalog, cfg.CatalogCacheTTL),
		Logger:  log,
		Metrics: rt.Prom,
	})

	return rt, nil
}

func (rt *Runtime) openStores(ctx context.Context) (stores, error) {
	cfg := rt.Config

	switch cfg.StoreDriver {
	case config.StoreMemory:
		users := memory.NewUsersRepo()
		if cfg.AdminEmail != "" {
			now := time.Now().UTC()
			users.Put(user.User{
				ID:        uuid.NewString(),
				Email:     cfg.AdminEmail,
				Name:      cfg.AdminName,
				Role:      user.RoleAdmin,
				Status:    user.StatusActive,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		rt.Log.Warn("using in-memory store, data is lost on exit")
		return stores{events: memory.NewEventsRepo(), users: users, catalog: memory.NewCatalogRepo()}, nil

	default:
		pool, err := db.NewPool(cfg.DBURL, 0)
		if err != nil {
			return stores{}, fmt.Errorf("db connect: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.ReadyChecks["postgres"] = pool.Ping

		if err := db.Migrate(ctx, pool); err != nil {
			return stores{}, err
		}
		if err := db.EnsureAdminUser(ctx, pool, cfg.AdminEmail, cfg.AdminName); err != nil {
			return stores{}, fmt.Errorf("seed admin: %w", err)
		}

		return stores{
			events:  postgres.NewEventsRepo(pool, rt.Prom),
			users:   postgres.NewUsersRepo(pool, rt.Prom),
			catalog: postgres.NewCatalogRepo(pool, rt.Prom),
		}, nil
	}
}

func (rt *Runtime) openBus() (queue.Bus, error) {
	cfg := rt.Config

	var bus queue.Bus
	switch cfg.BusDriver {
	case config.BusMemory:
		bus = membus.New(rt.Log)
	case config.BusKafka:
		kb, err := kafkabus.New(kafkabus.Config{Brokers: cfg.Kafka.Brokers, GroupID: cfg.Kafka.GroupID}, rt.Log)
		if err != nil {
			return nil, err
		}
		bus = kb
	default:
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, rt.Log)
		rt.ReadyChecks["redis"] = rc.Ping
		bus = rc
	}

	rt.closers = append(rt.closers, func() {
		if err := bus.Close(); err != nil {
			rt.Log.Warn("bus close failed", "err", err)
		}
	})
	return bus, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
