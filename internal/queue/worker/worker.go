// Package worker runs the background side of the service: a pool of
// subscribers feeding the cancellation channel to its handler, and the
// periodic sweep that completes expired events.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/eventmanager/internal/queue"
)

type Sweeper interface {
	CompleteExpired(ctx context.Context) (int, error)
}

type SweepRecorder interface {
	ObserveSweep(completed int, err error)
}

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Channel       string
	Concurrency   int
	SweepInterval time.Duration
}

type Worker struct {
	cfg     Config
	sub     queue.Subscriber
	handle  queue.Handler
	sweeper Sweeper
	metrics SweepRecorder
	pingers []Pinger
	log     *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, sub queue.Subscriber, handle queue.Handler, sweeper Sweeper, log *slog.Logger) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		cfg:     cfg,
		sub:     sub,
		handle:  handle,
		sweeper: sweeper,
		log:     log,
	}
}

func (w *Worker) WithMetrics(m SweepRecorder) *Worker {
	w.metrics = m
	return w
}

// WithReadiness adds dependencies that must answer before /readyz reports ready.
func (w *Worker) WithReadiness(p ...Pinger) *Worker {
	w.pingers = append(w.pingers, p...)
	return w
}

// Run blocks until ctx ends and every subscriber and the sweep loop have
// returned.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	w.log.InfoContext(ctx, "worker started",
		"channel", w.cfg.Channel,
		"concurrency", w.cfg.Concurrency,
		"sweep_interval", w.cfg.SweepInterval.String(),
	)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.consume(ctx, n)
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.sweepLoop(ctx)
	}()

	wg.Wait()
	w.log.Info("worker stopped")
	return nil
}

// consume keeps one subscription open, re-subscribing with backoff when the
// transport fails.
func (w *Worker) consume(ctx context.Context, n int) {
	attempt := 0
	for ctx.Err() == nil {
		err := w.sub.Subscribe(ctx, w.cfg.Channel, w.handle)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, queue.ErrClosed) {
			w.log.Warn("bus closed, subscriber exiting", "subscriber", n)
			return
		}
		if err == nil {
			attempt = 0
			continue
		}

		delay := queue.ExponentialBackoff(attempt)
		attempt++
		w.log.Warn("subscription failed, retrying",
			"subscriber", n,
			"attempt", attempt,
			"delay", delay.String(),
			"err", err,
		)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (w *Worker) sweepLoop(ctx context.Context) {
	_, _ = w.SweepOnce(ctx)

	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.SweepOnce(ctx)
		}
	}
}

// SweepOnce completes every published event whose end date has passed.
func (w *Worker) SweepOnce(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := w.sweeper.CompleteExpired(ctx)

	if w.metrics != nil {
		w.metrics.ObserveSweep(n, err)
	}

	if err != nil {
		w.log.ErrorContext(ctx, "sweep failed", "completed", n, "err", err)
		return n, err
	}
	w.log.InfoContext(ctx, "sweep done", "completed", n, "took_ms", time.Since(start).Milliseconds())
	return n, nil
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) isReady() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}
