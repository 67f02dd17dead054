package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"floorwatch/internal/activity/alerts"
	"floorwatch/internal/activity/handler"
	"floorwatch/internal/activity/ingest"
	"floorwatch/internal/activity/labels"
	"floorwatch/internal/activity/metrics"
	"floorwatch/internal/activity/service"
	"floorwatch/internal/activity/store"
	"floorwatch/internal/platform/config"
	"floorwatch/internal/platform/httpserver"
	"floorwatch/internal/platform/logger"
	platformredis "floorwatch/internal/platform/redis"
)

// main is the composition root: it constructs every component explicitly and
// passes them by reference. There is no global mutable state outside the
// event log and the label cache, both of which are owned here.
func main() {
	cfg, err := config.Load(os.Getenv("FLOORWATCH_CONFIG_DIR"))
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := buildLabelCache(ctx, cfg.Labels)
	if err != nil {
		log.Error("label source setup failed", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		// Warm the cache so the first frame never pays for the load. A failed
		// warm-up degrades to raw identifiers; it is not fatal.
		if err := cache.Warm(ctx); err != nil {
			log.Warn("label cache warm-up failed, labels degrade to raw identifiers", "error", err)
		}
	}

	eventLog := store.NewEventLog(cfg.Store.Capacity, cfg.Store.Retention())
	m := metrics.New()
	gateway := ingest.New(eventLog, cache, m, log)
	evaluator := alerts.New(cfg.Alerts.AlertRules(), cfg.Alerts.InactivityThreshold())
	svc := service.New(eventLog, evaluator, log,
		service.WithMetrics(m),
		service.WithTrendEpsilon(cfg.Trend.Epsilon),
	)

	h := handler.New(svc, gateway, log, cfg.Server.AdminToken)
	srv := httpserver.New(cfg.Server.Addr, h.Router())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting floorwatch", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		// The retention horizon must hold even when ingest is idle, so expiry
		// runs on a ticker instead of piggybacking on appends.
		ticker := time.NewTicker(cfg.Store.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				if dropped := eventLog.Sweep(now); dropped > 0 {
					m.EventsEvicted.Add(float64(dropped))
					m.StoreSize.Set(float64(eventLog.Len()))
					log.Debug("retention sweep", "dropped", dropped)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildLabelCache wires the configured label source. "none" disables label
// resolution entirely.
func buildLabelCache(ctx context.Context, cfg config.LabelsConfig) (*labels.Cache, error) {
	switch cfg.Source {
	case "file":
		return labels.NewCache(labels.NewFileSource(cfg.Path)), nil
	case "redis":
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return labels.NewCache(labels.NewRedisSource(client, cfg.RedisKey)), nil
	default:
		return nil, nil
	}
}
