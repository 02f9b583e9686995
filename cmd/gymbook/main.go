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

	"gymbook/internal/account"
	"gymbook/internal/api"
	"gymbook/internal/booking"
	"gymbook/internal/config"
	"gymbook/internal/crudapi"
	"gymbook/internal/database"
	"gymbook/internal/events"
	"gymbook/internal/metrics"
	"gymbook/internal/source"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const catalogPollInterval = 30 * time.Second

// readyCheck reports whether a dependency can serve requests.
type readyCheck struct {
	name  string
	check func(ctx context.Context) error
}

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("GYMBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		logger = logger.Level(level)
	}

	scope, err := booking.ParseScope(cfg.Booking.Scope)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid booking scope")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var checks []readyCheck

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		checks = append(checks, readyCheck{name: "redis", check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
	}

	var lister source.Lister
	switch cfg.Source.Kind {
	case config.SourceHTTP:
		client := crudapi.NewClient(cfg.API.BaseURL, cfg.API.APIKey, cfg.APITimeout())
		client.UseRateLimit(cfg.API.RatePerSecond, cfg.API.Burst)
		if rdb != nil && cfg.APICacheTTL() > 0 {
			client.UseRedisCache(rdb, cfg.APICacheTTL())
		}
		checks = append(checks, readyCheck{name: "backend", check: client.HealthCheck})
		lister = client
	default:
		db, err := database.NewDB(cfg.Database.Path, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("open db error")
		}
		defer db.Close()
		checks = append(checks, readyCheck{name: "db", check: db.Ready})

		if cfg.Backup.Enabled {
			go database.NewBackupService(db, cfg.Backup, &logger).Start(ctx)
		}
		lister = db
	}

	resolvers := account.Chain{account.Static(cfg.Account.Static)}
	if rdb != nil {
		resolvers = append(resolvers, account.NewRedisResolver(rdb, cfg.Account.SessionKey, &logger))
	}

	bus := events.NewEventBus(&logger)
	bus.Subscribe(events.SnapshotRefreshFailed, func(e events.Event) error {
		var p events.RefreshPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		if p.Error == booking.ErrAccountUnknown.Error() {
			logger.Warn().Msg("no member account is known; set account.static or store a session account")
		}
		return nil
	})

	agg, err := booking.NewAggregator(lister, lister, resolvers, scope, cfg.Source.FetchLimit, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create aggregator")
	}
	svc := booking.NewService(agg, booking.Options{
		Capacity:    cfg.Booking.Capacity,
		Suggestions: cfg.Booking.Suggestions,
		MinScore:    cfg.Booking.MinScore,
	}, bus, &logger)

	if err := config.WatchCatalog(ctx, cfg.Booking.CatalogPath, catalogPollInterval, svc.SetCatalog); err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Booking.CatalogPath).Msg("load slot catalog")
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, checks, &logger)

	// A failed first refresh is not fatal; the API serves an empty snapshot until one succeeds.
	_, _ = svc.Refresh(ctx)
	if interval := cfg.RefreshInterval(); interval > 0 {
		go refreshLoop(ctx, svc, interval)
	}

	server := api.NewServer(svc, api.Options{RatePerSecond: cfg.Server.RatePerSecond, Burst: cfg.Server.Burst}, &logger)
	logger.Info().Int("port", cfg.Server.Port).Str("scope", string(scope)).Str("source", cfg.Source.Kind).Msg("gymbook started")
	serve(ctx, "api", cfg.Server.Port, server.Handler(), &logger)
}

func refreshLoop(ctx context.Context, svc *booking.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = svc.Refresh(ctx)
		}
	}
}

func startHealthServer(ctx context.Context, port int, checks []readyCheck, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		for _, c := range checks {
			if err := c.check(ctxPing); err != nil {
				http.Error(w, c.name+" not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	serve(ctx, "health", port, mux, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	serve(ctx, "metrics", port, mux, logger)
}

// serve runs an HTTP server until ctx is cancelled.
func serve(ctx context.Context, name string, port int, handler http.Handler, logger *zerolog.Logger) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
