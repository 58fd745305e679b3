package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wypozyczalnia/internal/api"
	"wypozyczalnia/internal/booking"
	"wypozyczalnia/internal/config"
	"wypozyczalnia/internal/database"
	"wypozyczalnia/internal/events"
	"wypozyczalnia/internal/lock"
	"wypozyczalnia/internal/metrics"
	"wypozyczalnia/shared/access"
	"wypozyczalnia/shared/audit"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("RENTAL_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg)

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Booking.LockBackend == config.LockBackendRedis {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("address", cfg.Redis.Address).Msg("redis not reachable")
		}
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL(), cfg.LockRetryInterval(), &logger)
	}
	logger.Info().Str("backend", cfg.Booking.LockBackend).Msg("item lock backend selected")

	bus := events.NewEventBus(&logger)
	for _, t := range []string{events.ReservationCreated, events.ReservationUpdated, events.ReservationDeleted, events.ItemQuantityChanged} {
		bus.Subscribe(t, func(ev events.Event) error {
			logger.Debug().Str("type", ev.Type).RawJSON("payload", ev.Payload).Msg("event")
			return nil
		})
	}

	engine := booking.NewService(db, locker, bus, &logger, booking.Options{
		AdmissionTimeout: cfg.AdmissionTimeout(),
	})

	// Initial load + hot reload of the catalog. Quantity edits go through the engine
	// so they serialize with admissions on the same item.
	applyCatalog := func(catalog *config.CatalogConfig) {
		changes, err := db.SyncCatalog(ctx, catalog)
		if err != nil {
			logger.Error().Err(err).Msg("failed to apply catalog")
			return
		}
		for _, ch := range changes {
			if err := engine.SetItemQuantity(ctx, ch.ItemID, ch.Quantity); err != nil {
				logger.Error().Err(err).Int64("item_id", ch.ItemID).Msg("failed to change item quantity")
			}
		}
		logger.Info().Str("catalog", catalog.String()).Msg("catalog applied")
	}
	if _, err := config.WatchCatalog(ctx, cfg.Catalog.Path, cfg.CatalogReloadInterval(), &logger, applyCatalog); err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("failed to load catalog")
	}

	reports := audit.NewService(audit.Config{OutputDir: cfg.Audit.Path}, db, db, nil, &logger)
	if cfg.Audit.Enabled {
		reports.Start()
		defer reports.Stop()
	}

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	go database.NewBackupService(db, cfg.Backup, &logger).Start(ctx)

	rps, burst := cfg.RateLimit()
	if len(cfg.API.APIKeys) == 0 {
		logger.Warn().Msg("api.api_keys is empty; every /api request will be rejected")
	}
	server := api.NewHTTPServer(api.Config{
		Port:           cfg.API.Port,
		APIKeys:        cfg.API.APIKeys,
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	}, engine, db, access.NewService(db, cfg.Admins, logger), reports, &logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logger.Info().Msg("rental service started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("api server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api shutdown error")
	}
	logger.Info().Msg("rental service stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	serve(ctx, fmt.Sprintf(":%d", port), mux, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serve(ctx, fmt.Sprintf(":%d", port), mux, "metrics", logger)
}

func serve(ctx context.Context, addr string, handler http.Handler, name string, logger *zerolog.Logger) {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
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
