package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"provenance/internal/asset/cache"
	assetHandler "provenance/internal/asset/handler"
	assetMetrics "provenance/internal/asset/metrics"
	assetService "provenance/internal/asset/service"
	"provenance/internal/audit"
	"provenance/internal/audit/kafka"
	catalogHandler "provenance/internal/catalog/handler"
	catalogService "provenance/internal/catalog/service"
	dealHandler "provenance/internal/deal/handler"
	dealMetrics "provenance/internal/deal/metrics"
	dealService "provenance/internal/deal/service"
	identityHandler "provenance/internal/identity/handler"
	identityService "provenance/internal/identity/service"
	"provenance/internal/jwttoken"
	ownershipService "provenance/internal/ownership/service"
	"provenance/internal/platform/config"
	"provenance/internal/platform/httpserver"
	"provenance/internal/platform/logger"
	"provenance/internal/platform/metrics"
	"provenance/internal/platform/redis"
	"provenance/internal/platform/tracing"
	"provenance/internal/ratelimit"
	"provenance/internal/storage"
	"provenance/internal/storage/memory"
	"provenance/internal/storage/postgres"
	httptransport "provenance/internal/transport/http"
)

const shutdownTimeout = 15 * time.Second

// main wires storage, cache, audit, and the HTTP surface, then runs the API
// and metrics listeners until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.ServiceName, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	shutdownTracer, err := tracing.Init(ctx, cfg.ServiceName, cfg.Env, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	readiness := map[string]httptransport.ReadinessCheck{}

	store, db, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		readiness["postgres"] = db.PingContext
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	verifyCache := cache.New(nil, cache.WithLogger(log))
	if redisClient != nil {
		defer redisClient.Close()
		readiness["redis"] = redisClient.Health
		verifyCache = cache.New(redisClient.Client, cache.WithTTL(cfg.Redis.CacheTTL), cache.WithLogger(log))
		log.Info("verification cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	g, gctx := errgroup.WithContext(ctx)

	publisher, err := openPublisher(gctx, g, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	identity := identityService.New(store,
		identityService.WithLogger(log),
		identityService.WithAuditPublisher(publisher),
	)
	catalog := catalogService.New(store,
		catalogService.WithLogger(log),
		catalogService.WithAuditPublisher(publisher),
	)
	assets := assetService.New(store,
		assetService.WithLogger(log),
		assetService.WithAuditPublisher(publisher),
		assetService.WithMetrics(assetMetrics.New()),
		assetService.WithCache(verifyCache),
	)
	ledger := ownershipService.New(store)
	deals := dealService.New(store,
		dealService.WithLogger(log),
		dealService.WithAuditPublisher(publisher),
		dealService.WithMetrics(dealMetrics.New()),
		dealService.WithCache(verifyCache),
	)

	if err := bootstrapAdmin(ctx, identity, cfg.BootstrapAdmin, log); err != nil {
		return err
	}

	var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
	if redisClient != nil {
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	limiter := ratelimit.New(limitStore, cfg.RateLimit.PublicLimit, cfg.RateLimit.Window, log,
		ratelimit.WithDisabled(!cfg.RateLimit.Enabled),
		ratelimit.WithMetrics(ratelimit.NewMetrics()),
	)

	tokens := jwttoken.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        metrics.New(),
		Validator:      jwttoken.NewAdapter(tokens),
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Readiness:      readiness,
		PublicLimit:    limiter.PerClientIP("public"),
	},
		identityHandler.New(identity, log),
		catalogHandler.New(catalog, log),
		assetHandler.New(assets, ledger, log),
		dealHandler.New(deals, log),
	)

	api := httpserver.New(cfg.HTTP, router)
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error { return serve(log, "api", api) })
	g.Go(func() error { return serve(log, "metrics", metricsServer) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(api.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

func serve(log *slog.Logger, name string, srv *http.Server) error {
	log.Info("listening", "server", name, "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

// openStore returns the postgres store when a database URL is configured and
// the in-memory store otherwise. db is nil for the memory store.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (storage.Tx, *sql.DB, error) {
	if cfg.URL == "" {
		log.Warn("no database configured, using in-memory storage")
		return memory.New(), nil, nil
	}
	db, err := postgres.Open(ctx, cfg.URL, cfg.MaxOpenConns)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("postgres storage ready", "max_open_conns", cfg.MaxOpenConns)
	return postgres.New(db, postgres.WithTxTimeout(cfg.TxTimeout)), db, nil
}

// openPublisher streams audit events to Kafka through a buffer drained on g,
// or logs them when no brokers are configured.
func openPublisher(ctx context.Context, g *errgroup.Group, cfg config.KafkaConfig, log *slog.Logger) (audit.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return audit.NewLogPublisher(log), nil
	}
	sink, err := kafka.New(ctx, cfg.Brokers, cfg.AuditTopic)
	if err != nil {
		return nil, err
	}
	buffered := audit.NewBufferedPublisher(sink, cfg.BufferSize, audit.WithBufferLogger(log))
	g.Go(func() error { return buffered.Run(ctx) })
	log.Info("audit events streaming to kafka", "topic", cfg.AuditTopic, "brokers", cfg.Brokers)
	return buffered, nil
}

func bootstrapAdmin(ctx context.Context, identity *identityService.Service, cfg config.BootstrapAdminConfig, log *slog.Logger) error {
	if cfg.Handle == "" {
		return nil
	}
	account, created, err := identity.BootstrapAdmin(ctx, identityService.CreateAdminCommand{
		Handle:     cfg.Handle,
		Email:      cfg.Email,
		Phone:      cfg.Phone,
		NationalID: cfg.NationalID,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Info("bootstrap administrator ready", "account_id", account.ID, "handle", account.Handle)
	}
	return nil
}
