package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/zoramarket/cart-service/internal/adapters/cache"
	eventadapter "github.com/zoramarket/cart-service/internal/adapters/events"
	httpadapter "github.com/zoramarket/cart-service/internal/adapters/http"
	"github.com/zoramarket/cart-service/internal/adapters/memory"
	"github.com/zoramarket/cart-service/internal/adapters/metrics"
	"github.com/zoramarket/cart-service/internal/adapters/postgres"
	"github.com/zoramarket/cart-service/internal/adapters/remote"
	"github.com/zoramarket/cart-service/internal/adapters/session"
	"github.com/zoramarket/cart-service/internal/adapters/vendors"
	"github.com/zoramarket/cart-service/internal/application"
	"github.com/zoramarket/cart-service/internal/ports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	health     *health.Server
	events     *eventadapter.QueuedPublisher
	carts      *application.Registry
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	var closers []io.Closer
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, err
		}
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return nil, dbErr
		}
		closers = append(closers, sqlDB)
		if err := postgres.RunMigrations(ctx, db); err != nil {
			closeAll()
			return nil, err
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, redisClient)
	}

	vendorLookup, err := buildVendorLookup(cfg, logger, db, redisClient)
	if err != nil {
		closeAll()
		return nil, err
	}
	store := buildSnapshotStore(cfg, db, redisClient)

	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			application.EventTypeCartUpdated: cfg.KafkaTopicCartUpdated,
		})
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}
	}
	queued := eventadapter.NewQueuedPublisher(logger, publisher, cfg.EventQueueSize)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.New(registry)

	verifier := session.NewTokenVerifier(cfg.SessionJWTSecret)
	if cfg.SessionTrustGateway {
		verifier = session.NewGatewayTokenVerifier()
		logger.WarnContext(ctx, "session signatures are not verified, trusting upstream gateway",
			"module", "bootstrap",
			"layer", "runtime",
			"operation", "new_runtime",
			"outcome", "degraded",
		)
	}
	sessions := session.NewStore(verifier)
	deps := application.Dependencies{
		Config: application.Config{
			ServiceName: cfg.ServiceID,
			Pricing:     cfg.Pricing,
			StorageKey:  cfg.StorageKey,
		},
		Logger:    logger,
		Vendors:   vendorLookup,
		Store:     store,
		Sessions:  sessions,
		Publisher: queued,
		Metrics:   cartMetrics,
	}
	if cfg.RemoteCartURL != "" {
		deps.Remote = remote.NewCartClient(cfg.RemoteCartURL, cfg.RemoteCartTimeout)
	}
	carts := application.NewRegistry(deps,
		application.WithIdleTTL(cfg.EngineIdleTTL),
		application.WithMaxEngines(cfg.MaxEngines),
	)

	handler := httpadapter.NewHandler(carts, sessions, cfg.SettleTimeout)
	if db != nil {
		handler.WithReadinessCheck("postgres", func(ctx context.Context) error { return postgres.Ping(ctx, db) })
	}
	if redisClient != nil {
		handler.WithReadinessCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	router := httpadapter.NewRouter(handler, cartMetrics)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		closeAll()
		return nil, err
	}

	logger.InfoContext(ctx, "cart runtime ready",
		"module", "bootstrap",
		"layer", "runtime",
		"operation", "new_runtime",
		"outcome", "success",
		"storage_backend", cfg.ResolvedStorageBackend(),
		"remote_sync", cfg.RemoteCartURL != "",
		"kafka", len(cfg.KafkaBrokers) > 0,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		health:     healthSrv,
		events:     queued,
		carts:      carts,
		cleanupFn: func(ctx context.Context) {
			closeAll()
		},
	}, nil
}

// buildVendorLookup picks the vendor directory once: postgres when a database
// is configured, fixtures otherwise. Redis, when present, fronts either.
func buildVendorLookup(cfg Config, logger *slog.Logger, db *gorm.DB, redisClient *redis.Client) (ports.VendorLookup, error) {
	var lookup ports.VendorLookup
	if db != nil {
		lookup = postgres.NewRepositories(db).Vendors
	} else {
		fixtures, err := vendors.LoadFixtureDirectory(cfg.VendorFixturesPath)
		if err != nil {
			return nil, err
		}
		lookup = fixtures
	}
	if redisClient != nil {
		lookup = vendors.NewCachedLookup(lookup, cache.NewRedisVendorCache(redisClient, cfg.VendorCacheTTL), logger)
	}
	return lookup, nil
}

func buildSnapshotStore(cfg Config, db *gorm.DB, redisClient *redis.Client) ports.SnapshotStore {
	switch cfg.ResolvedStorageBackend() {
	case StorageBackendRedis:
		return cache.NewRedisSnapshotStore(redisClient, cfg.SnapshotTTL)
	case StorageBackendPostgres:
		return postgres.NewRepositories(db).Snapshots
	default:
		return memory.NewSnapshotStore()
	}
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 3)

	eventsCtx, stopEvents := context.WithCancel(context.Background())
	eventsDone := make(chan struct{})
	go func() {
		defer close(eventsDone)
		_ = r.events.Run(eventsCtx)
	}()
	go r.carts.RunEviction(ctx, evictionInterval(r.cfg.EngineIdleTTL))
	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	r.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	// recompute passes outlive their requests; let them persist and publish
	// before the stores and the event queue go away
	if err := r.carts.WaitAll(shutdownCtx); err != nil {
		r.logger.WarnContext(shutdownCtx, "cart recomputes still running at shutdown",
			"module", "bootstrap",
			"layer", "runtime",
			"operation", "shutdown",
			"outcome", "timeout",
			"error", err,
		)
	}
	stopEvents()
	select {
	case <-eventsDone:
	case <-shutdownCtx.Done():
	}
	r.cleanupFn(shutdownCtx)
	r.logger.Info("cart runtime stopped", "open_carts", r.carts.Len())
	return nil
}

func evictionInterval(idleTTL time.Duration) time.Duration {
	if idleTTL <= 0 || idleTTL > 10*time.Minute {
		return time.Minute
	}
	return idleTTL / 2
}
