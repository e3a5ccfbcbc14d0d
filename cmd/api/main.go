package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/handcar/handcar-backend/api/routes"
	"github.com/handcar/handcar-backend/internal/addresses"
	"github.com/handcar/handcar-backend/internal/cart"
	"github.com/handcar/handcar-backend/internal/geocoding"
	"github.com/handcar/handcar-backend/internal/interactions"
	"github.com/handcar/handcar-backend/internal/inventory"
	"github.com/handcar/handcar-backend/internal/orders"
	"github.com/handcar/handcar-backend/internal/products"
	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/internal/subscriptions"
	"github.com/handcar/handcar-backend/internal/vendors"
	"github.com/handcar/handcar-backend/internal/wishlist"
	"github.com/handcar/handcar-backend/pkg/config"
	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/env"
	"github.com/handcar/handcar-backend/pkg/instance"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/maps"
	"github.com/handcar/handcar-backend/pkg/metrics"
	"github.com/handcar/handcar-backend/pkg/migrate"
	"github.com/handcar/handcar-backend/pkg/outbox"
	"github.com/handcar/handcar-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc, err := buildServices(cfg, logg, m, dbClient, redisClient)
	if err != nil {
		return err
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
			Metrics:     m,
			Gatherer:    reg,
		}, *svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, m *metrics.Metrics, dbClient *db.Client, redisClient *redis.Client) (*routes.Services, error) {
	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	productRepo := products.NewRepository(conn)
	vendorRepo := vendors.NewRepository(conn)

	resolver, err := buildResolver(cfg, logg, m, redisClient)
	if err != nil {
		return nil, err
	}

	ratingSvc, err := ratings.NewService(ratings.NewRepository(conn), logg)
	if err != nil {
		return nil, err
	}
	productSvc, err := products.NewService(productRepo, ratingSvc, logg)
	if err != nil {
		return nil, err
	}
	vendorSvc, err := vendors.NewService(vendors.ServiceParams{
		Repo:           vendorRepo,
		Geocoder:       resolver,
		Ratings:        ratingSvc,
		Logger:         logg,
		SearchRadiusKm: cfg.Matching.SearchRadiusKm,
	})
	if err != nil {
		return nil, err
	}
	cartSvc, err := cart.NewService(cart.NewRepository(conn), dbClient, productRepo, logg)
	if err != nil {
		return nil, err
	}
	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(conn), productRepo)
	if err != nil {
		return nil, err
	}

	addressSvc, err := addresses.NewService(addresses.NewRepository(conn), dbClient, logg)
	if err != nil {
		return nil, err
	}

	ledger, err := inventory.NewLedger(inventory.LedgerParams{
		DB:         dbClient,
		Stock:      productRepo,
		Logger:     logg,
		Metrics:    m,
		MaxRetries: cfg.Inventory.MaxRetries,
		RetryBase:  cfg.Inventory.RetryBase,
	})
	if err != nil {
		return nil, err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(conn),
		DB:        dbClient,
		Ledger:    ledger,
		Cart:      cartSvc,
		Addresses: addressSvc,
		Outbox:    outboxSvc,
		Logger:    logg,
		Metrics:   m,
	})
	if err != nil {
		return nil, err
	}

	subscriptionSvc, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:     subscriptions.NewRepository(conn),
		DB:       dbClient,
		Geocoder: resolver,
		Vendors:  vendorSvc,
		Outbox:   outboxSvc,
		Logger:   logg,
		RadiusKm: cfg.Matching.SubscriptionRadiusKm,
	})
	if err != nil {
		return nil, err
	}
	interactionSvc, err := interactions.NewService(interactions.ServiceParams{
		Repo:    interactions.NewRepository(conn),
		DB:      dbClient,
		Vendors: vendorRepo,
		Outbox:  outboxSvc,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}

	return &routes.Services{
		Vendors:       vendorSvc,
		Products:      productSvc,
		Ratings:       ratingSvc,
		Cart:          cartSvc,
		Wishlist:      wishlistSvc,
		Addresses:     addressSvc,
		Orders:        orderSvc,
		Subscriptions: subscriptionSvc,
		Interactions:  interactionSvc,
	}, nil
}

func buildResolver(cfg *config.Config, logg *logger.Logger, m *metrics.Metrics, redisClient *redis.Client) (*geocoding.Resolver, error) {
	provider, err := maps.NewClient(cfg.Geocoding.APIKey, maps.WithBaseURL(cfg.Geocoding.BaseURL))
	if err != nil {
		return nil, err
	}

	var store geocoding.Store
	switch cfg.Geocoding.CacheBackend {
	case config.GeocodeCacheMemory:
		store = geocoding.NewMemoryStore(cfg.Geocoding.CacheTTL, cfg.Geocoding.CacheMaxEntries)
	default:
		store, err = geocoding.NewRedisStore(redisClient, cfg.Geocoding.CacheTTL)
		if err != nil {
			return nil, err
		}
	}

	return geocoding.NewResolver(geocoding.ResolverParams{
		Provider: provider,
		Store:    store,
		Logger:   logg,
		Metrics:  m,
		Timeout:  cfg.Geocoding.Timeout,
	})
}
