package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"infohub/internal/address"
	"infohub/internal/backend"
	"infohub/internal/config"
	"infohub/internal/db"
	"infohub/internal/httpserver"
	"infohub/internal/localstore"
	"infohub/internal/migrate"
	"infohub/internal/repository/centroid"
	"infohub/internal/service/catalog"
	"infohub/internal/service/feed"
	"infohub/internal/service/points"
	"infohub/internal/service/session"
)

const catalogCachePrefix = "infohub:catalog:"

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load(os.Getenv("INFOHUB_CONFIG"))
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	var dbpool *pgxpool.Pool
	if cfg.StoreDriver == config.StorePostgres || cfg.CentroidCatalog {
		dbpool, err = db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer dbpool.Close()
		if err := migrate.Apply(ctx, dbpool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
	}

	var (
		rdb         *redis.Client
		readyChecks []func(context.Context) error
	)
	if cfg.StoreDriver == config.StoreRedis {
		rdb, err = localstore.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		defer rdb.Close()
		readyChecks = append(readyChecks, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	var store, cache localstore.Store
	switch cfg.StoreDriver {
	case config.StoreRedis:
		store = localstore.NewRedis(rdb)
		cache = localstore.WithPrefix(localstore.NewRedis(rdb, localstore.WithExpiry(cfg.CatalogCacheTTL)), catalogCachePrefix)
	case config.StorePostgres:
		store = localstore.NewPostgres(dbpool)
		cache = localstore.NewMemory()
	case config.StoreMemory:
		store = localstore.NewMemory()
		cache = localstore.NewMemory()
	default:
		logger.Fatalf("unknown store driver %q", cfg.StoreDriver)
	}
	logger.Printf("local store driver=%s", cfg.StoreDriver)

	api := backend.New(cfg.BackendURL, nil, logger)

	resolverOpts := []address.Option{address.WithGeocodeTimeout(cfg.GeocodeTimeout)}
	if cfg.CentroidCatalog {
		resolverOpts = append(resolverOpts, address.WithCentroidCatalog(centroid.NewPostgres(dbpool, logger)))
	}
	resolver := address.NewResolver(
		address.NewViaCEP(cfg.PostalDirectoryURL, nil),
		address.NewProxyGeocoder(cfg.GeocoderURL, cfg.GeocodeRatePerSecond),
		logger,
		resolverOpts...,
	)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions:    session.New(api, store, api, cfg.SessionTTL, logger),
		Address:     resolver,
		Catalog:     catalog.New(api, cache, logger),
		Points:      points.New(api, logger),
		Feed:        feed.New(api, logger),
		CORSOrigins: cfg.CORSOrigins,
		ReadyChecks: readyChecks,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s backend=%s", cfg.HTTPAddr, cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
