package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/cache"
	"github.com/Skotchmaster/coffee_shop/internal/config"
	"github.com/Skotchmaster/coffee_shop/internal/db"
	"github.com/Skotchmaster/coffee_shop/internal/es"
	"github.com/Skotchmaster/coffee_shop/internal/httpserver"
	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/metrics"
	"github.com/Skotchmaster/coffee_shop/internal/migrate"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("shop_stopped_with_error", "error", err)
		os.Exit(1)
	}
	logger.Info("shop_stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := logging.IntoContext(context.Background(), logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(openCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if err := migrate.Up(ctx, gdb, cfg.DBDriver); err != nil {
		return err
	}

	r := repo.New(gdb)
	productCache, closeCache := newCache(ctx, cfg, logger)
	defer closeCache()
	index := newIndex(ctx, cfg, logger)
	producer := newProducer(cfg, logger)
	defer producer.Close()
	m := metrics.New()

	catalog := &service.CatalogService{Repo: r, Cache: productCache, Index: index, Serialized: cfg.CartSerialized}
	carts := &service.CartService{Repo: r, Serialized: cfg.CartSerialized}
	auth := &service.AuthService{Repo: r}

	if _, err := carts.EnsureActiveCart(ctx); err != nil {
		return err
	}
	if cfg.SeedUserEmail != "" {
		created, err := auth.SeedUser(ctx, cfg.SeedUserEmail, cfg.SeedUserPassword)
		if err != nil {
			return err
		}
		logger.Info("seed_user", "email", cfg.SeedUserEmail, "created", created)
	}

	e := httpserver.New(logger, cfg.CORSAllowOrigins, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog, Producer: producer, Metrics: m},
		CartHandler:    &httpserver.CartHTTP{Svc: carts, Producer: producer, Metrics: m},
		AuthHandler:    &httpserver.AuthHTTP{Svc: auth, Producer: producer},
		Metrics:        m,
		Ready:          readiness(gdb, r),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("shop_listening", "addr", srv.Addr, "db_driver", cfg.DBDriver, "serialized", cfg.CartSerialized)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// readiness fails when the database is unreachable or the active cart is missing.
func readiness(gdb *gorm.DB, r *repo.GormRepo) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
		n, err := r.CountActive(ctx)
		if err != nil {
			return err
		}
		if n != 1 {
			return errors.New("expected exactly one active cart")
		}
		return nil
	}
}

func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.ProductCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.Noop{}, func() {}
	}
	c, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	if err != nil {
		logger.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err)
		return cache.Noop{}, func() {}
	}
	return c, func() { _ = c.Close() }
}

func newIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) es.ProductIndex {
	if cfg.ESURL == "" {
		return es.Disabled{}
	}
	client, err := es.NewClient(ctx, es.ClientConfig{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, logger)
	if err != nil {
		logger.Warn("es_unavailable", "url", cfg.ESURL, "error", err)
		return es.Disabled{}
	}
	return es.NewProducts(client, cfg.ESIndex)
}

func newProducer(cfg *config.Config, logger *slog.Logger) mykafka.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return mykafka.Noop{}
	}
	p, err := mykafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		logger.Warn("kafka_unavailable", "error", err)
		return mykafka.Noop{}
	}
	return p
}
