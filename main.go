package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/storefront/internal/config"
	domsession "example.com/storefront/internal/domain/session"
	"example.com/storefront/internal/infra/catalogapi"
	"example.com/storefront/internal/infra/persistence/memory"
	"example.com/storefront/internal/infra/persistence/mysql"
	"example.com/storefront/internal/infra/persistence/postgres"
	"example.com/storefront/internal/infra/persistence/redis"
	"example.com/storefront/internal/infra/security"
	"example.com/storefront/internal/infra/sessionstore"
	httpapi "example.com/storefront/internal/interface/http"
	authuc "example.com/storefront/internal/usecase/auth"
	detailuc "example.com/storefront/internal/usecase/detail"
	listinguc "example.com/storefront/internal/usecase/listing"
	productuc "example.com/storefront/internal/usecase/product"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("storefront stopped", zap.Error(err))
	}
}

// sessionBackend is the key-value store sessions live in, plus its
// background upkeep and a health probe.
type sessionBackend struct {
	kv          domsession.KeyValue
	maintenance func(ctx context.Context)
	ping        httpapi.HealthCheck
	close       func()
}

func openSessionBackend(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*sessionBackend, error) {
	switch cfg.Session.Backend {
	case "redis":
		rdb, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return &sessionBackend{
			kv:    redis.NewKV(rdb),
			ping:  func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			close: func() { _ = rdb.Close() },
		}, nil

	case "mysql":
		db, err := mysql.Open(ctx, cfg.MySQL.DSN)
		if err != nil {
			return nil, err
		}
		repo := mysql.NewKVRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &sessionBackend{
			kv:   repo,
			ping: db.PingContext,
			maintenance: func(ctx context.Context) {
				ticker := time.NewTicker(time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						n, err := repo.PurgeExpired(ctx)
						if err != nil {
							lg.Warn("purge expired sessions", zap.Error(err))
							continue
						}
						if n > 0 {
							lg.Debug("purged expired sessions", zap.Int64("rows", n))
						}
					}
				}
			},
			close: func() { _ = db.Close() },
		}, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		kv := postgres.NewKV(pool)
		if err := kv.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &sessionBackend{
			kv:    kv,
			ping:  pool.Ping,
			close: pool.Close,
		}, nil
	}

	kv := memory.NewKV()
	return &sessionBackend{
		kv:          kv,
		maintenance: func(ctx context.Context) { kv.Sweep(ctx, time.Minute) },
		close:       func() {},
	}, nil
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	backend, err := openSessionBackend(ctx, cfg, lg)
	if err != nil {
		return errors.Wrapf(err, "open %s session backend", cfg.Session.Backend)
	}
	defer backend.close()
	lg.Info("session backend ready", zap.String("backend", cfg.Session.Backend))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := catalogapi.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, catalogapi.WithMetrics(registry))
	sessions := sessionstore.New(backend.kv, cfg.Session.TTL, security.NewTokenInspector())

	health := map[string]httpapi.HealthCheck{}
	if backend.ping != nil {
		health["session_"+cfg.Session.Backend] = backend.ping
	}

	api, err := httpapi.NewAPI(httpapi.Dependencies{
		Fetcher:  listinguc.NewFetcher(client, lg.Named("listing")),
		PageSize: cfg.Listing.PageSize,
		Detail:   detailuc.NewController(client, lg.Named("detail")),
		AuthService: authuc.NewService(client, sessions, sessions,
			authuc.WithClearTokenOnLogout(cfg.Session.LogoutClearsToken),
			authuc.WithLogger(lg.Named("auth")),
		),
		ProductService: productuc.NewService(client, lg.Named("product")),
		Sessions:       sessions,
		Logger:         lg.Named("http"),
		Registry:       registry,
		Cookie: httpapi.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			TTL:    cfg.Session.TTL,
		},
		RateLimit: httpapi.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
		HealthChecks: health,
	})
	if err != nil {
		return errors.Wrap(err, "build http api")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		api.RunMaintenance(gctx)
		return nil
	})
	if backend.maintenance != nil {
		g.Go(func() error {
			backend.maintenance(gctx)
			return nil
		})
	}
	g.Go(func() error {
		lg.Info("server listening", zap.String("addr", cfg.HTTPAddr), zap.String("catalog", cfg.Catalog.BaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		lg.Info("shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	return g.Wait()
}
