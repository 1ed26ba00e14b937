package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/bizsites/libs/auth"
	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/libs/grpcx"
	"github.com/md-rashed-zaman/bizsites/libs/httpx"
	"github.com/md-rashed-zaman/bizsites/libs/kafkax"
	otelx "github.com/md-rashed-zaman/bizsites/libs/otel"
	"github.com/md-rashed-zaman/bizsites/libs/runtime"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/account"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/booking"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/business"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/config"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/handlers"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/notify"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/outbox"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/site"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		runtime.NewLogger(config.ServiceName).Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLoggerWithOptions(config.ServiceName, cfg.Log)

	if err := run(cfg, logger); err != nil {
		logger.Error("site-service stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, cfg.Trace)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.Database.URL, cfg.Database.Pool)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := pool.ApplySchema(ctx, storage.Schema); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	businessRepo := storage.NewBusinessRepository(pool)
	appointmentRepo := storage.NewAppointmentRepository(pool)
	userRepo := storage.NewUserRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	businesses := business.New(businessRepo, cfg.Deployment, logger)
	bookings := booking.New(appointmentRepo, businessRepo, notify.NewOutboxNotifier(outboxRepo), logger, cfg.Location())
	accounts := account.New(userRepo, issuer, logger)

	if cfg.Auth.AdminEmail != "" {
		if err := accounts.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			return err
		}
	}

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	var checkLimiter, bookLimiter httpx.Limiter
	switch cfg.RateLimit.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		checkLimiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimit.Check, cfg.RateLimit.Window)
		bookLimiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimit.Book, cfg.RateLimit.Window)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	default:
		checkLimiter = httpx.NewMemoryRateLimiter(cfg.RateLimit.Check, cfg.RateLimit.Window)
		bookLimiter = httpx.NewMemoryRateLimiter(cfg.RateLimit.Book, cfg.RateLimit.Window)
	}
	if cfg.Outbox.Enabled {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.Outbox.Brokers)})
	}

	renderer, err := site.NewRenderer()
	if err != nil {
		return err
	}
	sites := site.NewHandler(businesses, renderer, cfg.Deployment, logger)

	api := handlers.New(businesses, bookings, accounts, logger)
	router := api.Routes(handlers.Options{
		Verifier:      issuer,
		CheckLimiter:  checkLimiter,
		BookLimiter:   bookLimiter,
		LimitFailOpen: cfg.RateLimit.FailOpen,
		Site:          sites.ServeSlug,
	})
	runtime.MountProbes(router, checks...)
	router.Handle("/metrics", promhttp.Handler())

	handler := httpx.Chain(sites.Hosts(router),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(cfg.CORS),
		httpx.WithBodyLimit(cfg.HTTP.BodyLimitBytes),
		httpx.WithTimeout(cfg.HTTP.RequestTimeout),
	)
	handler = otelhttp.NewHandler(handler, "site")
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcLis net.Listener
	if cfg.GRPC.Addr != "" {
		if grpcLis, err = net.Listen("tcp", cfg.GRPC.Addr); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runtime.ServeHTTP(gctx, srv, cfg.HTTP.ShutdownTimeout, logger)
	})

	if grpcLis != nil {
		grpcSrv, health := grpcx.NewServer()
		g.Go(func() error {
			return grpcx.Serve(gctx, grpcLis, grpcSrv, health, logger)
		})
	}

	if cfg.Outbox.Enabled {
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.Outbox.Brokers,
			PollEvery: cfg.Outbox.PollEvery,
			BatchSize: cfg.Outbox.BatchSize,
		})
		g.Go(func() error {
			if err := publisher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
