package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/libs/httpx"
	"github.com/md-rashed-zaman/bizsites/libs/kafkax"
	otelx "github.com/md-rashed-zaman/bizsites/libs/otel"
	"github.com/md-rashed-zaman/bizsites/libs/runtime"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/config"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/dispatch"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/bizsites/services/notification-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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
		logger.Error("notification-service stopped with error", "err", err)
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

	dispatcher, err := dispatch.New(
		email.NewSMTPSender(cfg.SMTP),
		sms.New(cfg.SMS),
		storage.NewRepository(pool),
		logger,
	)
	if err != nil {
		return err
	}

	reader := consumer.NewReader(consumer.Config{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topics:  cfg.Kafka.Topics,
	})
	events := consumer.New(logger, reader, inbox.NewRepository(pool), dispatcher.Handle)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.Kafka.Brokers)},
	)
	mux.Handle("/metrics", promhttp.Handler())
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("consumer starting", "topics", cfg.Kafka.Topics, "group_id", cfg.Kafka.GroupID)
		return events.Run(gctx)
	})

	g.Go(func() error {
		return runtime.ServeHTTP(gctx, srv, 10*time.Second, logger)
	})

	return g.Wait()
}
