// Package main запускает HTTP-сервер административной панели магазина.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storeadmin/internal/cache"
	"github.com/mmeshcher/storeadmin/internal/config"
	"github.com/mmeshcher/storeadmin/internal/events"
	"github.com/mmeshcher/storeadmin/internal/handler"
	"github.com/mmeshcher/storeadmin/internal/metrics"
	"github.com/mmeshcher/storeadmin/internal/middleware"
	"github.com/mmeshcher/storeadmin/internal/notification"
	"github.com/mmeshcher/storeadmin/internal/push"
	"github.com/mmeshcher/storeadmin/internal/repository"
	"github.com/mmeshcher/storeadmin/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()

	if err := run(logger); err != nil {
		logger.Error("application terminated with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run собирает зависимости и блокируется до остановки сервера.
// Отложенные Close выполняются до выхода из процесса.
func run(logger *zap.Logger) error {
	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI, repository.WithMaxConns(cfg.DatabaseMaxConns))
	if err != nil {
		return fmt.Errorf("database initialization error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	pushClient := push.NewClient(cfg.PushEndpoint, cfg.PushRetryMax)
	dispatcher := notification.NewDispatcher(repo, pushClient, repo, m, logger.Named("notification"))

	opts := []service.Option{
		service.WithOrdersCache(cache.NewOrdersView()),
		service.WithMetrics(m),
	}

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if publisher != nil {
		opts = append(opts, service.WithEventPublisher(publisher))
		defer publisher.Close()
		sugar.Infow("publishing order events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	svc := service.NewService(repo, dispatcher, logger.Named("service"), opts...)
	defer svc.Close()

	if cfg.SessionSecret == "" {
		sugar.Warn("SESSION_SECRET is empty, admin sessions will be rejected")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, logger, authMiddleware, m)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Повторная доставка уведомлений из очереди
	g.Go(func() error {
		dispatcher.StartRedelivery(ctx, cfg.RedeliveryInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting storeadmin server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
