package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"

	"cmsapi/docs"
	"cmsapi/internal/clock"
	"cmsapi/internal/config"
	"cmsapi/internal/delivery"
	handlers "cmsapi/internal/http/handler"
	"cmsapi/internal/http/middleware"
	"cmsapi/internal/logging"
	"cmsapi/internal/otel"
	"cmsapi/internal/reminder"
	"cmsapi/internal/scheduler"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the reminder and delivery workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.Load())
		},
	}
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	a, err := bootstrap(ctx, cfg, clock.System)
	if err != nil {
		return err
	}
	defer a.close()

	// The evaluator reads thresholds from the settings on every tick so an
	// admin's change applies without a restart.
	evaluator := reminder.NewEvaluator(a.deps.Store, a.deps.Trail, a.svcs.Settings, a.deps.Clock, a.metrics)
	queue := delivery.NewQueue(a.deps.Store, a.deps.Trail, a.deps.Clock, a.metrics)

	workers := scheduler.NewGroup(ctx)
	workers.Every("reminder", cfg.Scheduler.ReminderInterval(), func(ctx context.Context) error {
		_, err := evaluator.Tick(ctx)
		return err
	})
	workers.Every("delivery", cfg.Scheduler.DeliveryInterval(), func(ctx context.Context) error {
		_, err := queue.Tick(ctx)
		return err
	})

	app := fiber.New(fiber.Config{
		AppName:      "cmsapi",
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    20 * 1024 * 1024,
	})

	prom, err := middleware.NewPrometheusMiddleware(a.registry)
	if err != nil {
		return err
	}

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(prom.Handler())

	handlers.RegisterRoutes(app, a.db, a.svcs, handlers.Options{
		Metrics:      a.registry,
		LoginLimiter: middleware.RateLimit(float64(cfg.Auth.LoginRatePerSec), cfg.Auth.LoginRateBurst),
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	listenErr := make(chan error, 1)
	go func() {
		logging.Info("app", "listening", map[string]any{"addr": addr})
		listenErr <- app.Listen(addr)
	}()

	select {
	case err = <-listenErr:
		logging.Error("app", "listen_failed", err, map[string]any{"addr": addr})
	case <-ctx.Done():
		sctx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		err = app.ShutdownWithContext(sctx)
	}
	cancel()

	if werr := workers.Wait(); werr != nil && err == nil {
		err = werr
	}
	logging.Info("app", "stopped", nil)
	return err
}
