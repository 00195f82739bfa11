package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/consultation-booking/config"
	"github.com/Eursukkul/consultation-booking/internal/consumer"
	"github.com/Eursukkul/consultation-booking/internal/fallback"
	"github.com/Eursukkul/consultation-booking/internal/handler"
	"github.com/Eursukkul/consultation-booking/internal/metrics"
	"github.com/Eursukkul/consultation-booking/internal/middleware"
	"github.com/Eursukkul/consultation-booking/internal/notify"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/repository"
	"github.com/Eursukkul/consultation-booking/internal/schedule"
	"github.com/Eursukkul/consultation-booking/internal/service"
	"github.com/Eursukkul/consultation-booking/internal/validate"
	"github.com/Eursukkul/consultation-booking/pkg/database"
	"github.com/Eursukkul/consultation-booking/pkg/logging"
	"github.com/Eursukkul/consultation-booking/pkg/obs"
	"github.com/Eursukkul/consultation-booking/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const serviceName = "consultation-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel).With("service", serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("tracer init failed", "error", err)
		os.Exit(1)
	}

	dsn, err := cfg.DSN()
	if err != nil {
		logger.Error("invalid store url", "error", err)
		os.Exit(1)
	}
	db, err := database.NewPostgresDB(dsn)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	// Schedule
	hours, err := schedule.NewHours(cfg.Schedule.OpensAt, cfg.Schedule.ClosesAt, cfg.Schedule.SlotInterval)
	if err != nil {
		logger.Error("invalid business hours", "error", err)
		os.Exit(1)
	}
	catalog := schedule.NewCatalog(cfg.Origin(), hours, cfg.Schedule.DaysAhead)
	validator := validate.New(catalog, cfg.Schedule.HorizonDays)

	// Form sessions: shared in Redis when configured, otherwise per process.
	var sessions ratelimit.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("redis unavailable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		sessions = ratelimit.NewRedisStore(rdb, cfg.RateLimit.SessionTTL, nil)
	} else {
		sessions = ratelimit.NewMemoryStore(cfg.RateLimit.SessionSize, cfg.RateLimit.SessionTTL, nil)
	}
	limiter := ratelimit.NewLimiter(ratelimit.Policy{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Window:      cfg.RateLimit.Window,
		MinFillTime: cfg.RateLimit.MinFillTime,
	}, nil)

	// Owner notifications
	var sender notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.NotifyFromEmail,
		FromName:  cfg.NotifyFromName,
	}, logger); sg != nil {
		sender = sg
	}
	notifier := notify.NewOwnerNotifier(sender, cfg.NotifyToEmail)

	formMetrics := metrics.NewFormMetrics(nil)
	fallbackClient := fallback.NewClient(cfg.FallbackFormURL, cfg.FallbackTimeout)

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	contactRepo := repository.NewContactRepository(db)

	// RabbitMQ is optional. A nil publisher disables event publishing.
	var publisher service.EventPublisher
	var mqPublisher *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		mqPublisher, err = rabbitmq.NewPublisher(cfg.RabbitURL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer mqPublisher.Close()
		publisher = mqPublisher
	}

	// Services
	availabilitySvc := service.NewAvailabilityService(bookingRepo, catalog, validator, formMetrics, logger, nil)
	bookingSvc := service.NewBookingService(service.BookingDeps{
		Repo:         bookingRepo,
		Catalog:      catalog,
		Validator:    validator,
		Limiter:      limiter,
		Fallback:     fallbackClient,
		Publisher:    publisher,
		Notifier:     notifier,
		Metrics:      formMetrics,
		Logger:       logger,
		DismissAfter: cfg.Schedule.DismissAfter,
	})
	contactSvc := service.NewContactService(service.ContactDeps{
		Repo:      contactRepo,
		Validator: validator,
		Limiter:   limiter,
		Fallback:  fallbackClient,
		Publisher: publisher,
		Notifier:  notifier,
		Metrics:   formMetrics,
		Logger:    logger,
	})

	// Status updates from the administrative tooling
	if cfg.RabbitURL != "" {
		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			logger.Error("failed to start consuming", "error", err)
			os.Exit(1)
		}
		consumer.NewStatusConsumer(bookingSvc, logger).Start(msgs)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.Use(echoMw.Recover())
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(echoMw.CORSWithConfig(echoMw.CORSConfig{
			AllowOrigins: cfg.AllowedOrigins,
			AllowHeaders: []string{echo.HeaderContentType, handler.SessionHeader},
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	gate := handler.NewSessionGate(sessions, logger)
	bookingHandler := handler.NewBookingHandler(bookingSvc, gate)
	contactHandler := handler.NewContactHandler(contactSvc, gate)

	gate.RegisterRoutes(e)
	handler.NewSlotHandler(availabilitySvc).RegisterRoutes(e)
	bookingHandler.RegisterRoutes(e)
	contactHandler.RegisterRoutes(e)

	if cfg.AdminAPIKey != "" {
		admin := e.Group("/api/v1/admin", middleware.AdminKeyAuth(cfg.AdminAPIKey))
		bookingHandler.RegisterAdminRoutes(admin)
		contactHandler.RegisterAdminRoutes(admin)
	} else {
		logger.Warn("ADMIN_API_KEY not set, admin routes disabled")
	}

	go func() {
		logger.Info("consultation service starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", "error", err)
	}
	logger.Info("consultation service stopped")
}
