package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/staybook/reviews/internal/auth"
	"github.com/staybook/reviews/internal/client"
	"github.com/staybook/reviews/internal/config"
	"github.com/staybook/reviews/internal/event"
	handler "github.com/staybook/reviews/internal/handler/http"
	"github.com/staybook/reviews/internal/repository/postgres"
	"github.com/staybook/reviews/internal/service"
	"github.com/staybook/reviews/migrations"
	"github.com/staybook/reviews/pkg/database"
	"github.com/staybook/reviews/pkg/health"
	"github.com/staybook/reviews/pkg/httpclient"
	pkgkafka "github.com/staybook/reviews/pkg/kafka"
)

// App wires together all dependencies and runs the review service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	prometheus.MustRegister(database.NewPoolStatsCollector(pool, "review"))

	// Database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Kafka producer for review lifecycle events.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Downstream service clients, each behind its own circuit breaker.
	base := httpclient.New(httpclient.DefaultConfig())
	bookingClient := client.NewBookingClient(
		httpclient.NewBreakerClient(base, httpclient.DefaultBreakerConfig("booking"), logger),
		cfg.BookingServiceURL,
	)
	catalogClient := client.NewCatalogClient(
		httpclient.NewBreakerClient(base, httpclient.DefaultBreakerConfig("catalog"), logger),
		cfg.CatalogServiceURL,
	)
	mediaClient := client.NewMediaClient(
		httpclient.NewBreakerClient(base, httpclient.DefaultBreakerConfig("media"), logger),
		cfg.MediaServiceURL,
	)

	// Dependency graph.
	verifier := auth.NewVerifier(cfg.JWTSecret)
	reviewRepo := postgres.NewReviewRepository(pool)
	eventProducer := event.NewProducer(producer, logger)
	reviewService := service.NewReviewService(reviewRepo, bookingClient, catalogClient, mediaClient, eventProducer, logger)
	responseService := service.NewResponseService(reviewRepo, catalogClient, eventProducer, logger)
	moderationService := service.NewModerationService(reviewRepo, catalogClient, eventProducer, logger)
	analyticsService := service.NewAnalyticsService(reviewRepo, catalogClient, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(
		reviewService,
		responseService,
		moderationService,
		analyticsService,
		verifier.ValidateAccessToken,
		healthHandler,
		logger,
		handler.RouterConfig{
			RequestTimeout: cfg.RequestTimeout,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: drain in-flight HTTP requests,
// close the Kafka producer, then close the PostgreSQL pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
