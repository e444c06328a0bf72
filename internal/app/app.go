package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/dal/postgres"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/redis"
	auditrepo "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/audit/postgres"
	eventrepo "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/event/rabbitmq"
	menuitemrepo "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/menuitem/postgres"
	notificationrepo "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/notification/postgres"
	orderrepo "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/outbox/postgres"
	reportrepo "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/report/postgres"
	reportcache "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/reportcache/redis"
	"github.com/corray333/backend-labs/fulfillment/internal/lease"
	"github.com/corray333/backend-labs/fulfillment/internal/otel"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/currency"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/inventorysvc"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/lifecyclesvc"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/reportsvc"
	httptransport "github.com/corray333/backend-labs/fulfillment/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/fulfillment/internal/worker/outbox"
	reportworker "github.com/corray333/backend-labs/fulfillment/internal/worker/report"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	reportWorker   *reportworker.Worker
	postgresClient *postgres.Client
	redisClient    *redis.Client
	rabbitClient   *rabbitmq.Client
	otel           *otel.OtelController
}

// MustNewApp connects every backing service and wires the services onto them.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	redisClient := redis.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	pool := postgresClient.Pool()
	outboxRepo := outboxrepo.NewOutboxRepository(pool)
	orderRepo := orderrepo.NewPostgresOrderRepository(pool)

	notifier := notifysvc.MustNewNotificationService(
		notifysvc.WithNotificationRepository(notificationrepo.NewPostgresNotificationRepository(pool)),
		notifysvc.WithEventRepository(eventrepo.MustNewEventRabbitMQRepository(rabbitClient, outboxRepo)),
	)

	ledger := inventorysvc.MustNewLedger(
		inventorysvc.WithMenuItemRepository(menuitemrepo.NewPostgresMenuItemRepository(pool)),
	)

	reportSvc := reportsvc.MustNewReportService(
		reportsvc.WithReportRepository(reportrepo.NewPostgresReportRepository(pool)),
		reportsvc.WithOrderRepository(orderRepo),
		reportsvc.WithCache(reportcache.NewReportCache(redisClient.RDB(), viper.GetDuration("reports.cache_ttl"))),
		reportsvc.WithLocation(mustLoadLocation(viper.GetString("reports.timezone"))),
		reportsvc.WithCurrency(mustParseCurrency(viper.GetString("reports.currency"))),
		reportsvc.WithRetry(viper.GetInt("reports.retry.max_attempts"), viper.GetDuration("reports.retry.base_delay")),
		reportsvc.WithWarmDays(viper.GetInt("reports.warm_days")),
	)

	lifecycleSvc := lifecyclesvc.MustNewLifecycleService(
		lifecyclesvc.WithOrderRepository(orderRepo),
		lifecyclesvc.WithOrderItemRepository(orderitemrepo.NewPostgresOrderItemRepository(pool)),
		lifecyclesvc.WithAuditRepository(auditrepo.NewPostgresAuditRepository(pool)),
		lifecyclesvc.WithLedger(ledger),
		lifecyclesvc.WithNotifier(notifier),
		lifecyclesvc.WithLocker(mustNewLocker(redisClient)),
		lifecyclesvc.WithRevenueInvalidator(reportSvc),
		lifecyclesvc.WithStrictTransitions(viper.GetBool("orders.strict_transitions")),
		lifecyclesvc.WithOnFulfillmentMethod(viper.GetString("payments.on_fulfillment_method")),
		lifecyclesvc.WithProofBaseURL(viper.GetString("payments.proof_base_url")),
	)

	transport := httptransport.NewHTTPTransport(lifecycleSvc, reportSvc, notifier)
	transport.RegisterRoutes()

	return &App{
		transport:      transport,
		outboxWorker:   outboxworker.NewWorker(outboxRepo, rabbitClient),
		reportWorker:   reportworker.NewWorker(reportSvc),
		postgresClient: postgresClient,
		redisClient:    redisClient,
		rabbitClient:   rabbitClient,
		otel:           otelController,
	}
}

func mustNewLocker(redisClient *redis.Client) lease.Locker {
	wait := viper.GetDuration("lease.wait")
	if viper.GetString("lease.backend") == "local" {
		slog.Warn("Using in-process order lease; run a single replica")

		return lease.NewLocalLocker(wait)
	}

	return lease.NewRedisLocker(
		redisClient.RDB(),
		viper.GetDuration("lease.ttl"),
		wait,
		viper.GetDuration("lease.poll_interval"),
	)
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("invalid reports.timezone: " + err.Error())
	}

	return loc
}

func mustParseCurrency(s string) currency.Currency {
	c, err := currency.ParseCurrency(s)
	if err != nil {
		panic("invalid reports.currency: " + err.Error())
	}

	return c
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	workers.Add(2)
	go func() {
		defer workers.Done()
		a.outboxWorker.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		a.reportWorker.Start(workerCtx)
	}()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("server.http.shutdown_timeout"))
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	cancelWorkers()
	workers.Wait()
	slog.Info("Workers stopped")

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	if err := a.redisClient.Close(); err != nil {
		slog.Error("Redis connection close error", "error", err)
	} else {
		slog.Info("Redis connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
