package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	appmetrics "github.com/corray333/backend-labs/fulfillment/internal/metrics"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/lifecyclesvc"
	getorder "github.com/corray333/backend-labs/fulfillment/internal/transport/http/get_order"
	listorders "github.com/corray333/backend-labs/fulfillment/internal/transport/http/list_orders"
	"github.com/corray333/backend-labs/fulfillment/internal/transport/http/notifications"
	"github.com/corray333/backend-labs/fulfillment/internal/transport/http/reports"
	stockapplications "github.com/corray333/backend-labs/fulfillment/internal/transport/http/stock_applications"
	submitpayment "github.com/corray333/backend-labs/fulfillment/internal/transport/http/submit_payment"
	transitionorder "github.com/corray333/backend-labs/fulfillment/internal/transport/http/transition_order"
	"github.com/corray333/backend-labs/fulfillment/pkg/http/middleware/metrics"
	"github.com/corray333/backend-labs/fulfillment/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/fulfillment/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

type lifecycleService interface {
	ListOrders(ctx context.Context, filter order.QueryOrdersModel) (lifecyclesvc.OrderPage, error)
	GetOrder(ctx context.Context, orderID int64) (lifecyclesvc.OrderDetails, error)
	StockApplications(ctx context.Context, orderID int64) ([]auditlog.StockApplication, error)
	TransitionStatus(ctx context.Context, orderID int64, status order.Status, actorUserID string) (lifecyclesvc.Result, error)
	TransitionPaymentStatus(
		ctx context.Context,
		orderID int64,
		status order.PaymentStatus,
		actorUserID string,
	) (lifecyclesvc.Result, error)
	SubmitPayment(ctx context.Context, orderID int64, method string, proofRef string) (lifecyclesvc.OrderDetails, error)
}

type reportService interface {
	Aggregate(ctx context.Context, start, end time.Time, bucket report.Bucket) (report.RevenueReport, error)
	TopItems(ctx context.Context, n int) ([]report.ItemQuantity, error)
	Overview(ctx context.Context) (report.Overview, error)
	DashboardRange(now time.Time) (time.Time, time.Time)
	Location() *time.Location
}

type notificationService interface {
	ListUnread(ctx context.Context, userID string) ([]notification.Notification, error)
	MarkRead(ctx context.Context, id int64, userID string) error
}

type HTTPTransport struct {
	server        *http.Server
	router        *chi.Mux
	lifecycle     lifecycleService
	reports       reportService
	notifications notificationService
}

func NewHTTPTransport(
	lifecycle lifecycleService,
	reports reportService,
	notifications notificationService,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:        server,
		router:        router,
		lifecycle:     lifecycle,
		reports:       reports,
		notifications: notifications,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the router with every registered route.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Handle("/metrics", promhttp.Handler())

	h.router.Route("/api", func(r chi.Router) {
		r.Get("/orders", h.listOrders)
		r.Route("/orders/{id}", func(r chi.Router) {
			r.Get("/", h.getOrder)
			r.Get("/stock-applications", h.listStockApplications)
			r.Post("/status", h.transitionStatus)
			r.Post("/payment-status", h.transitionPaymentStatus)
			r.Post("/payment", h.submitPayment)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/revenue", h.revenue)
			r.Get("/top-items", h.topItems)
			r.Get("/overview", h.overview)
		})

		r.Route("/users/{userId}/notifications", func(r chi.Router) {
			r.Get("/", h.listNotifications)
			r.Post("/{id}/read", h.markNotificationRead)
		})
	})
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.lifecycle)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.lifecycle)
}

func (h *HTTPTransport) listStockApplications(w http.ResponseWriter, r *http.Request) {
	stockapplications.ListStockApplications(w, r, h.lifecycle)
}

func (h *HTTPTransport) transitionStatus(w http.ResponseWriter, r *http.Request) {
	transitionorder.TransitionStatus(w, r, h.lifecycle)
}

func (h *HTTPTransport) transitionPaymentStatus(w http.ResponseWriter, r *http.Request) {
	transitionorder.TransitionPaymentStatus(w, r, h.lifecycle)
}

func (h *HTTPTransport) submitPayment(w http.ResponseWriter, r *http.Request) {
	submitpayment.SubmitPayment(w, r, h.lifecycle)
}

func (h *HTTPTransport) revenue(w http.ResponseWriter, r *http.Request) {
	reports.Revenue(w, r, h.reports)
}

func (h *HTTPTransport) topItems(w http.ResponseWriter, r *http.Request) {
	reports.TopItems(w, r, h.reports)
}

func (h *HTTPTransport) overview(w http.ResponseWriter, r *http.Request) {
	reports.Overview(w, r, h.reports)
}

func (h *HTTPTransport) listNotifications(w http.ResponseWriter, r *http.Request) {
	notifications.ListUnread(w, r, h.notifications)
}

func (h *HTTPTransport) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	notifications.MarkRead(w, r, h.notifications)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware(viper.GetString("tracing.service_name")))
	router.Use(metrics.NewMetricsMiddleware(appmetrics.HTTPRequests, appmetrics.HTTPDuration))
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
