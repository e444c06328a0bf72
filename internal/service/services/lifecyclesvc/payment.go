package lifecyclesvc

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OrderDetails is an order with its items and the resolved proof-of-payment location.
type OrderDetails struct {
	order.Order
	ProofOfPaymentURL string `json:"proofOfPaymentUrl,omitempty"`
}

// SubmitPayment records the customer's payment choice. The on-fulfillment
// method leaves the payment pending and takes no proof; any other method
// needs a proof reference and marks the order paid. A stored total that
// differs from the summed line items is logged, not rejected.
func (s *LifecycleService) SubmitPayment(
	ctx context.Context,
	orderID int64,
	method string,
	proofRef string,
) (details OrderDetails, err error) {
	ctx, span := otel.Tracer("service").Start(ctx, "LifecycleService.SubmitPayment",
		trace.WithAttributes(attribute.Int64("order.id", orderID)),
	)
	defer func() { endSpan(span, err) }()

	method = strings.TrimSpace(method)
	proofRef = strings.TrimSpace(proofRef)

	update := order.PaymentUpdate{Method: method}
	switch {
	case method == "":
		return OrderDetails{}, errs.Validationf("payment method is required")
	case method == s.onFulfillmentMethod:
		update.Status = order.PaymentStatusPending
	case proofRef == "":
		return OrderDetails{}, errs.Validationf("proof of payment is required for method %q", method)
	default:
		update.Status = order.PaymentStatusPaid
		update.ProofOfPaymentRef = proofRef
	}

	err = s.withLease(ctx, orderID, func() error {
		o, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}

		if !o.TotalMatches() {
			slog.Warn("Order total does not match its items",
				"order_id", orderID,
				"total_amount", o.TotalAmount.String(),
				"computed_total", o.ComputedTotal().String(),
			)
		}

		if err := s.orders.UpdatePayment(ctx, orderID, update, o.Revision); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		if o.PaymentStatus != update.Status {
			s.invalidateRevenue(ctx, orderID)
		}

		o.PaymentMethod = update.Method
		o.PaymentStatus = update.Status
		o.ProofOfPaymentRef = update.ProofOfPaymentRef
		o.Revision++
		details = s.details(o)

		return nil
	})
	if err != nil {
		return OrderDetails{}, err
	}

	slog.Info("Payment submitted", "order_id", orderID, "method", method, "payment_status", update.Status)

	return details, nil
}

// GetOrder returns the order with its items.
func (s *LifecycleService) GetOrder(ctx context.Context, orderID int64) (OrderDetails, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "LifecycleService.GetOrder")
	defer span.End()

	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderDetails{}, err
	}

	return s.details(o), nil
}

// StockApplications lists the stock decrements committed for the order.
func (s *LifecycleService) StockApplications(
	ctx context.Context,
	orderID int64,
) ([]auditlog.StockApplication, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "LifecycleService.StockApplications")
	defer span.End()

	if s.audit == nil {
		return nil, fmt.Errorf("stock application audit is not configured")
	}
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	applications, err := s.audit.ListStockApplications(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock applications: %w", err)
	}
	if applications == nil {
		applications = []auditlog.StockApplication{}
	}

	return applications, nil
}

func (s *LifecycleService) loadOrder(ctx context.Context, orderID int64) (order.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := s.orderItems.Query(ctx, &orderitem.QueryOrderItemsModel{OrderIds: []int64{orderID}})
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to query order items: %w", err)
	}
	o.OrderItems = items

	return o, nil
}

func (s *LifecycleService) details(o order.Order) OrderDetails {
	return OrderDetails{
		Order:             o,
		ProofOfPaymentURL: ResolveProofURL(s.proofBaseURL, o.ProofOfPaymentRef),
	}
}

// ResolveProofURL turns a stored proof reference into a retrievable location.
// Absolute references and an empty base are returned as is.
func ResolveProofURL(base, ref string) string {
	if ref == "" || base == "" || strings.Contains(ref, "://") {
		return ref
	}

	resolved, err := url.JoinPath(base, ref)
	if err != nil {
		return ref
	}

	return resolved
}
