package lifecyclesvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/fulfillment/internal/metrics"
	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/inventorysvc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Kind names the order field a transition changes.
type Kind string

const (
	KindStatus        Kind = "status"
	KindPaymentStatus Kind = "payment_status"
)

// Result describes an accepted transition.
type Result struct {
	OrderID          int64                `json:"orderId"`
	Kind             Kind                 `json:"kind"`
	From             string               `json:"from"`
	To               string               `json:"to"`
	Changed          bool                 `json:"changed"`
	Stock            *inventorysvc.Report `json:"stock,omitempty"`
	NotificationSent bool                 `json:"notificationSent"`
}

const (
	stepStatus        = "status"
	stepPaymentStatus = "payment_status"
	stepLoadItems     = "load_items"
)

func statusMessage(orderID int64, s order.Status) string {
	return fmt.Sprintf("Status pesanan untuk pesanan #%d diperbarui menjadi %s", orderID, s.Label())
}

func paymentStatusMessage(orderID int64, s order.PaymentStatus) string {
	return fmt.Sprintf("Status pembayaran untuk pesanan #%d diperbarui menjadi %s", orderID, s.Label())
}

func outcome(err error) string {
	var partial *errs.PartialApplicationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &partial):
		return "partial"
	case errors.Is(err, errs.ErrValidation):
		return "rejected"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TransitionStatus sets the order status. Moving to processing or completed
// decrements stock for the order's items once per (order, status); a request
// for the current status writes nothing and sends no notification but still
// completes any missing stock decrements. When the status was written and the
// stock step failed, the Result is returned together with a
// *errs.PartialApplicationError.
func (s *LifecycleService) TransitionStatus(
	ctx context.Context,
	orderID int64,
	status order.Status,
	actorUserID string,
) (result Result, err error) {
	ctx, span := otel.Tracer("service").Start(ctx, "LifecycleService.TransitionStatus",
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("order.status", string(status)),
		),
	)
	defer func() {
		metrics.Transitions.WithLabelValues(string(KindStatus), outcome(err)).Inc()
		endSpan(span, err)
	}()

	to, err := order.ParseStatus(string(status))
	if err != nil {
		return Result{}, err
	}

	err = s.withLease(ctx, orderID, func() error {
		result, err = s.transitionStatus(ctx, orderID, to, actorUserID)
		return err
	})

	return result, err
}

func (s *LifecycleService) transitionStatus(
	ctx context.Context,
	orderID int64,
	to order.Status,
	actorUserID string,
) (Result, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get order: %w", err)
	}
	if !order.CanTransition(o.Status, to, s.strictTransitions) {
		return Result{}, fmt.Errorf("%w: %s -> %s", order.ErrTransitionNotAllowed, o.Status, to)
	}

	result := Result{
		OrderID: orderID,
		Kind:    KindStatus,
		From:    string(o.Status),
		To:      string(to),
		Changed: o.Status != to,
	}

	var committed []string
	if result.Changed {
		if err := s.orders.UpdateStatus(ctx, orderID, to, o.Revision); err != nil {
			return Result{}, fmt.Errorf("failed to update order status: %w", err)
		}
		committed = append(committed, stepStatus)
		slog.Info("Order status changed",
			"order_id", orderID,
			"from", o.Status,
			"to", to,
			"actor", actorUserID,
		)
	}

	var stockErr error
	if to.DecrementsStock() {
		result.Stock, stockErr = s.applyStock(ctx, orderID, to, committed)
	}

	if result.Changed {
		result.NotificationSent = s.notify(ctx, o.UserID, statusMessage(orderID, to))
	}

	return result, stockErr
}

// applyStock loads the order's items and runs the ledger under (order, status).
// Failures come back as a *errs.PartialApplicationError listing the steps
// already committed by the transition.
func (s *LifecycleService) applyStock(
	ctx context.Context,
	orderID int64,
	to order.Status,
	committed []string,
) (*inventorysvc.Report, error) {
	operation := fmt.Sprintf("transition order %d to %s", orderID, to)

	items, err := s.orderItems.Query(ctx, &orderitem.QueryOrderItemsModel{OrderIds: []int64{orderID}})
	if err != nil {
		return nil, &errs.PartialApplicationError{
			Operation: operation,
			Committed: committed,
			Failed:    []string{stepLoadItems},
			Err:       fmt.Errorf("failed to query order items: %w", err),
		}
	}

	decrements := make([]menuitem.Decrement, 0, len(items))
	for _, item := range items {
		decrements = append(decrements, menuitem.Decrement{MenuItemID: item.MenuItemID, Quantity: item.Quantity})
	}

	report, err := s.ledger.ApplyDecrement(ctx, menuitem.DecrementKey{OrderID: orderID, TargetStatus: string(to)}, decrements)
	if err == nil {
		return &report, nil
	}

	partial := &errs.PartialApplicationError{
		Operation: operation,
		Committed: committed,
		Err:       err,
	}
	if ledgerPartial, ok := errs.AsPartial(err); ok {
		partial.Committed = append(partial.Committed, ledgerPartial.Committed...)
		partial.Failed = ledgerPartial.Failed
	} else {
		partial.Failed = []string{"stock"}
	}
	slog.Error("Order stock decrement incomplete",
		"order_id", orderID,
		"status", to,
		"committed", partial.Committed,
		"failed", partial.Failed,
		"error", err,
	)

	return &report, partial
}

// notify reports whether the notification was stored. Failures are logged only.
func (s *LifecycleService) notify(ctx context.Context, userID, message string) bool {
	if _, err := s.notifier.Notify(ctx, userID, message); err != nil {
		slog.Error("Failed to send order notification",
			"user_id", userID,
			"message", message,
			"error", err,
		)

		return false
	}

	return true
}

// TransitionPaymentStatus sets the payment status. Any known value may follow any other.
func (s *LifecycleService) TransitionPaymentStatus(
	ctx context.Context,
	orderID int64,
	status order.PaymentStatus,
	actorUserID string,
) (result Result, err error) {
	ctx, span := otel.Tracer("service").Start(ctx, "LifecycleService.TransitionPaymentStatus",
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("order.payment_status", string(status)),
		),
	)
	defer func() {
		metrics.Transitions.WithLabelValues(string(KindPaymentStatus), outcome(err)).Inc()
		endSpan(span, err)
	}()

	to, err := order.ParsePaymentStatus(string(status))
	if err != nil {
		return Result{}, err
	}

	err = s.withLease(ctx, orderID, func() error {
		o, err := s.orders.Get(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}

		result = Result{
			OrderID: orderID,
			Kind:    KindPaymentStatus,
			From:    string(o.PaymentStatus),
			To:      string(to),
			Changed: o.PaymentStatus != to,
		}
		if !result.Changed {
			return nil
		}

		if err := s.orders.UpdatePaymentStatus(ctx, orderID, to, o.Revision); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}
		slog.Info("Order payment status changed",
			"order_id", orderID,
			"from", o.PaymentStatus,
			"to", to,
			"actor", actorUserID,
		)
		s.invalidateRevenue(ctx, orderID)
		result.NotificationSent = s.notify(ctx, o.UserID, paymentStatusMessage(orderID, to))

		return nil
	})

	return result, err
}
