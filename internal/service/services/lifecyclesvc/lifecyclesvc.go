// Package lifecyclesvc moves orders through status and payment-status
// transitions and runs their side effects: stock decrements for processing and
// completed orders, and a notification to the order's owner.
//
// Every transition of one order runs under that order's lease, and each status
// write is a compare-and-set on the order revision read under the lease.
package lifecyclesvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/iauditrepo"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/fulfillment/internal/lease"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/inventorysvc"
)

// DefaultOnFulfillmentMethod is the payment method settled when the order is handed over.
const DefaultOnFulfillmentMethod = "Bayar di Tempat"

type ledger interface {
	ApplyDecrement(
		ctx context.Context,
		key menuitem.DecrementKey,
		items []menuitem.Decrement,
	) (inventorysvc.Report, error)
}

type notifier interface {
	Notify(ctx context.Context, userID, message string) (notification.Notification, error)
}

type revenueInvalidator interface {
	InvalidateRevenue(ctx context.Context) error
}

// LifecycleService is the order lifecycle engine.
type LifecycleService struct {
	orders     iorderrepo.IOrderRepository
	orderItems iorderitemrepo.IOrderItemRepository
	audit      iauditrepo.IAuditRepository
	ledger     ledger
	notifier   notifier
	locker     lease.Locker
	revenue    revenueInvalidator

	strictTransitions   bool
	onFulfillmentMethod string
	proofBaseURL        string
}

type option func(*LifecycleService)

// MustNewLifecycleService creates a new LifecycleService.
// Without WithLocker an in-process locker is used.
func MustNewLifecycleService(opts ...option) *LifecycleService {
	s := &LifecycleService{
		onFulfillmentMethod: DefaultOnFulfillmentMethod,
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.orders == nil:
		panic("lifecyclesvc: order repository is required")
	case s.orderItems == nil:
		panic("lifecyclesvc: order item repository is required")
	case s.ledger == nil:
		panic("lifecyclesvc: inventory ledger is required")
	case s.notifier == nil:
		panic("lifecyclesvc: notifier is required")
	}
	if s.locker == nil {
		s.locker = lease.NewLocalLocker(5 * time.Second)
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *LifecycleService) {
		s.orders = repo
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderItemRepository(repo iorderitemrepo.IOrderItemRepository) option {
	return func(s *LifecycleService) {
		s.orderItems = repo
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithAuditRepository(repo iauditrepo.IAuditRepository) option {
	return func(s *LifecycleService) {
		s.audit = repo
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithLedger(l ledger) option {
	return func(s *LifecycleService) {
		s.ledger = l
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithNotifier(n notifier) option {
	return func(s *LifecycleService) {
		s.notifier = n
	}
}

// WithRevenueInvalidator drops cached revenue reports after every payment status change.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRevenueInvalidator(r revenueInvalidator) option {
	return func(s *LifecycleService) {
		s.revenue = r
	}
}

// WithLocker sets the per-order lease provider.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLocker(l lease.Locker) option {
	return func(s *LifecycleService) {
		s.locker = l
	}
}

// WithStrictTransitions gates status changes by the predecessor table.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStrictTransitions(strict bool) option {
	return func(s *LifecycleService) {
		s.strictTransitions = strict
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOnFulfillmentMethod(method string) option {
	return func(s *LifecycleService) {
		if method != "" {
			s.onFulfillmentMethod = method
		}
	}
}

// WithProofBaseURL sets the location relative proof-of-payment references resolve against.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProofBaseURL(base string) option {
	return func(s *LifecycleService) {
		s.proofBaseURL = base
	}
}

// invalidateRevenue runs after a committed payment status change. Failures are
// logged only; cached reports then stay stale until their TTL.
func (s *LifecycleService) invalidateRevenue(ctx context.Context, orderID int64) {
	if s.revenue == nil {
		return
	}
	if err := s.revenue.InvalidateRevenue(ctx); err != nil {
		slog.Error("Failed to invalidate revenue reports", "order_id", orderID, "error", err)
	}
}

// withLease runs fn while holding the order's lease.
func (s *LifecycleService) withLease(ctx context.Context, orderID int64, fn func() error) error {
	held, err := s.locker.Acquire(ctx, lease.OrderKey(orderID))
	if err != nil {
		return err
	}
	defer func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil {
			slog.Error("Failed to release order lease", "order_id", orderID, "error", err)
		}
	}()

	return fn()
}
