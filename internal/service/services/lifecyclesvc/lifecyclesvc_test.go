package lifecyclesvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/memory"
	reportcache "github.com/corray333/backend-labs/fulfillment/internal/dal/repositories/reportcache/redis"
	"github.com/corray333/backend-labs/fulfillment/internal/lease"
	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/inventorysvc"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/lifecyclesvc"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/reportsvc"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memory.Store
	svc   *lifecyclesvc.LifecycleService
	nasi  menuitem.MenuItem
	teh   menuitem.MenuItem
	order order.Order
}

type invalidator interface {
	InvalidateRevenue(ctx context.Context) error
}

type setup struct {
	strict  bool
	locker  lease.Locker
	revenue invalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, setup{})
}

func newFixtureWith(t *testing.T, cfg setup) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{store: store}
	f.nasi = store.AddMenuItem(menuitem.MenuItem{Title: "Nasi Goreng", Price: decimal.NewFromInt(15000), Stock: 10})
	f.teh = store.AddMenuItem(menuitem.MenuItem{Title: "Es Teh", Price: decimal.NewFromInt(5000), Stock: 3})
	f.order = store.AddOrder(order.Order{
		UserID:      "user-1",
		TotalAmount: decimal.NewFromInt(40000),
		OrderItems: []orderitem.OrderItem{
			{MenuItemID: f.nasi.ID, Quantity: 2, Price: decimal.NewFromInt(15000)},
			{MenuItemID: f.teh.ID, Quantity: 2, Price: decimal.NewFromInt(5000)},
		},
	})

	locker := cfg.locker
	if locker == nil {
		locker = lease.NewLocalLocker(time.Second)
	}

	f.svc = newService(store, locker, cfg)

	return f
}

func newService(store *memory.Store, locker lease.Locker, cfg setup) *lifecyclesvc.LifecycleService {
	return lifecyclesvc.MustNewLifecycleService(
		lifecyclesvc.WithOrderRepository(store.Orders()),
		lifecyclesvc.WithOrderItemRepository(store.OrderItems()),
		lifecyclesvc.WithAuditRepository(store.Audit()),
		lifecyclesvc.WithLedger(inventorysvc.MustNewLedger(inventorysvc.WithMenuItemRepository(store.MenuItems()))),
		lifecyclesvc.WithNotifier(notifysvc.MustNewNotificationService(
			notifysvc.WithNotificationRepository(store.Notifications()),
		)),
		lifecyclesvc.WithLocker(locker),
		lifecyclesvc.WithStrictTransitions(cfg.strict),
		lifecyclesvc.WithProofBaseURL("https://files.example.com/proofs"),
		lifecyclesvc.WithRevenueInvalidator(cfg.revenue),
	)
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	m, ok := f.store.MenuItem(id)
	require.True(t, ok)

	return m.Stock
}

func (f *fixture) current(t *testing.T) order.Order {
	t.Helper()
	o, ok := f.store.Order(f.order.ID)
	require.True(t, ok)

	return o
}

type snapshot struct {
	order         order.Order
	nasi, teh     int
	notifications int
}

func (f *fixture) snapshot(t *testing.T) snapshot {
	t.Helper()

	return snapshot{
		order:         f.current(t),
		nasi:          f.stock(t, f.nasi.ID),
		teh:           f.stock(t, f.teh.ID),
		notifications: len(f.store.AllNotifications()),
	}
}

func TestTransitionStatus_DecrementsAndNotifies(t *testing.T) {
	tests := []struct {
		name      string
		status    order.Status
		wantNasi  int
		wantTeh   int
		wantStock bool
		wantMsg   string
	}{
		{
			name:      "processing",
			status:    order.StatusProcessing,
			wantNasi:  8,
			wantTeh:   1,
			wantStock: true,
			wantMsg:   "Status pesanan untuk pesanan #3 diperbarui menjadi Diproses",
		},
		{
			name:      "completed",
			status:    order.StatusCompleted,
			wantNasi:  8,
			wantTeh:   1,
			wantStock: true,
			wantMsg:   "Status pesanan untuk pesanan #3 diperbarui menjadi Selesai",
		},
		{
			name:     "cancelled",
			status:   order.StatusCancelled,
			wantNasi: 10,
			wantTeh:  3,
			wantMsg:  "Status pesanan untuk pesanan #3 diperbarui menjadi Dibatalkan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			result, err := f.svc.TransitionStatus(context.Background(), f.order.ID, tt.status, "admin-1")
			require.NoError(t, err)

			assert.True(t, result.Changed)
			assert.True(t, result.NotificationSent)
			assert.Equal(t, "pending", result.From)
			assert.Equal(t, string(tt.status), result.To)
			assert.Equal(t, tt.wantStock, result.Stock != nil)
			assert.Equal(t, tt.status, f.current(t).Status)
			assert.Equal(t, tt.wantNasi, f.stock(t, f.nasi.ID))
			assert.Equal(t, tt.wantTeh, f.stock(t, f.teh.ID))

			notifications := f.store.AllNotifications()
			require.Len(t, notifications, 1)
			assert.Equal(t, "user-1", notifications[0].UserID)
			assert.Equal(t, tt.wantMsg, notifications[0].Message)
			assert.False(t, notifications[0].Read)
		})
	}
}

func TestTransitionStatus_ClampsAtZero(t *testing.T) {
	f := newFixture(t)
	other := f.store.AddOrder(order.Order{
		UserID: "user-2",
		OrderItems: []orderitem.OrderItem{
			{MenuItemID: f.teh.ID, Quantity: 5, Price: decimal.NewFromInt(5000)},
		},
	})

	_, err := f.svc.TransitionStatus(context.Background(), other.ID, order.StatusProcessing, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 0, f.stock(t, f.teh.ID))
}

func TestTransitionStatus_RepeatIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.TransitionStatus(ctx, f.order.ID, order.StatusProcessing, "admin-1")
	require.NoError(t, err)
	before := f.snapshot(t)

	result, err := f.svc.TransitionStatus(ctx, f.order.ID, order.StatusProcessing, "admin-2")
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.False(t, result.NotificationSent)
	require.NotNil(t, result.Stock)
	assert.Zero(t, result.Stock.Applied())
	assert.Equal(t, before, f.snapshot(t))
}

func TestTransitionStatus_EachTargetStatusDecrementsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.TransitionStatus(ctx, f.order.ID, order.StatusProcessing, "admin-1")
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(ctx, f.order.ID, order.StatusCompleted, "admin-1")
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(ctx, f.order.ID, order.StatusCompleted, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 6, f.stock(t, f.nasi.ID))
	assert.Equal(t, 0, f.stock(t, f.teh.ID))
	assert.Len(t, f.store.AllNotifications(), 2)

	applications, err := f.svc.StockApplications(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Len(t, applications, 4)
}

func TestTransitionStatus_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		prepare order.Status
		status  order.Status
		wantErr error
	}{
		{name: "unknown status", status: order.Status("shipped"), wantErr: order.ErrInvalidStatus},
		{name: "empty status", status: order.Status(""), wantErr: order.ErrInvalidStatus},
		{
			name:    "strict terminal",
			strict:  true,
			prepare: order.StatusCancelled,
			status:  order.StatusProcessing,
			wantErr: order.ErrTransitionNotAllowed,
		},
		{
			name:    "strict backward",
			strict:  true,
			prepare: order.StatusProcessing,
			status:  order.StatusPending,
			wantErr: order.ErrTransitionNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixtureWith(t, setup{strict: tt.strict})
			ctx := context.Background()
			if tt.prepare != "" {
				_, err := f.svc.TransitionStatus(ctx, f.order.ID, tt.prepare, "admin-1")
				require.NoError(t, err)
			}
			before := f.snapshot(t)
			writes := f.store.Calls(memory.OpUpdateStatus)

			_, err := f.svc.TransitionStatus(ctx, f.order.ID, tt.status, "admin-1")

			require.ErrorIs(t, err, errs.ErrValidation)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, f.snapshot(t))
			assert.Equal(t, writes, f.store.Calls(memory.OpUpdateStatus))
		})
	}
}

func TestTransitionStatus_PermissiveAllowsBackward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.TransitionStatus(ctx, f.order.ID, order.StatusCompleted, "admin-1")
	require.NoError(t, err)
	result, err := f.svc.TransitionStatus(ctx, f.order.ID, order.StatusPending, "admin-1")
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, order.StatusPending, f.current(t).Status)
}

func TestTransitionStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.TransitionStatus(context.Background(), 999, order.StatusProcessing, "admin-1")

	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, f.store.AllNotifications())
}

func TestTransitionStatus_PartialStockFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeDown := errors.New("connection reset")
	f.store.SetFault(memory.OpApplyDecrement, memory.FailFor(f.teh.ID, storeDown))

	result, err := f.svc.TransitionStatus(ctx, f.order.ID, order.StatusProcessing, "admin-1")

	require.ErrorIs(t, err, storeDown)
	partial, ok := errs.AsPartial(err)
	require.True(t, ok)
	assert.Equal(t, []string{"status", "menu_item:1"}, partial.Committed)
	assert.Equal(t, []string{"menu_item:2"}, partial.Failed)

	assert.True(t, result.Changed)
	assert.True(t, result.NotificationSent)
	require.NotNil(t, result.Stock)
	assert.Equal(t, order.StatusProcessing, f.current(t).Status)
	assert.Equal(t, 8, f.stock(t, f.nasi.ID))
	assert.Equal(t, 3, f.stock(t, f.teh.ID))

	// Re-issuing the same request finishes the missing item without re-notifying.
	f.store.SetFault(memory.OpApplyDecrement, nil)
	result, err = f.svc.TransitionStatus(ctx, f.order.ID, order.StatusProcessing, "admin-1")
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, 1, result.Stock.Applied())
	assert.Equal(t, 8, f.stock(t, f.nasi.ID))
	assert.Equal(t, 1, f.stock(t, f.teh.ID))
	assert.Len(t, f.store.AllNotifications(), 1)
}

func TestTransitionStatus_ItemLoadFailure(t *testing.T) {
	f := newFixture(t)
	f.store.SetFault(memory.OpQueryOrderItems, memory.FailAlways(errors.New("timeout")))

	_, err := f.svc.TransitionStatus(context.Background(), f.order.ID, order.StatusCompleted, "admin-1")

	partial, ok := errs.AsPartial(err)
	require.True(t, ok)
	assert.Equal(t, []string{"status"}, partial.Committed)
	assert.Equal(t, []string{"load_items"}, partial.Failed)
	assert.Equal(t, order.StatusCompleted, f.current(t).Status)
	assert.Equal(t, 10, f.stock(t, f.nasi.ID))
}

func TestTransitionStatus_NotificationFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.store.SetFault(memory.OpInsertNotification, memory.FailAlways(errors.New("insert failed")))

	result, err := f.svc.TransitionStatus(context.Background(), f.order.ID, order.StatusProcessing, "admin-1")

	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.False(t, result.NotificationSent)
	assert.Equal(t, 8, f.stock(t, f.nasi.ID))
}

func TestTransitionStatus_ConflictStopsSideEffects(t *testing.T) {
	f := newFixture(t)
	f.store.SetFault(memory.OpUpdateStatus, memory.FailAlways(errs.ErrConflict))

	_, err := f.svc.TransitionStatus(context.Background(), f.order.ID, order.StatusProcessing, "admin-1")

	require.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, 10, f.stock(t, f.nasi.ID))
	assert.Empty(t, f.store.AllNotifications())
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (lease.Lease, error) {
	return nil, lease.ErrLeaseTimeout
}

func TestTransitionStatus_LeaseHeldElsewhere(t *testing.T) {
	f := newFixtureWith(t, setup{locker: busyLocker{}})
	before := f.snapshot(t)

	_, err := f.svc.TransitionStatus(context.Background(), f.order.ID, order.StatusProcessing, "admin-1")

	require.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, before, f.snapshot(t))
}

func TestTransitionStatus_ConcurrentSameOrder(t *testing.T) {
	f := newFixtureWith(t, setup{locker: lease.NewLocalLocker(10 * time.Second)})

	var wg sync.WaitGroup
	var mu sync.Mutex
	changed := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.svc.TransitionStatus(context.Background(), f.order.ID, order.StatusProcessing, "admin")
			assert.NoError(t, err)
			if result.Changed {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, changed)
	assert.Equal(t, 8, f.stock(t, f.nasi.ID))
	assert.Equal(t, 1, f.stock(t, f.teh.ID))
	assert.Len(t, f.store.AllNotifications(), 1)
	assert.Equal(t, int64(1), f.current(t).Revision)
}

func TestTransitionPaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.TransitionPaymentStatus(ctx, f.order.ID, order.PaymentStatusPaid, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, lifecyclesvc.KindPaymentStatus, result.Kind)
	assert.True(t, result.Changed)
	assert.True(t, result.NotificationSent)
	assert.Nil(t, result.Stock)
	assert.Equal(t, order.PaymentStatusPaid, f.current(t).PaymentStatus)
	assert.Equal(t, 10, f.stock(t, f.nasi.ID))

	notifications := f.store.AllNotifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "Status pembayaran untuk pesanan #3 diperbarui menjadi Dibayar", notifications[0].Message)

	result, err = f.svc.TransitionPaymentStatus(ctx, f.order.ID, order.PaymentStatusPaid, "admin-1")
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Len(t, f.store.AllNotifications(), 1)

	_, err = f.svc.TransitionPaymentStatus(ctx, f.order.ID, order.PaymentStatusFailed, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Status pembayaran untuk pesanan #3 diperbarui menjadi Gagal", f.store.AllNotifications()[1].Message)
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingInvalidator) InvalidateRevenue(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	return c.err
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}

func TestPaymentChangesInvalidateRevenue(t *testing.T) {
	revenue := &countingInvalidator{}
	f := newFixtureWith(t, setup{revenue: revenue})
	ctx := context.Background()

	_, err := f.svc.TransitionPaymentStatus(ctx, f.order.ID, order.PaymentStatusPaid, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, revenue.count())

	_, err = f.svc.TransitionPaymentStatus(ctx, f.order.ID, order.PaymentStatusPaid, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, revenue.count())

	_, err = f.svc.SubmitPayment(ctx, f.order.ID, lifecyclesvc.DefaultOnFulfillmentMethod, "")
	require.NoError(t, err)
	assert.Equal(t, 2, revenue.count())

	_, err = f.svc.SubmitPayment(ctx, f.order.ID, lifecyclesvc.DefaultOnFulfillmentMethod, "")
	require.NoError(t, err)
	assert.Equal(t, 2, revenue.count())

	_, err = f.svc.SubmitPayment(ctx, f.order.ID, "Transfer Bank", "receipt.png")
	require.NoError(t, err)
	assert.Equal(t, 3, revenue.count())

	_, err = f.svc.TransitionStatus(ctx, f.order.ID, order.StatusCompleted, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 3, revenue.count())
}

func TestPaymentChangesInvalidateRevenue_FailureIsNotFatal(t *testing.T) {
	revenue := &countingInvalidator{err: errors.New("redis down")}
	f := newFixtureWith(t, setup{revenue: revenue})

	result, err := f.svc.TransitionPaymentStatus(context.Background(), f.order.ID, order.PaymentStatusPaid, "admin-1")

	require.NoError(t, err)
	assert.True(t, result.NotificationSent)
	assert.Equal(t, 1, revenue.count())
	assert.Equal(t, order.PaymentStatusPaid, f.current(t).PaymentStatus)
}

func TestPaidOrderReachesCachedRevenue(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	reports := reportsvc.MustNewReportService(
		reportsvc.WithReportRepository(f.store.Reports()),
		reportsvc.WithOrderRepository(f.store.Orders()),
		reportsvc.WithCache(reportcache.NewReportCache(rdb, time.Hour)),
	)
	svc := newService(f.store, lease.NewLocalLocker(time.Second), setup{revenue: reports})
	ctx := context.Background()
	start, end := reports.DashboardRange(time.Now())

	before, err := reports.Aggregate(ctx, start, end, report.BucketDay)
	require.NoError(t, err)
	assert.True(t, before.Total.IsZero())

	_, err = svc.TransitionPaymentStatus(ctx, f.order.ID, order.PaymentStatusPaid, "admin-1")
	require.NoError(t, err)

	after, err := reports.Aggregate(ctx, start, end, report.BucketDay)
	require.NoError(t, err)
	assert.Equal(t, "40000", after.Total.String())

	_, err = svc.TransitionPaymentStatus(ctx, f.order.ID, order.PaymentStatusFailed, "admin-1")
	require.NoError(t, err)

	reverted, err := reports.Aggregate(ctx, start, end, report.BucketDay)
	require.NoError(t, err)
	assert.True(t, reverted.Total.IsZero())
	assert.Equal(t, 3, f.store.Calls(memory.OpListPaidOrders))
}

func TestTransitionPaymentStatus_Invalid(t *testing.T) {
	f := newFixture(t)
	before := f.snapshot(t)

	_, err := f.svc.TransitionPaymentStatus(context.Background(), f.order.ID, order.PaymentStatus("refunded"), "admin-1")

	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, before, f.snapshot(t))
}

func TestSubmitPayment(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		proofRef   string
		wantErr    error
		wantStatus order.PaymentStatus
		wantURL    string
	}{
		{
			name:       "pay on fulfillment",
			method:     lifecyclesvc.DefaultOnFulfillmentMethod,
			wantStatus: order.PaymentStatusPending,
		},
		{
			name:       "pay on fulfillment ignores proof",
			method:     lifecyclesvc.DefaultOnFulfillmentMethod,
			proofRef:   "ignored.png",
			wantStatus: order.PaymentStatusPending,
		},
		{
			name:       "transfer with proof",
			method:     "Transfer Bank",
			proofRef:   "order-3/receipt.png",
			wantStatus: order.PaymentStatusPaid,
			wantURL:    "https://files.example.com/proofs/order-3/receipt.png",
		},
		{name: "transfer without proof", method: "Transfer Bank", wantErr: errs.ErrValidation},
		{name: "no method", method: " ", wantErr: errs.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.snapshot(t)

			details, err := f.svc.SubmitPayment(context.Background(), f.order.ID, tt.method, tt.proofRef)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, f.snapshot(t))

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, details.PaymentStatus)
			assert.Equal(t, tt.wantURL, details.ProofOfPaymentURL)
			assert.Len(t, details.OrderItems, 2)

			stored := f.current(t)
			assert.Equal(t, tt.method, stored.PaymentMethod)
			assert.Equal(t, tt.wantStatus, stored.PaymentStatus)
			assert.Equal(t, stored.Revision, details.Revision)
			assert.Empty(t, f.store.AllNotifications())
		})
	}
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)

	details, err := f.svc.GetOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.Len(t, details.OrderItems, 2)
	assert.Equal(t, "Nasi Goreng", details.OrderItems[0].Title)
	assert.True(t, details.TotalMatches())

	_, err = f.svc.GetOrder(context.Background(), 404)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestResolveProofURL(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{base: "https://cdn.example.com/proofs/", ref: "a.png", want: "https://cdn.example.com/proofs/a.png"},
		{base: "", ref: "a.png", want: "a.png"},
		{base: "https://cdn.example.com", ref: "https://other.example.com/a.png", want: "https://other.example.com/a.png"},
		{base: "https://cdn.example.com", ref: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, lifecyclesvc.ResolveProofURL(tt.base, tt.ref))
	}
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	other := f.store.AddOrder(order.Order{
		UserID:        "user-2",
		PaymentStatus: order.PaymentStatusPaid,
		TotalAmount:   decimal.NewFromInt(5000),
		OrderItems: []orderitem.OrderItem{
			{MenuItemID: f.teh.ID, Quantity: 1, Price: decimal.NewFromInt(5000)},
		},
	})

	tests := []struct {
		name      string
		filter    order.QueryOrdersModel
		wantIDs   []int64
		wantTotal int64
		wantLimit int
		wantErr   error
	}{
		{
			name:      "all with default page",
			wantIDs:   []int64{f.order.ID, other.ID},
			wantTotal: 2,
			wantLimit: lifecyclesvc.DefaultPageSize,
		},
		{
			name:      "by user",
			filter:    order.QueryOrdersModel{UserIds: []string{"user-2"}},
			wantIDs:   []int64{other.ID},
			wantTotal: 1,
			wantLimit: lifecyclesvc.DefaultPageSize,
		},
		{
			name:      "by payment status",
			filter:    order.QueryOrdersModel{PaymentStatuses: []order.PaymentStatus{order.PaymentStatusPending}},
			wantIDs:   []int64{f.order.ID},
			wantTotal: 1,
			wantLimit: lifecyclesvc.DefaultPageSize,
		},
		{
			name:      "paged and clamped",
			filter:    order.QueryOrdersModel{Limit: 1000, Offset: 1},
			wantIDs:   []int64{other.ID},
			wantTotal: 2,
			wantLimit: lifecyclesvc.MaxPageSize,
		},
		{
			name:    "unknown status",
			filter:  order.QueryOrdersModel{Statuses: []order.Status{"shipped"}},
			wantErr: errs.ErrValidation,
		},
		{
			name:    "negative offset",
			filter:  order.QueryOrdersModel{Offset: -1},
			wantErr: errs.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.ListOrders(context.Background(), tt.filter)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			ids := make([]int64, 0, len(page.Orders))
			for _, o := range page.Orders {
				ids = append(ids, o.ID)
				assert.NotEmpty(t, o.OrderItems)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantLimit, page.Limit)
		})
	}
}
