// Package memory is an in-process Persistence Gateway with the same row
// semantics as the Postgres repositories: revision compare-and-set on orders,
// atomic clamped stock decrements keyed by an application marker, and
// insertion-ordered notifications. Faults can be injected per operation.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/outbox"
)

// Op names a store operation for fault injection and call counting.
type Op string

const (
	OpGetOrder            Op = "order.get"
	OpQueryOrders         Op = "order.query"
	OpCountOrders         Op = "order.count"
	OpUpdateStatus        Op = "order.update_status"
	OpUpdatePaymentStatus Op = "order.update_payment_status"
	OpUpdatePayment       Op = "order.update_payment"
	OpQueryOrderItems     Op = "order_item.query"
	OpGetMenuItem         Op = "menu_item.get"
	OpApplyDecrement      Op = "menu_item.apply_decrement"
	OpInsertNotification  Op = "notification.insert"
	OpListNotifications   Op = "notification.list"
	OpMarkRead            Op = "notification.mark_read"
	OpListPaidOrders      Op = "report.list_paid_orders"
	OpListItemQuantities  Op = "report.list_item_quantities"
	OpSumItemsSold        Op = "report.sum_items_sold"
	OpCountCustomers      Op = "report.count_customers"
	OpListApplications    Op = "audit.list_stock_applications"
	OpInsertOutbox        Op = "outbox.insert"
	OpListDueOutbox       Op = "outbox.list_due"
	OpDeleteOutbox        Op = "outbox.delete"
	OpOutboxFailure       Op = "outbox.record_failure"
)

// FaultFunc returns a non-nil error to fail the call made for the given row id.
type FaultFunc func(id int64) error

// FailAlways fails every call with err.
func FailAlways(err error) FaultFunc {
	return func(int64) error { return err }
}

// FailTimes fails the first n calls with err.
func FailTimes(n int, err error) FaultFunc {
	var mu sync.Mutex
	return func(int64) error {
		mu.Lock()
		defer mu.Unlock()
		if n > 0 {
			n--
			return err
		}
		return nil
	}
}

// FailFor fails calls made for the given id.
func FailFor(id int64, err error) FaultFunc {
	return func(got int64) error {
		if got == id {
			return err
		}
		return nil
	}
}

type applicationKey struct {
	orderID      int64
	targetStatus string
	menuItemID   int64
}

// Store holds all rows. Repositories returned by its accessors share it.
type Store struct {
	mu sync.Mutex

	nextID        int64
	orders        map[int64]order.Order
	orderItems    map[int64]orderitem.OrderItem
	menuItems     map[int64]menuitem.MenuItem
	notifications []notification.Notification
	applications  map[applicationKey]auditlog.StockApplication
	outbox        map[int64]outbox.Message

	faults map[Op]FaultFunc
	calls  map[Op]int
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		orders:       make(map[int64]order.Order),
		orderItems:   make(map[int64]orderitem.OrderItem),
		menuItems:    make(map[int64]menuitem.MenuItem),
		applications: make(map[applicationKey]auditlog.StockApplication),
		outbox:       make(map[int64]outbox.Message),
		faults:       make(map[Op]FaultFunc),
		calls:        make(map[Op]int),
		now:          time.Now,
	}
}

// SetClock replaces the time source used for created/updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetFault installs f for op. A nil f removes the fault.
func (s *Store) SetFault(op Op, f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = f
}

// Calls returns how many times op was invoked, failed calls included.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records the call and evaluates the fault. Callers hold s.mu.
func (s *Store) enter(op Op, id int64) error {
	s.calls[op]++
	if f, ok := s.faults[op]; ok {
		if err := f(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddMenuItem stores m, assigning an id when it has none.
func (s *Store) AddMenuItem(m menuitem.MenuItem) menuitem.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 {
		m.ID = s.id()
	} else if m.ID > s.nextID {
		s.nextID = m.ID
	}
	s.menuItems[m.ID] = m

	return m
}

// AddOrder stores o and its items the way checkout does: atomically, with
// pending defaults for empty statuses.
func (s *Store) AddOrder(o order.Order) order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == 0 {
		o.ID = s.id()
	} else if o.ID > s.nextID {
		s.nextID = o.ID
	}
	if o.Status == "" {
		o.Status = order.StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = order.PaymentStatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	o.UpdatedAt = o.CreatedAt

	items := make([]orderitem.OrderItem, 0, len(o.OrderItems))
	for _, item := range o.OrderItems {
		item.ID = s.id()
		item.OrderID = o.ID
		item.CreatedAt = o.CreatedAt
		s.orderItems[item.ID] = item
		items = append(items, item)
	}
	o.OrderItems = items

	stored := o
	stored.OrderItems = nil
	s.orders[o.ID] = stored

	return o
}

// MenuItem returns a snapshot of the menu item row.
func (s *Store) MenuItem(id int64) (menuitem.MenuItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menuItems[id]
	return m, ok
}

// Order returns a snapshot of the order row without items.
func (s *Store) Order(id int64) (order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

// AllNotifications returns every notification in insertion order.
func (s *Store) AllNotifications() []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Notification(nil), s.notifications...)
}

// AllOutbox returns every outbox message.
func (s *Store) AllOutbox() []outbox.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]outbox.Message, 0, len(s.outbox))
	for _, msg := range s.outbox {
		out = append(out, msg)
	}
	return out
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{s: s}
}

func (s *Store) OrderItems() *OrderItemRepository {
	return &OrderItemRepository{s: s}
}

func (s *Store) MenuItems() *MenuItemRepository {
	return &MenuItemRepository{s: s}
}

func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{s: s}
}

func (s *Store) Reports() *ReportRepository {
	return &ReportRepository{s: s}
}

func (s *Store) Audit() *AuditRepository {
	return &AuditRepository{s: s}
}

func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{s: s}
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", errs.ErrNotFound, entity, id)
}
