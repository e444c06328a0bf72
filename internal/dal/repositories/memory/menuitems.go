package memory

import (
	"context"
	"sort"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/menuitem"
)

// MenuItemRepository implements imenuitemrepo.IMenuItemRepository.
type MenuItemRepository struct {
	s *Store
}

func (r *MenuItemRepository) Get(_ context.Context, id int64) (menuitem.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpGetMenuItem, id); err != nil {
		return menuitem.MenuItem{}, err
	}
	m, ok := r.s.menuItems[id]
	if !ok {
		return menuitem.MenuItem{}, notFound("menu item", id)
	}

	return m, nil
}

// ApplyDecrement mirrors the single-statement claim-and-decrement of the Postgres repository.
func (r *MenuItemRepository) ApplyDecrement(
	_ context.Context,
	key menuitem.DecrementKey,
	decrement menuitem.Decrement,
) (menuitem.DecrementOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpApplyDecrement, decrement.MenuItemID); err != nil {
		return menuitem.DecrementOutcome{}, err
	}
	if decrement.Quantity <= 0 {
		return menuitem.DecrementOutcome{}, errs.Validationf("quantity must be positive, got %d", decrement.Quantity)
	}
	m, ok := r.s.menuItems[decrement.MenuItemID]
	if !ok {
		return menuitem.DecrementOutcome{}, notFound("menu item", decrement.MenuItemID)
	}

	ak := applicationKey{
		orderID:      key.OrderID,
		targetStatus: key.TargetStatus,
		menuItemID:   decrement.MenuItemID,
	}
	if _, applied := r.s.applications[ak]; applied {
		return menuitem.DecrementOutcome{Applied: false, Stock: m.Stock}, nil
	}

	m.Stock = max(0, m.Stock-decrement.Quantity)
	r.s.menuItems[m.ID] = m
	r.s.applications[ak] = auditlog.StockApplication{
		OrderID:      key.OrderID,
		TargetStatus: key.TargetStatus,
		MenuItemID:   decrement.MenuItemID,
		Quantity:     decrement.Quantity,
		AppliedAt:    r.s.now(),
	}

	return menuitem.DecrementOutcome{Applied: true, Stock: m.Stock}, nil
}

// AuditRepository implements iauditrepo.IAuditRepository.
type AuditRepository struct {
	s *Store
}

func (r *AuditRepository) ListStockApplications(
	_ context.Context,
	orderID int64,
) ([]auditlog.StockApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.enter(OpListApplications, orderID); err != nil {
		return nil, err
	}

	var result []auditlog.StockApplication
	for k, a := range r.s.applications {
		if k.orderID == orderID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TargetStatus != result[j].TargetStatus {
			return result[i].TargetStatus < result[j].TargetStatus
		}
		return result[i].MenuItemID < result[j].MenuItemID
	})

	return result, nil
}
