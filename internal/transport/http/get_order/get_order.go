package getorder

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/fulfillment/internal/service/services/lifecyclesvc"
	"github.com/corray333/backend-labs/fulfillment/internal/transport/http/respond"
)

type service interface {
	GetOrder(ctx context.Context, orderID int64) (lifecyclesvc.OrderDetails, error)
}

// GetOrder handles GET /api/orders/{id}.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	details, err := service.GetOrder(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, details)
}
