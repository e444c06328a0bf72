package stockapplications

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/fulfillment/internal/transport/http/respond"
)

type service interface {
	StockApplications(ctx context.Context, orderID int64) ([]auditlog.StockApplication, error)
}

type stockApplicationsResponse struct {
	OrderID      int64                       `json:"orderId"`
	Applications []auditlog.StockApplication `json:"applications"`
}

// ListStockApplications handles GET /api/orders/{id}/stock-applications.
func ListStockApplications(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	applications, err := service.StockApplications(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, stockApplicationsResponse{OrderID: id, Applications: applications})
}
