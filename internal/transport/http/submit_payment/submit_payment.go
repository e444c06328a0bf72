package submitpayment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/lifecyclesvc"
	"github.com/corray333/backend-labs/fulfillment/internal/transport/http/respond"
	"github.com/go-playground/validator/v10"
)

type service interface {
	SubmitPayment(ctx context.Context, orderID int64, method string, proofRef string) (lifecyclesvc.OrderDetails, error)
}

// submitPaymentRequest carries the checkout payment step. ProofRef is the
// stored upload reference and is required by every method except the
// on-fulfillment one; the service enforces that.
type submitPaymentRequest struct {
	Method   string `json:"method"   validate:"required,max=64"`
	ProofRef string `json:"proofRef" validate:"max=512"`
}

// SubmitPayment handles POST /api/orders/{id}/payment.
func SubmitPayment(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req submitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, errs.Validationf("invalid request body: %v", err))
		return
	}
	if err := validator.New().Struct(&req); err != nil {
		respond.Error(w, r, errs.Validationf("%v", err))
		return
	}

	details, err := service.SubmitPayment(r.Context(), id, req.Method, req.ProofRef)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, details)
}
