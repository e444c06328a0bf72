package transitionorder

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/order"
	"github.com/corray333/backend-labs/fulfillment/internal/service/services/lifecyclesvc"
	"github.com/corray333/backend-labs/fulfillment/internal/transport/http/respond"
	"github.com/go-playground/validator/v10"
)

type service interface {
	TransitionStatus(ctx context.Context, orderID int64, status order.Status, actorUserID string) (lifecyclesvc.Result, error)
	TransitionPaymentStatus(
		ctx context.Context,
		orderID int64,
		status order.PaymentStatus,
		actorUserID string,
	) (lifecyclesvc.Result, error)
}

type statusRequest struct {
	Status      string `json:"status"      validate:"required"`
	ActorUserID string `json:"actorUserId"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" validate:"required"`
	ActorUserID   string `json:"actorUserId"`
}

// decode reads the JSON body into req and validates its tags.
func decode(r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return errs.Validationf("invalid request body: %v", err)
	}
	if err := validator.New().Struct(req); err != nil {
		return errs.Validationf("%v", err)
	}

	return nil
}

// TransitionStatus handles POST /api/orders/{id}/status.
func TransitionStatus(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req statusRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := service.TransitionStatus(r.Context(), id, order.Status(req.Status), req.ActorUserID)
	if err != nil {
		respond.WithResult(w, r, result, err)
		return
	}

	respond.JSON(w, http.StatusOK, result)
}

// TransitionPaymentStatus handles POST /api/orders/{id}/payment-status.
func TransitionPaymentStatus(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req paymentStatusRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := service.TransitionPaymentStatus(r.Context(), id, order.PaymentStatus(req.PaymentStatus), req.ActorUserID)
	if err != nil {
		respond.WithResult(w, r, result, err)
		return
	}

	respond.JSON(w, http.StatusOK, result)
}
