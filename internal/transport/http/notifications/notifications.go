package notifications

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/corray333/backend-labs/fulfillment/internal/service/models/notification"
	"github.com/corray333/backend-labs/fulfillment/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
)

type service interface {
	ListUnread(ctx context.Context, userID string) ([]notification.Notification, error)
	MarkRead(ctx context.Context, id int64, userID string) error
}

type listResponse struct {
	UserID        string                      `json:"userId"`
	Notifications []notification.Notification `json:"notifications"`
}

// ListUnread handles GET /api/users/{userId}/notifications.
func ListUnread(w http.ResponseWriter, r *http.Request, service service) {
	userID := chi.URLParam(r, "userId")

	list, err := service.ListUnread(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, listResponse{UserID: userID, Notifications: list})
}

// MarkRead handles POST /api/users/{userId}/notifications/{id}/read.
func MarkRead(w http.ResponseWriter, r *http.Request, service service) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		respond.Error(w, r, errs.Validationf("user id is required"))
		return
	}

	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := service.MarkRead(r.Context(), id, userID); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
