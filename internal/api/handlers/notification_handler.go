package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "boardflow/internal/api/context"
	"boardflow/internal/api/middleware"
	"boardflow/internal/engine/boards"
	"boardflow/internal/pkg/errors"
	"boardflow/internal/platform/auth"
)

type NotificationHandler struct {
	svc *boards.Service
}

func NewNotificationHandler(svc *boards.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.svc.ListNotifications(tenant.OrgID, claims.UserID, unreadOnly)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if notifications == nil {
		notifications = []*boards.Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	notifID := paramFrom(r, "notification_id")

	if err := h.svc.MarkNotificationRead(tenant.OrgID, claims.UserID, notifID); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Notification not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update notification", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
