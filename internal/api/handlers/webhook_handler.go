package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	apiContext "boardflow/internal/api/context"
	"boardflow/internal/api/middleware"
	"boardflow/internal/engine/events"
	"boardflow/internal/engine/webhooks"
	"boardflow/internal/pkg/errors"
	"boardflow/internal/pkg/validator"
	"boardflow/internal/platform/audit"
	"boardflow/internal/platform/auth"
)

type WebhookHandler struct {
	repo  *webhooks.Repository
	audit *audit.Logger
}

func NewWebhookHandler(repo *webhooks.Repository, auditLog *audit.Logger) *WebhookHandler {
	return &WebhookHandler{repo: repo, audit: auditLog}
}

// SubscriptionWithSecret is the create/rotate response shape. It is the
// only place the signing secret ever appears in a response body.
type SubscriptionWithSecret struct {
	*webhooks.Subscription
	Secret string `json:"secret"`
}

type CreateWebhookRequest struct {
	URL     string   `json:"url"`
	Events  []string `json:"events"`
	Enabled *bool    `json:"enabled"`
}

func validateEvents(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("at least one event is required")
	}
	for _, name := range names {
		if !events.KnownExternalEvent(name) {
			return fmt.Errorf("unknown event %q", name)
		}
	}
	return nil
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.IsWebhookURL(req.URL); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if err := validateEvents(req.Events); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	secret, err := webhooks.GenerateSecret()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate secret", nil)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	sub := &webhooks.Subscription{
		OrgID:   tenant.OrgID,
		URL:     req.URL,
		Events:  req.Events,
		Secret:  secret,
		Enabled: enabled,
	}
	if err := h.repo.Create(sub); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create webhook", nil)
		return
	}

	h.audit.Record(r, tenant.OrgID, claims.UserID, "webhook.created", "webhook", sub.ID, map[string]interface{}{"url": sub.URL})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SubscriptionWithSecret{Subscription: sub, Secret: secret})
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	subs, err := h.repo.ListByOrg(tenant.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if subs == nil {
		subs = []*webhooks.Subscription{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subs)
}

func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	webhookID := paramFrom(r, "webhook_id")

	sub, err := h.repo.GetByID(tenant.OrgID, webhookID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

type UpdateWebhookRequest struct {
	URL     string   `json:"url"`
	Events  []string `json:"events"`
	Enabled *bool    `json:"enabled"`
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	webhookID := paramFrom(r, "webhook_id")

	sub, err := h.repo.GetByID(tenant.OrgID, webhookID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	var req UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.URL != "" {
		if err := validator.IsWebhookURL(req.URL); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}
		sub.URL = req.URL
	}
	if req.Events != nil {
		if err := validateEvents(req.Events); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}
		sub.Events = req.Events
	}
	if req.Enabled != nil {
		sub.Enabled = *req.Enabled
	}

	if err := h.repo.Update(sub); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update webhook", nil)
		return
	}

	h.audit.Record(r, tenant.OrgID, claims.UserID, "webhook.updated", "webhook", sub.ID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	webhookID := paramFrom(r, "webhook_id")

	if err := h.repo.Delete(tenant.OrgID, webhookID); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete webhook", nil)
		return
	}

	h.audit.Record(r, tenant.OrgID, claims.UserID, "webhook.deleted", "webhook", webhookID, nil)

	w.WriteHeader(http.StatusNoContent)
}

// Rotate replaces the signing secret and returns the new value. The old
// secret stops working immediately.
func (h *WebhookHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	webhookID := paramFrom(r, "webhook_id")

	sub, err := h.repo.GetByID(tenant.OrgID, webhookID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	secret, err := webhooks.GenerateSecret()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate secret", nil)
		return
	}
	if err := h.repo.UpdateSecret(tenant.OrgID, webhookID, secret); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to rotate secret", nil)
		return
	}
	sub.Secret = secret

	h.audit.Record(r, tenant.OrgID, claims.UserID, "webhook.rotated", "webhook", webhookID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SubscriptionWithSecret{Subscription: sub, Secret: secret})
}

func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	webhookID := paramFrom(r, "webhook_id")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	deliveries, err := h.repo.ListDeliveries(tenant.OrgID, webhookID, limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if deliveries == nil {
		deliveries = []*webhooks.DeliveryRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deliveries)
}
