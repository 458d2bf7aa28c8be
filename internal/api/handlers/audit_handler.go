package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	apiContext "boardflow/internal/api/context"
	"boardflow/internal/api/middleware"
	"boardflow/internal/pkg/errors"
	"boardflow/internal/platform/audit"
)

type AuditHandler struct {
	audit *audit.Logger
}

func NewAuditHandler(auditLog *audit.Logger) *AuditHandler {
	return &AuditHandler{audit: auditLog}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.audit.List(tenant.OrgID, limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if logs == nil {
		logs = []*audit.AuditLog{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}
