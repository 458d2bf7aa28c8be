package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "boardflow/internal/api/context"
	"boardflow/internal/api/middleware"
	"boardflow/internal/engine/automations"
	"boardflow/internal/engine/events"
	"boardflow/internal/pkg/errors"
	"boardflow/internal/platform/audit"
	"boardflow/internal/platform/auth"
)

type RuleHandler struct {
	repo  *automations.Repository
	audit *audit.Logger
}

func NewRuleHandler(repo *automations.Repository, auditLog *audit.Logger) *RuleHandler {
	return &RuleHandler{repo: repo, audit: auditLog}
}

type CreateRuleRequest struct {
	Name       string                    `json:"name"`
	Trigger    string                    `json:"trigger"`
	BoardID    *string                   `json:"board_id"`
	Conditions automations.ConditionList `json:"conditions"`
	Actions    automations.ActionList    `json:"actions"`
	Enabled    *bool                     `json:"enabled"`
	Position   int                       `json:"position"`
}

func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if req.BoardID != nil && *req.BoardID == "" {
		req.BoardID = nil
	}

	rule := &automations.Rule{
		OrgID:      tenant.OrgID,
		BoardID:    req.BoardID,
		Name:       req.Name,
		Trigger:    events.TriggerType(req.Trigger),
		Conditions: req.Conditions,
		Actions:    req.Actions,
		Enabled:    enabled,
		Position:   req.Position,
		CreatedBy:  claims.UserID,
	}
	if err := rule.Validate(); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	if err := h.repo.Create(rule); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create rule", nil)
		return
	}

	h.audit.Record(r, tenant.OrgID, claims.UserID, "rule.created", "automation_rule", rule.ID, map[string]interface{}{"trigger": string(rule.Trigger)})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rule)
}

func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	rules, err := h.repo.ListByOrg(tenant.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if rules == nil {
		rules = []*automations.Rule{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rules)
}

func (h *RuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ruleID := paramFrom(r, "rule_id")

	rule, err := h.repo.GetByID(tenant.OrgID, ruleID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Rule not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

type UpdateRuleRequest struct {
	Name       *string                    `json:"name"`
	Trigger    *string                    `json:"trigger"`
	BoardID    *string                    `json:"board_id"`
	Conditions *automations.ConditionList `json:"conditions"`
	Actions    *automations.ActionList    `json:"actions"`
	Enabled    *bool                      `json:"enabled"`
	Position   *int                       `json:"position"`
}

func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	ruleID := paramFrom(r, "rule_id")

	rule, err := h.repo.GetByID(tenant.OrgID, ruleID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Rule not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	var req UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Trigger != nil {
		rule.Trigger = events.TriggerType(*req.Trigger)
	}
	if req.BoardID != nil {
		if *req.BoardID == "" {
			rule.BoardID = nil
		} else {
			rule.BoardID = req.BoardID
		}
	}
	if req.Conditions != nil {
		rule.Conditions = *req.Conditions
	}
	if req.Actions != nil {
		rule.Actions = *req.Actions
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if req.Position != nil {
		rule.Position = *req.Position
	}

	if err := rule.Validate(); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	if err := h.repo.Update(rule); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Rule not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update rule", nil)
		return
	}

	h.audit.Record(r, tenant.OrgID, claims.UserID, "rule.updated", "automation_rule", rule.ID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	ruleID := paramFrom(r, "rule_id")

	if err := h.repo.Delete(tenant.OrgID, ruleID); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Rule not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete rule", nil)
		return
	}

	h.audit.Record(r, tenant.OrgID, claims.UserID, "rule.deleted", "automation_rule", ruleID, nil)

	w.WriteHeader(http.StatusNoContent)
}
