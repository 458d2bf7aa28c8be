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

type SprintHandler struct {
	svc *boards.Service
}

func NewSprintHandler(svc *boards.Service) *SprintHandler {
	return &SprintHandler{svc: svc}
}

type CreateSprintRequest struct {
	Name string `json:"name"`
}

func (h *SprintHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	boardID := paramFrom(r, "board_id")

	var req CreateSprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	sprint, err := h.svc.CreateSprint(tenant.OrgID, boardID, req.Name, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Board not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sprint)
}

func (h *SprintHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	boardID := paramFrom(r, "board_id")

	sprints, err := h.svc.ListSprints(tenant.OrgID, boardID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if sprints == nil {
		sprints = []*boards.Sprint{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sprints)
}

func (h *SprintHandler) Start(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	sprintID := paramFrom(r, "sprint_id")

	sprint, err := h.svc.StartSprint(tenant.OrgID, sprintID, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Sprint not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sprint)
}

func (h *SprintHandler) Complete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	sprintID := paramFrom(r, "sprint_id")

	sprint, err := h.svc.CompleteSprint(tenant.OrgID, sprintID, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Sprint not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sprint)
}
