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

// CardHandler exposes the card mutation surface. Every write goes through
// boards.Service so the matching events are emitted after commit.
type CardHandler struct {
	svc *boards.Service
}

func NewCardHandler(svc *boards.Service) *CardHandler {
	return &CardHandler{svc: svc}
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	boardID := paramFrom(r, "board_id")

	var input boards.CardInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	card, err := h.svc.CreateCard(tenant.OrgID, boardID, input, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "List not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(card)
}

func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	cardID := paramFrom(r, "card_id")

	card, err := h.svc.GetCard(tenant.OrgID, cardID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Card not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(card)
}

func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	cardID := paramFrom(r, "card_id")

	var patch boards.CardPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	card, err := h.svc.UpdateCard(tenant.OrgID, cardID, patch, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Card not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(card)
}

type MoveCardRequest struct {
	ToListID string `json:"to_list_id"`
}

func (h *CardHandler) Move(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	cardID := paramFrom(r, "card_id")

	var req MoveCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := h.svc.MoveCard(tenant.OrgID, cardID, req.ToListID, claims.UserID); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Card or list not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	cardID := paramFrom(r, "card_id")

	if err := h.svc.DeleteCard(tenant.OrgID, cardID, claims.UserID); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Card not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete card", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ApplyLabelRequest struct {
	Label string `json:"label"`
}

func (h *CardHandler) ApplyLabel(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	cardID := paramFrom(r, "card_id")

	var req ApplyLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := h.svc.ApplyLabel(tenant.OrgID, cardID, req.Label, claims.UserID); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Card not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type AssignRequest struct {
	MemberID string `json:"member_id"`
}

func (h *CardHandler) Assign(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	cardID := paramFrom(r, "card_id")

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := h.svc.AssignMember(tenant.OrgID, cardID, req.MemberID, claims.UserID); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Card not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type AddCommentRequest struct {
	Body string `json:"body"`
}

func (h *CardHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	cardID := paramFrom(r, "card_id")

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	comment, err := h.svc.AddComment(tenant.OrgID, cardID, req.Body, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Card not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(comment)
}

func (h *CardHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	cardID := paramFrom(r, "card_id")

	comments, err := h.svc.ListComments(tenant.OrgID, cardID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if comments == nil {
		comments = []*boards.Comment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(comments)
}

type AddChecklistItemRequest struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

func (h *CardHandler) AddChecklistItem(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	cardID := paramFrom(r, "card_id")

	var req AddChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	item, err := h.svc.AddChecklistItem(tenant.OrgID, cardID, req.Title, req.Position)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Card not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (h *CardHandler) ListChecklist(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	cardID := paramFrom(r, "card_id")

	items, err := h.svc.ListChecklistItems(tenant.OrgID, cardID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if items == nil {
		items = []*boards.ChecklistItem{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

type ToggleChecklistItemRequest struct {
	Done bool `json:"done"`
}

func (h *CardHandler) ToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	itemID := paramFrom(r, "item_id")

	var req ToggleChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	item, err := h.svc.ToggleChecklistItem(tenant.OrgID, itemID, req.Done, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Checklist item not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}
