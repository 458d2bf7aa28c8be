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

type BoardHandler struct {
	svc *boards.Service
}

func NewBoardHandler(svc *boards.Service) *BoardHandler {
	return &BoardHandler{svc: svc}
}

type CreateBoardRequest struct {
	Name string `json:"name"`
}

func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	board, err := h.svc.CreateBoard(tenant.OrgID, req.Name, claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(board)
}

func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	list, err := h.svc.ListBoards(tenant.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if list == nil {
		list = []*boards.Board{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	boardID := paramFrom(r, "board_id")

	board, err := h.svc.GetBoard(tenant.OrgID, boardID)
	if err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Board not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(board)
}

func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	boardID := paramFrom(r, "board_id")

	if err := h.svc.DeleteBoard(tenant.OrgID, boardID); err != nil {
		if isNotFound(err) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Board not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete board", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type CreateListRequest struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

func (h *BoardHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	boardID := paramFrom(r, "board_id")

	var req CreateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	list, err := h.svc.CreateList(tenant.OrgID, boardID, req.Name, req.Position)
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
	json.NewEncoder(w).Encode(list)
}

func (h *BoardHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	boardID := paramFrom(r, "board_id")

	lists, err := h.svc.ListLists(tenant.OrgID, boardID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if lists == nil {
		lists = []*boards.List{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lists)
}

func (h *BoardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	boardID := paramFrom(r, "board_id")

	cards, err := h.svc.ListCards(tenant.OrgID, boardID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if cards == nil {
		cards = []*boards.Card{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cards)
}
