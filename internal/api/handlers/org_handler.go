package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apiContext "boardflow/internal/api/context"
	"boardflow/internal/api/middleware"
	"boardflow/internal/engine/events"
	"boardflow/internal/pkg/errors"
	"boardflow/internal/pkg/validator"
	"boardflow/internal/platform/audit"
	"boardflow/internal/platform/auth"
	"boardflow/internal/platform/models"
	"boardflow/internal/platform/repositories"
)

type OrgHandler struct {
	orgRepo  *repositories.OrganizationRepository
	userRepo *repositories.UserRepository
	tokenSvc *auth.TokenService
}

func NewOrgHandler(orgRepo *repositories.OrganizationRepository, userRepo *repositories.UserRepository, tokenSvc *auth.TokenService) *OrgHandler {
	return &OrgHandler{
		orgRepo:  orgRepo,
		userRepo: userRepo,
		tokenSvc: tokenSvc,
	}
}

type CreateOrgRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type CreateOrgResponse struct {
	Organization *models.Organization `json:"organization"`
	User         *models.User         `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Create provisions a new organization with its owner user in one
// transaction and returns a logged-in session.
func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Name == "" || req.Slug == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Organization name and slug are required", nil)
		return
	}
	if err := validator.IsValidEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if len(req.Password) < 8 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Password must be at least 8 characters", nil)
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	existing, err := h.orgRepo.GetBySlug(slug)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Organization slug is taken", nil)
		return
	}

	existingUser, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existingUser != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User already exists", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	now := time.Now().Unix()
	org := &models.Organization{
		ID:        "org_" + uuid.NewString(),
		Slug:      slug,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	user := &models.User{
		ID:             "usr_" + uuid.NewString(),
		OrganizationID: org.ID,
		Email:          req.Email,
		PasswordHash:   string(hashedPassword),
		FullName:       req.FullName,
		Role:           "owner",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := h.orgRepo.BeginTx()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	defer tx.Rollback()

	if err := h.orgRepo.CreateTx(tx, org); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create organization", nil)
		return
	}
	if err := h.userRepo.CreateTx(tx, user); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create user", nil)
		return
	}
	if err := tx.Commit(); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.OrganizationID, user.Role, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateOrgResponse{
		Organization: org,
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *OrgHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	org, err := h.orgRepo.GetByID(tenant.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(org)
}

type InviteHandler struct {
	inviteRepo *repositories.InviteRepository
	bus        *events.Bus
	audit      *audit.Logger
}

func NewInviteHandler(inviteRepo *repositories.InviteRepository, bus *events.Bus, auditLog *audit.Logger) *InviteHandler {
	return &InviteHandler{inviteRepo: inviteRepo, bus: bus, audit: auditLog}
}

type CreateInviteRequest struct {
	Email          string `json:"email"`
	Role           string `json:"role"`
	MaxUses        int    `json:"max_uses"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	switch req.Role {
	case "admin", "member":
	case "":
		req.Role = "member"
	default:
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Role must be admin or member", nil)
		return
	}
	if req.MaxUses < 1 {
		req.MaxUses = 1
	}
	if req.ExpiresInHours < 1 {
		req.ExpiresInHours = 72
	}

	invite := &models.Invite{
		ID:             "inv_" + uuid.NewString(),
		OrganizationID: tenant.OrgID,
		Code:           "BFL-" + uuid.NewString()[:18],
		Email:          req.Email,
		Role:           req.Role,
		InvitedBy:      claims.UserID,
		Status:         "pending",
		MaxUses:        req.MaxUses,
		CurrentUses:    0,
		ExpiresAt:      time.Now().Add(time.Duration(req.ExpiresInHours) * time.Hour).Unix(),
		CreatedAt:      time.Now().Unix(),
		UpdatedAt:      time.Now().Unix(),
	}

	if err := h.inviteRepo.Create(invite); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create invite", nil)
		return
	}

	h.bus.Emit(events.Event{
		Trigger: events.TriggerMemberInvited,
		OrgID:   tenant.OrgID,
		Context: map[string]interface{}{
			"member_id": invite.ID,
			"actor_id":  claims.UserID,
		},
	}, nil)
	h.audit.Record(r, tenant.OrgID, claims.UserID, "invite.created", "invite", invite.ID, map[string]interface{}{"role": invite.Role})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(invite)
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	invites, err := h.inviteRepo.ListByOrg(tenant.OrgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if invites == nil {
		invites = []*models.Invite{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invites)
}

func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	inviteID := paramFrom(r, "invite_id")

	if err := h.inviteRepo.UpdateStatus(tenant.OrgID, inviteID, "revoked"); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to revoke invite", nil)
		return
	}

	h.audit.Record(r, tenant.OrgID, claims.UserID, "invite.revoked", "invite", inviteID, nil)

	w.WriteHeader(http.StatusNoContent)
}
