package middleware

import (
	"context"
	"net/http"

	apiContext "boardflow/internal/api/context"
	"boardflow/internal/pkg/errors"
	"boardflow/internal/platform/auth"
	"boardflow/internal/platform/repositories"
)

type TenantContext struct {
	OrgID   string
	OrgSlug string
}

type TenantMiddleware struct {
	orgRepo *repositories.OrganizationRepository
}

func NewTenantMiddleware(orgRepo *repositories.OrganizationRepository) *TenantMiddleware {
	return &TenantMiddleware{orgRepo: orgRepo}
}

// Handle resolves the authenticated claims' organization and stores it in the
// request context. Every downstream query is scoped to this org.
func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		org, err := m.orgRepo.GetByID(claims.OrganizationID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
			return
		}
		if org == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
			return
		}
		if org.DeletedAt != nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization is deactivated", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &TenantContext{
			OrgID:   org.ID,
			OrgSlug: org.Slug,
		})

		next(w, r.WithContext(ctx))
	}
}
