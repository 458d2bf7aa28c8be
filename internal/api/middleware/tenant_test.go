package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	apiContext "boardflow/internal/api/context"
	"boardflow/internal/platform/auth"
	"boardflow/internal/platform/repositories"
)

func requestWithClaims(orgID string) *http.Request {
	req := httptest.NewRequest("GET", "/", nil)
	claims := &auth.Claims{UserID: "usr_1", OrganizationID: orgID, Role: "member"}
	ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
	return req.WithContext(ctx)
}

func TestTenantMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("open sqlmock: %v", err)
	}
	defer db.Close()

	mw := NewTenantMiddleware(repositories.NewOrganizationRepository(db))

	t.Run("valid org", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "slug", "name", "created_at", "updated_at", "deleted_at"}).
			AddRow("org_123", "acme", "Acme", 1700000000, 1700000000, nil)
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
			WithArgs("org_123").
			WillReturnRows(rows)

		rr := httptest.NewRecorder()
		handler := mw.Handle(func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Context().Value(apiContext.Tenant).(*TenantContext)
			if tenant.OrgID != "org_123" {
				t.Errorf("OrgID = %q, want org_123", tenant.OrgID)
			}
			if tenant.OrgSlug != "acme" {
				t.Errorf("OrgSlug = %q, want acme", tenant.OrgSlug)
			}
			w.WriteHeader(http.StatusOK)
		})
		handler.ServeHTTP(rr, requestWithClaims("org_123"))

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
		}
	})

	t.Run("org not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
			WithArgs("org_999").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := mw.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		})
		handler.ServeHTTP(rr, requestWithClaims("org_999"))

		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("deactivated org", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "slug", "name", "created_at", "updated_at", "deleted_at"}).
			AddRow("org_dead", "gone", "Gone Inc", 1700000000, 1700000000, 1700000500)
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
			WithArgs("org_dead").
			WillReturnRows(rows)

		rr := httptest.NewRecorder()
		handler := mw.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		})
		handler.ServeHTTP(rr, requestWithClaims("org_dead"))

		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("missing claims", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler := mw.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		})
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}
