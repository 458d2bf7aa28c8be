package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "boardflow/internal/api/context"
	"boardflow/internal/api/handlers"
	"boardflow/internal/api/middleware"
	"boardflow/internal/pkg/errors"
	"boardflow/internal/platform/auth"
)

type Dependencies struct {
	AuthHandler         *handlers.AuthHandler
	OrgHandler          *handlers.OrgHandler
	InviteHandler       *handlers.InviteHandler
	UserHandler         *handlers.UserHandler
	BoardHandler        *handlers.BoardHandler
	CardHandler         *handlers.CardHandler
	SprintHandler       *handlers.SprintHandler
	NotificationHandler *handlers.NotificationHandler
	RuleHandler         *handlers.RuleHandler
	WebhookHandler      *handlers.WebhookHandler
	InboundHandler      *handlers.InboundHandler
	AuditHandler        *handlers.AuditHandler
	HealthHandler       *handlers.HealthHandler
	MetricsHandler      *handlers.MetricsHandler
	AuthMiddleware      *middleware.AuthMiddleware
	TenantMiddleware    *middleware.TenantMiddleware
	RateLimit           *middleware.RateLimitMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware
	rate := deps.RateLimit

	// Operations surface
	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// Signup, login, token refresh
	router.POST("/api/v1/organizations", chain(deps.OrgHandler.Create, rate.Handle("signup")))
	router.POST("/api/v1/auth/signup", chain(deps.AuthHandler.Signup, rate.Handle("signup")))
	router.POST("/api/v1/auth/login", chain(deps.AuthHandler.Login, rate.Handle("login")))
	router.POST("/api/v1/auth/refresh", wrap(deps.AuthHandler.Refresh))

	// Signed third-party callbacks
	router.POST("/api/v1/inbound/:source", wrap(deps.InboundHandler.Receive))

	// Organization
	router.GET("/api/v1/organizations/current",
		chain(deps.OrgHandler.GetCurrent, authMid.Handle, tenantMid.Handle))

	// Invite management
	router.POST("/api/v1/invites",
		chain(deps.InviteHandler.Create, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner"), rate.Handle("create_invite")))
	router.GET("/api/v1/invites",
		chain(deps.InviteHandler.List, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.DELETE("/api/v1/invites/:invite_id",
		chain(deps.InviteHandler.Revoke, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))

	// User management
	router.GET("/api/v1/users",
		chain(deps.UserHandler.List, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/users/:user_id",
		chain(deps.UserHandler.Get, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/users/:user_id/role",
		chain(deps.UserHandler.UpdateRole, authMid.Handle, tenantMid.Handle, requireRole("owner")))

	// Boards and lists
	router.POST("/api/v1/boards",
		chain(deps.BoardHandler.Create, authMid.Handle, tenantMid.Handle, rate.Handle("create_board")))
	router.GET("/api/v1/boards",
		chain(deps.BoardHandler.List, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/boards/:board_id",
		chain(deps.BoardHandler.Get, authMid.Handle, tenantMid.Handle))
	router.DELETE("/api/v1/boards/:board_id",
		chain(deps.BoardHandler.Delete, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.POST("/api/v1/boards/:board_id/lists",
		chain(deps.BoardHandler.CreateList, authMid.Handle, tenantMid.Handle, rate.Handle("create_list")))
	router.GET("/api/v1/boards/:board_id/lists",
		chain(deps.BoardHandler.ListLists, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/boards/:board_id/cards",
		chain(deps.BoardHandler.ListCards, authMid.Handle, tenantMid.Handle))

	// Cards
	router.POST("/api/v1/boards/:board_id/cards",
		chain(deps.CardHandler.Create, authMid.Handle, tenantMid.Handle, rate.Handle("create_card")))
	router.GET("/api/v1/cards/:card_id",
		chain(deps.CardHandler.Get, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/cards/:card_id",
		chain(deps.CardHandler.Update, authMid.Handle, tenantMid.Handle, rate.Handle("update_card")))
	router.DELETE("/api/v1/cards/:card_id",
		chain(deps.CardHandler.Delete, authMid.Handle, tenantMid.Handle, rate.Handle("delete_card")))
	router.POST("/api/v1/cards/:card_id/move",
		chain(deps.CardHandler.Move, authMid.Handle, tenantMid.Handle, rate.Handle("move_card")))
	router.POST("/api/v1/cards/:card_id/labels",
		chain(deps.CardHandler.ApplyLabel, authMid.Handle, tenantMid.Handle, rate.Handle("apply_label")))
	router.POST("/api/v1/cards/:card_id/assign",
		chain(deps.CardHandler.Assign, authMid.Handle, tenantMid.Handle, rate.Handle("assign_member")))
	router.POST("/api/v1/cards/:card_id/comments",
		chain(deps.CardHandler.AddComment, authMid.Handle, tenantMid.Handle, rate.Handle("create_comment")))
	router.GET("/api/v1/cards/:card_id/comments",
		chain(deps.CardHandler.ListComments, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/cards/:card_id/checklist",
		chain(deps.CardHandler.AddChecklistItem, authMid.Handle, tenantMid.Handle, rate.Handle("update_card")))
	router.GET("/api/v1/cards/:card_id/checklist",
		chain(deps.CardHandler.ListChecklist, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/cards/:card_id/checklist/:item_id",
		chain(deps.CardHandler.ToggleChecklistItem, authMid.Handle, tenantMid.Handle, rate.Handle("update_card")))

	// Sprints
	router.POST("/api/v1/boards/:board_id/sprints",
		chain(deps.SprintHandler.Create, authMid.Handle, tenantMid.Handle, rate.Handle("create_sprint")))
	router.GET("/api/v1/boards/:board_id/sprints",
		chain(deps.SprintHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/sprints/:sprint_id/start",
		chain(deps.SprintHandler.Start, authMid.Handle, tenantMid.Handle, rate.Handle("start_sprint")))
	router.POST("/api/v1/sprints/:sprint_id/complete",
		chain(deps.SprintHandler.Complete, authMid.Handle, tenantMid.Handle, rate.Handle("complete_sprint")))

	// Notifications
	router.GET("/api/v1/notifications",
		chain(deps.NotificationHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/notifications/:notification_id/read",
		chain(deps.NotificationHandler.MarkRead, authMid.Handle, tenantMid.Handle))

	// Automation rules
	router.POST("/api/v1/rules",
		chain(deps.RuleHandler.Create, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner"), rate.Handle("create_rule")))
	router.GET("/api/v1/rules",
		chain(deps.RuleHandler.List, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.GET("/api/v1/rules/:rule_id",
		chain(deps.RuleHandler.Get, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.PATCH("/api/v1/rules/:rule_id",
		chain(deps.RuleHandler.Update, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.DELETE("/api/v1/rules/:rule_id",
		chain(deps.RuleHandler.Delete, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))

	// Webhook subscriptions
	router.POST("/api/v1/webhooks",
		chain(deps.WebhookHandler.Create, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner"), rate.Handle("create_webhook")))
	router.GET("/api/v1/webhooks",
		chain(deps.WebhookHandler.List, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.GET("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Get, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.PATCH("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Update, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.DELETE("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Delete, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.POST("/api/v1/webhooks/:webhook_id/rotate",
		chain(deps.WebhookHandler.Rotate, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))
	router.GET("/api/v1/webhooks/:webhook_id/deliveries",
		chain(deps.WebhookHandler.ListDeliveries, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))

	// Audit trail
	router.GET("/api/v1/audit",
		chain(deps.AuditHandler.List, authMid.Handle, tenantMid.Handle, requireRole("admin", "owner")))

	return router
}

// chain applies middlewares left to right, outermost first.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// wrap converts an http.HandlerFunc to httprouter.Handle, stashing the
// route params in the request context.
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}

			if !allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}
