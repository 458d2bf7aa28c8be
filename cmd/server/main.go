package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boardflow/internal/api"
	"boardflow/internal/api/handlers"
	"boardflow/internal/api/middleware"
	"boardflow/internal/engine/automations"
	"boardflow/internal/engine/boards"
	"boardflow/internal/engine/events"
	"boardflow/internal/engine/ratelimit"
	"boardflow/internal/engine/webhooks"
	"boardflow/internal/platform/audit"
	"boardflow/internal/platform/auth"
	"boardflow/internal/platform/config"
	"boardflow/internal/platform/database"
	"boardflow/internal/platform/repositories"
	"boardflow/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	inviteRepo := repositories.NewInviteRepository(db)
	boardRepo := boards.NewRepository(db)
	ruleRepo := automations.NewRepository(db)
	webhookRepo := webhooks.NewRepository(db)

	// Event pipeline. The bus is built first so the mutation layer can
	// emit into it, then started once both consumers exist.
	bus := events.NewBus(events.BusConfig{
		QueueSize: cfg.Events.QueueSize,
		Workers:   cfg.Events.Workers,
	})
	boardSvc := boards.NewService(boardRepo, bus)
	engine := automations.NewEngine(ruleRepo, boardSvc)
	dispatcher := webhooks.NewDispatcher(webhookRepo, webhooks.DispatcherConfig{
		DeliveryTimeout: cfg.Webhooks.DeliveryTimeout,
		MaxConcurrent:   cfg.Webhooks.MaxConcurrentDeliveries,
	})
	bus.Start(engine, dispatcher)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	auditLog := audit.NewLogger(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	tenantMiddleware := middleware.NewTenantMiddleware(orgRepo)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(ratelimit.NewLimiter(), cfg.RateLimit)

	// Handlers
	deps := &api.Dependencies{
		AuthHandler:         handlers.NewAuthHandler(userRepo, orgRepo, inviteRepo, tokenSvc),
		OrgHandler:          handlers.NewOrgHandler(orgRepo, userRepo, tokenSvc),
		InviteHandler:       handlers.NewInviteHandler(inviteRepo, bus, auditLog),
		UserHandler:         handlers.NewUserHandler(userRepo),
		BoardHandler:        handlers.NewBoardHandler(boardSvc),
		CardHandler:         handlers.NewCardHandler(boardSvc),
		SprintHandler:       handlers.NewSprintHandler(boardSvc),
		NotificationHandler: handlers.NewNotificationHandler(boardSvc),
		RuleHandler:         handlers.NewRuleHandler(ruleRepo, auditLog),
		WebhookHandler:      handlers.NewWebhookHandler(webhookRepo, auditLog),
		InboundHandler:      handlers.NewInboundHandler(cfg.Webhooks.Inbound),
		AuditHandler:        handlers.NewAuditHandler(auditLog),
		HealthHandler:       handlers.NewHealthHandler(db, bus),
		MetricsHandler:      handlers.NewMetricsHandler(),
		AuthMiddleware:      authMiddleware,
		TenantMiddleware:    tenantMiddleware,
		RateLimit:           rateLimitMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	// In-flight handlers have finished emitting; drain whatever is still
	// queued before the process exits.
	bus.Close()
}
