package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"boardflow/internal/engine/automations"
	"boardflow/internal/engine/boards"
	"boardflow/internal/engine/events"
	"boardflow/internal/engine/webhooks"
	"boardflow/internal/platform/config"
	"boardflow/internal/platform/database"
	"boardflow/internal/pkg/logger"
	"boardflow/internal/workers"
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

	boardRepo := boards.NewRepository(db)
	ruleRepo := automations.NewRepository(db)
	webhookRepo := webhooks.NewRepository(db)

	// Sweep-emitted events run the same rule and webhook pipeline as
	// interactive mutations, just in this process.
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

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		workers.NewDueDateSweeper(boardSvc, cfg.Workers).Run(ctx)
	}()
	go func() {
		defer wg.Done()
		workers.NewRetentionSweeper(webhookRepo, cfg.Workers).Run(ctx)
	}()

	log.Println("Background workers started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down workers")
	cancel()
	wg.Wait()
	bus.Close()
}
