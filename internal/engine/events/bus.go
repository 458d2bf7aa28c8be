package events

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"boardflow/internal/pkg/metrics"
)

// AutomationRunner evaluates automation rules against an event.
type AutomationRunner interface {
	Run(evt Event) error
}

// WebhookSink delivers an externally named event payload to a tenant's
// subscribers.
type WebhookSink interface {
	Fire(orgID, event string, payload map[string]interface{}) error
}

// BusConfig sizes the dispatch queue and its worker pool.
type BusConfig struct {
	QueueSize int
	Workers   int
}

type dispatchJob struct {
	evt      Event
	external string
	mapped   bool
	payload  map[string]interface{}
}

// Bus fans committed state changes out to the automation engine and the
// webhook dispatcher. Emit enqueues and returns immediately; a fixed pool
// of workers drains the queue so event bursts are bounded by the queue
// size instead of by unbounded goroutine growth. Neither consumer's
// failure ever reaches the mutation that emitted the event.
type Bus struct {
	automations AutomationRunner
	webhooks    WebhookSink

	workers int
	queue   chan dispatchJob
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewBus sizes the dispatch queue. The bus accepts events immediately;
// dispatch begins once Start attaches the two consumers.
func NewBus(cfg BusConfig) *Bus {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Bus{
		workers: cfg.Workers,
		queue:   make(chan dispatchJob, cfg.QueueSize),
	}
}

// Start attaches the consumers and launches the worker pool. Events
// emitted before Start stay queued until the pool comes up. Calling
// Start more than once, or after Close, is a no-op.
func (b *Bus) Start(automations AutomationRunner, webhooks WebhookSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return
	}
	b.started = true
	b.automations = automations
	b.webhooks = webhooks

	b.wg.Add(b.workers)
	for i := 0; i < b.workers; i++ {
		go b.worker()
	}
}

// Emit schedules automation evaluation and webhook fan-out for evt and
// returns before either runs. It never panics and never returns an error:
// a mutation must succeed or fail on its own terms regardless of what
// happens downstream. If the queue is full the event is dropped and
// counted; dropping is preferable to blocking the mutation path.
func (b *Bus) Emit(evt Event, extra map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("trigger", string(evt.Trigger)).Msgf("event emit panicked: %v", truncate(fmt.Sprint(r), 200))
		}
	}()

	if !evt.Trigger.Valid() {
		log.Error().Str("trigger", string(evt.Trigger)).Msg("dropping event with unknown trigger")
		return
	}

	job := dispatchJob{evt: evt}
	if name, ok := evt.Trigger.ExternalEvent(); ok {
		job.external = name
		job.mapped = true
		job.payload = BuildPayload(evt, name, extra)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		log.Warn().Str("trigger", string(evt.Trigger)).Msg("event emitted after bus close, dropping")
		metrics.EventsDropped.Inc()
		return
	}

	select {
	case b.queue <- job:
		metrics.EventsEmitted.Inc()
		metrics.EventQueueDepth.Set(float64(len(b.queue)))
	default:
		metrics.EventsDropped.Inc()
		log.Warn().
			Str("trigger", string(evt.Trigger)).
			Str("org_id", evt.OrgID).
			Msg("event queue full, dropping event")
	}
	b.mu.Unlock()
}

// Depth reports how many events are queued and not yet dispatched.
func (b *Bus) Depth() int {
	return len(b.queue)
}

// Close stops intake and blocks until queued events finish dispatching.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for job := range b.queue {
		metrics.EventQueueDepth.Set(float64(len(b.queue)))
		b.dispatch(job)
	}
}

// dispatch runs both consumers concurrently and waits for both to settle.
// Failures are collected for logging only; one path failing neither
// cancels nor delays the other.
func (b *Bus) dispatch(job dispatchJob) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("trigger", string(job.evt.Trigger)).Msgf("event dispatch panicked: %v", truncate(fmt.Sprint(r), 200))
		}
	}()

	var wg sync.WaitGroup
	var autoErr, hookErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer recoverInto(&autoErr)
		autoErr = b.automations.Run(job.evt)
	}()

	if job.mapped {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverInto(&hookErr)
			hookErr = b.webhooks.Fire(job.evt.OrgID, job.external, job.payload)
		}()
	}

	wg.Wait()

	// Log truncated messages only; payloads carry tenant content and
	// must not end up in operational logs.
	if autoErr != nil {
		log.Error().
			Str("trigger", string(job.evt.Trigger)).
			Str("org_id", job.evt.OrgID).
			Str("error", truncate(autoErr.Error(), 200)).
			Msg("automation run failed")
	}
	if hookErr != nil {
		log.Error().
			Str("event", job.external).
			Str("org_id", job.evt.OrgID).
			Int("payload_bytes", len(fmt.Sprint(job.payload))).
			Str("error", truncate(hookErr.Error(), 200)).
			Msg("webhook fan-out failed")
	}
}

func recoverInto(dst *error) {
	if r := recover(); r != nil {
		*dst = fmt.Errorf("panic: %v", r)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
