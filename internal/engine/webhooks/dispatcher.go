package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"boardflow/internal/pkg/metrics"
)

const (
	userAgent = "boardflow-webhooks/1.0"

	// Remote response bodies are drained (bounded) so connections can be
	// reused, but their contents are never stored or logged.
	maxResponseDrain = 4 * 1024
)

// DeliveryError describes one failed attempt: a network-level failure
// (Status 0, Err set) or a non-2xx response (Status set, Err nil).
type DeliveryError struct {
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return "delivery failed: " + e.Err.Error()
	}
	return fmt.Sprintf("delivery failed: HTTP %d", e.Status)
}

type DispatcherConfig struct {
	// DeliveryTimeout bounds a single POST, connect to response headers.
	DeliveryTimeout time.Duration
	// MaxConcurrent caps in-flight deliveries across all events.
	MaxConcurrent int
}

// Dispatcher sends signed event payloads to subscribed endpoints and
// records every attempt. One event produces at most one attempt per
// subscription; failed attempts are recorded, not retried.
type Dispatcher struct {
	repo    *Repository
	client  *http.Client
	timeout time.Duration
	sem     chan struct{}
}

func NewDispatcher(repo *Repository, cfg DispatcherConfig) *Dispatcher {
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 10 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 16
	}
	return &Dispatcher{
		repo:    repo,
		client:  &http.Client{},
		timeout: cfg.DeliveryTimeout,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Fire delivers event to every enabled subscription of the org that
// listens for it. Deliveries to distinct endpoints run concurrently; Fire
// returns once all attempts are recorded. A subscription's failure never
// affects another's delivery. Returns an error only when subscriptions
// cannot be loaded or the payload cannot be encoded.
func (d *Dispatcher) Fire(orgID, event string, payload map[string]interface{}) error {
	subs, err := d.repo.ListEnabledForEvent(orgID, event)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *Subscription) {
			defer wg.Done()
			d.sem <- struct{}{}
			defer func() { <-d.sem }()
			d.deliver(sub, event, body)
		}(sub)
	}
	wg.Wait()
	return nil
}

func (d *Dispatcher) deliver(sub *Subscription, event string, body []byte) {
	rec := &DeliveryRecord{
		ID:          "del_" + uuid.New().String(),
		WebhookID:   sub.ID,
		Event:       event,
		Payload:     string(body),
		AttemptedAt: time.Now().Unix(),
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		rec.DurationMs = time.Since(start).Milliseconds()
		d.record(rec, &DeliveryError{Err: err})
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Boardflow-Event", event)
	req.Header.Set("X-Boardflow-Delivery", rec.ID)
	req.Header.Set("X-Boardflow-Signature-256", SignatureHeader(sub.Secret, body))

	resp, err := d.client.Do(req)
	rec.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		// Timeout, DNS failure, refused connection: no response, so the
		// recorded status code stays null.
		d.record(rec, &DeliveryError{Err: err})
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseDrain))
	resp.Body.Close()

	code := resp.StatusCode
	rec.StatusCode = &code
	rec.Success = code >= 200 && code < 300

	if rec.Success {
		d.record(rec, nil)
	} else {
		d.record(rec, &DeliveryError{Status: code})
	}
}

// record persists the attempt and updates counters. A failed insert is
// logged and swallowed: the delivery outcome already happened and losing
// the log row must not surface as a delivery failure.
func (d *Dispatcher) record(rec *DeliveryRecord, deliverErr *DeliveryError) {
	outcome := "success"
	if !rec.Success {
		outcome = "failure"
	}
	metrics.DeliveriesTotal.WithLabelValues(outcome).Inc()
	metrics.DeliveryDuration.Observe(float64(rec.DurationMs) / 1000.0)

	if deliverErr != nil {
		log.Warn().
			Str("webhook_id", rec.WebhookID).
			Str("event", rec.Event).
			Int64("duration_ms", rec.DurationMs).
			Str("error", truncateErr(deliverErr.Error())).
			Msg("webhook delivery failed")
	}

	if err := d.repo.CreateDelivery(rec); err != nil {
		log.Error().
			Str("webhook_id", rec.WebhookID).
			Str("delivery_id", rec.ID).
			Str("error", truncateErr(err.Error())).
			Msg("failed to persist delivery record")
	}
}

func truncateErr(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
