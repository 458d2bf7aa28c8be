package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingRunner struct {
	mu      sync.Mutex
	events  []Event
	started chan struct{}
	gate    chan struct{}
	err     error
	panics  bool
}

func (r *recordingRunner) Run(evt Event) error {
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.gate != nil {
		<-r.gate
	}
	if r.panics {
		panic("runner exploded")
	}
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	return r.err
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type firedEvent struct {
	orgID   string
	event   string
	payload map[string]interface{}
}

type recordingSink struct {
	mu    sync.Mutex
	fired []firedEvent
	err   error
}

func (s *recordingSink) Fire(orgID, event string, payload map[string]interface{}) error {
	s.mu.Lock()
	s.fired = append(s.fired, firedEvent{orgID: orgID, event: event, payload: payload})
	s.mu.Unlock()
	return s.err
}

func (s *recordingSink) all() []firedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]firedEvent, len(s.fired))
	copy(out, s.fired)
	return out
}

func newStartedBus(cfg BusConfig, runner AutomationRunner, sink WebhookSink) *Bus {
	bus := NewBus(cfg)
	bus.Start(runner, sink)
	return bus
}

func TestBus_EmitDispatchesToBothConsumers(t *testing.T) {
	runner := &recordingRunner{}
	sink := &recordingSink{}
	bus := newStartedBus(BusConfig{QueueSize: 8, Workers: 2}, runner, sink)

	bus.Emit(Event{
		Trigger: TriggerCardMoved,
		OrgID:   "org_1",
		BoardID: "board_1",
		CardID:  "card_1",
		Context: map[string]interface{}{
			"to_list_id":    "list_done",
			"internal_note": "hidden",
		},
	}, nil)
	bus.Close()

	if runner.count() != 1 {
		t.Fatalf("Expected 1 automation run, got %d", runner.count())
	}
	if runner.events[0].Trigger != TriggerCardMoved {
		t.Errorf("Expected CARD_MOVED trigger, got %s", runner.events[0].Trigger)
	}

	fired := sink.all()
	if len(fired) != 1 {
		t.Fatalf("Expected 1 webhook fan-out, got %d", len(fired))
	}
	if fired[0].orgID != "org_1" || fired[0].event != "card.moved" {
		t.Errorf("Unexpected fan-out %s/%s", fired[0].orgID, fired[0].event)
	}
	if fired[0].payload["to_list_id"] != "list_done" {
		t.Error("Expected allowlisted field in fan-out payload")
	}
	if _, ok := fired[0].payload["internal_note"]; ok {
		t.Error("Non-allowlisted field leaked into fan-out payload")
	}
}

func TestBus_AutomationOnlyTriggerSkipsWebhooks(t *testing.T) {
	runner := &recordingRunner{}
	sink := &recordingSink{}
	bus := newStartedBus(BusConfig{}, runner, sink)

	bus.Emit(Event{Trigger: TriggerCardOverdue, OrgID: "org_1", BoardID: "board_1", CardID: "card_1"}, nil)
	bus.Close()

	if runner.count() != 1 {
		t.Errorf("Expected automation run for CARD_OVERDUE, got %d", runner.count())
	}
	if len(sink.all()) != 0 {
		t.Error("CARD_OVERDUE must never reach webhook subscribers")
	}
}

func TestBus_UnknownTriggerIsDropped(t *testing.T) {
	runner := &recordingRunner{}
	sink := &recordingSink{}
	bus := newStartedBus(BusConfig{}, runner, sink)

	bus.Emit(Event{Trigger: "CARD_EXPLODED", OrgID: "org_1"}, nil)
	bus.Close()

	if runner.count() != 0 || len(sink.all()) != 0 {
		t.Error("Unknown trigger must not reach any consumer")
	}
}

func TestBus_ConsumerFailuresAreIsolated(t *testing.T) {
	// The runner panics outright; the webhook side must still fire, and
	// the bus must survive to process the next event.
	runner := &recordingRunner{panics: true}
	sink := &recordingSink{err: errors.New("all endpoints down")}
	bus := newStartedBus(BusConfig{Workers: 1}, runner, sink)

	bus.Emit(Event{Trigger: TriggerCardCreated, OrgID: "org_1", BoardID: "b", CardID: "c1"}, nil)
	bus.Emit(Event{Trigger: TriggerCardCreated, OrgID: "org_1", BoardID: "b", CardID: "c2"}, nil)
	bus.Close()

	if len(sink.all()) != 2 {
		t.Errorf("Expected webhook fan-out for both events despite runner panics, got %d", len(sink.all()))
	}
}

func TestBus_CloseDrainsQueuedEvents(t *testing.T) {
	runner := &recordingRunner{gate: make(chan struct{})}
	sink := &recordingSink{}
	bus := newStartedBus(BusConfig{QueueSize: 8, Workers: 1}, runner, sink)

	for i := 0; i < 3; i++ {
		bus.Emit(Event{Trigger: TriggerCardOverdue, OrgID: "org_1", BoardID: "b", CardID: "c"}, nil)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(runner.gate)
	}()
	bus.Close()

	if runner.count() != 3 {
		t.Errorf("Close returned before the queue drained: %d of 3 dispatched", runner.count())
	}
}

func TestBus_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	runner := &recordingRunner{started: make(chan struct{}, 4), gate: make(chan struct{})}
	sink := &recordingSink{}
	bus := newStartedBus(BusConfig{QueueSize: 1, Workers: 1}, runner, sink)

	evt := Event{Trigger: TriggerCardOverdue, OrgID: "org_1", BoardID: "b", CardID: "c"}

	// First event reaches the worker and parks on the gate.
	bus.Emit(evt, nil)
	<-runner.started
	// Second fills the one queue slot; third must be dropped, not block.
	bus.Emit(evt, nil)

	done := make(chan struct{})
	go func() {
		bus.Emit(evt, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full queue")
	}

	close(runner.gate)
	bus.Close()

	if runner.count() != 2 {
		t.Errorf("Expected 2 dispatched events (1 dropped), got %d", runner.count())
	}
}

func TestBus_EventsQueuedBeforeStartDispatchAfterStart(t *testing.T) {
	runner := &recordingRunner{}
	sink := &recordingSink{}
	bus := NewBus(BusConfig{QueueSize: 8})

	bus.Emit(Event{Trigger: TriggerCardCreated, OrgID: "org_1", BoardID: "b", CardID: "c"}, nil)

	bus.Start(runner, sink)
	bus.Close()

	if runner.count() != 1 {
		t.Errorf("Expected event queued before Start to dispatch, got %d", runner.count())
	}
}

func TestBus_EmitAfterCloseIsSafe(t *testing.T) {
	runner := &recordingRunner{}
	sink := &recordingSink{}
	bus := newStartedBus(BusConfig{}, runner, sink)
	bus.Close()

	// Must neither panic nor dispatch.
	bus.Emit(Event{Trigger: TriggerCardCreated, OrgID: "org_1", BoardID: "b", CardID: "c"}, nil)

	if runner.count() != 0 {
		t.Error("Event emitted after close must be dropped")
	}
}
