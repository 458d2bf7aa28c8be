package boards

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"boardflow/internal/engine/events"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	query := `
	CREATE TABLE boards (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE lists (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		board_id TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE cards (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		board_id TEXT NOT NULL,
		list_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL DEFAULT 3,
		labels TEXT NOT NULL DEFAULT '[]',
		assignee_id TEXT NOT NULL DEFAULT '',
		sprint_id TEXT NOT NULL DEFAULT '',
		due_date INTEGER,
		position INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		due_soon_notified INTEGER NOT NULL DEFAULT 0,
		overdue_notified INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE checklist_items (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		card_id TEXT NOT NULL,
		title TEXT NOT NULL,
		done INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE comments (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		card_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE sprints (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		board_id TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'planned',
		started_at INTEGER,
		completed_at INTEGER,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		message TEXT NOT NULL,
		card_id TEXT NOT NULL DEFAULT '',
		read_at INTEGER,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}

type recordedEmit struct {
	evt   events.Event
	extra map[string]interface{}
}

type recordingBus struct {
	mu    sync.Mutex
	emits []recordedEmit
}

func (b *recordingBus) Emit(evt events.Event, extra map[string]interface{}) {
	b.mu.Lock()
	b.emits = append(b.emits, recordedEmit{evt: evt, extra: extra})
	b.mu.Unlock()
}

func (b *recordingBus) triggers() []events.TriggerType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.TriggerType, len(b.emits))
	for i, e := range b.emits {
		out[i] = e.evt.Trigger
	}
	return out
}

func (b *recordingBus) reset() {
	b.mu.Lock()
	b.emits = nil
	b.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *recordingBus, func()) {
	db := setupTestDB(t)
	bus := &recordingBus{}
	svc := NewService(NewRepository(db), bus)
	return svc, bus, func() { db.Close() }
}

// seedBoard creates a board with To Do and Done lists for org_1.
func seedBoard(t *testing.T, svc *Service) (*Board, *List, *List) {
	t.Helper()
	board, err := svc.CreateBoard("org_1", "Roadmap", "user_1")
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	todo, err := svc.CreateList("org_1", board.ID, "To Do", 0)
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	done, err := svc.CreateList("org_1", board.ID, "Done", 1)
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	return board, todo, done
}

func TestService_CreateCardEmitsEvents(t *testing.T) {
	svc, bus, cleanup := newTestService(t)
	defer cleanup()

	board, todo, _ := seedBoard(t, svc)
	bus.reset()

	due := time.Now().Add(48 * time.Hour).Unix()
	card, err := svc.CreateCard("org_1", board.ID, CardInput{
		ListID:   todo.ID,
		Title:    "Fix login bug",
		Priority: PriorityHigh,
		DueDate:  &due,
	}, "user_1")
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	got := bus.triggers()
	if len(got) != 2 || got[0] != events.TriggerCardCreated || got[1] != events.TriggerCardTitleContains {
		t.Fatalf("Expected CARD_CREATED then CARD_TITLE_CONTAINS, got %v", got)
	}

	created := bus.emits[0].evt
	if created.OrgID != "org_1" || created.BoardID != board.ID || created.CardID != card.ID {
		t.Error("Event identifiers do not match the created card")
	}
	if created.Context["card_title"] != "Fix login bug" {
		t.Errorf("Expected card_title in context, got %v", created.Context["card_title"])
	}
	if created.Context["priority"] != PriorityHigh {
		t.Errorf("Expected priority in context, got %v", created.Context["priority"])
	}
	if created.Context["due_date"] != due {
		t.Errorf("Expected due_date in context, got %v", created.Context["due_date"])
	}
}

func TestService_CreateCardRejectsForeignList(t *testing.T) {
	svc, bus, cleanup := newTestService(t)
	defer cleanup()

	board, _, _ := seedBoard(t, svc)
	other, err := svc.CreateBoard("org_1", "Other", "user_1")
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	otherList, err := svc.CreateList("org_1", other.ID, "Inbox", 0)
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	bus.reset()

	if _, err := svc.CreateCard("org_1", board.ID, CardInput{ListID: otherList.ID, Title: "x"}, "user_1"); err == nil {
		t.Error("Expected error for a list on another board")
	}
	if len(bus.triggers()) != 0 {
		t.Error("A rejected mutation must not emit events")
	}
}

func TestService_MoveCard(t *testing.T) {
	svc, bus, cleanup := newTestService(t)
	defer cleanup()

	board, todo, done := seedBoard(t, svc)
	card, err := svc.CreateCard("org_1", board.ID, CardInput{ListID: todo.ID, Title: "Ship it"}, "user_1")
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	bus.reset()

	if err := svc.MoveCard("org_1", card.ID, done.ID, "user_1"); err != nil {
		t.Fatalf("MoveCard failed: %v", err)
	}

	got := bus.triggers()
	if len(got) != 1 || got[0] != events.TriggerCardMoved {
		t.Fatalf("Expected one CARD_MOVED event, got %v", got)
	}
	ctx := bus.emits[0].evt.Context
	if ctx["from_list_id"] != todo.ID || ctx["to_list_id"] != done.ID {
		t.Errorf("Expected list transition in context, got %v", ctx)
	}

	// Moving to the current list is a no-op.
	bus.reset()
	if err := svc.MoveCard("org_1", card.ID, done.ID, "user_1"); err != nil {
		t.Fatalf("No-op move failed: %v", err)
	}
	if len(bus.triggers()) != 0 {
		t.Error("A no-op move must not emit events")
	}

	moved, err := svc.GetCard("org_1", card.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if moved.ListID != done.ID {
		t.Errorf("Expected card in %s, got %s", done.ID, moved.ListID)
	}
}

func TestService_ApplyLabelIsIdempotent(t *testing.T) {
	svc, bus, cleanup := newTestService(t)
	defer cleanup()

	board, todo, _ := seedBoard(t, svc)
	card, err := svc.CreateCard("org_1", board.ID, CardInput{ListID: todo.ID, Title: "x"}, "user_1")
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	bus.reset()

	if err := svc.ApplyLabel("org_1", card.ID, "bug", "user_1"); err != nil {
		t.Fatalf("ApplyLabel failed: %v", err)
	}
	if err := svc.ApplyLabel("org_1", card.ID, "bug", "user_1"); err != nil {
		t.Fatalf("Repeat ApplyLabel failed: %v", err)
	}

	got := bus.triggers()
	if len(got) != 1 || got[0] != events.TriggerLabelAdded {
		t.Fatalf("Expected exactly one LABEL_ADDED, got %v", got)
	}

	fetched, err := svc.GetCard("org_1", card.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if len(fetched.Labels) != 1 || fetched.Labels[0] != "bug" {
		t.Errorf("Expected a single bug label, got %v", fetched.Labels)
	}
}

func TestService_UpdateCardEmitsOnRealChanges(t *testing.T) {
	svc, bus, cleanup := newTestService(t)
	defer cleanup()

	board, todo, _ := seedBoard(t, svc)
	card, err := svc.CreateCard("org_1", board.ID, CardInput{ListID: todo.ID, Title: "quiet title", Priority: PriorityMedium}, "user_1")
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	bus.reset()

	// Unchanged fields emit nothing.
	if _, err := svc.UpdateCard("org_1", card.ID, CardPatch{Title: "quiet title", Priority: PriorityMedium}, "user_1"); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}
	if len(bus.triggers()) != 0 {
		t.Fatalf("Expected no events for a no-op patch, got %v", bus.triggers())
	}

	if _, err := svc.UpdateCard("org_1", card.ID, CardPatch{Title: "urgent: prod down", Priority: PriorityUrgent}, "user_1"); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}
	got := bus.triggers()
	if len(got) != 2 || got[0] != events.TriggerPriorityChanged || got[1] != events.TriggerCardTitleContains {
		t.Fatalf("Expected PRIORITY_CHANGED then CARD_TITLE_CONTAINS, got %v", got)
	}
}

func TestService_ChecklistCompletionFiresOnLastItem(t *testing.T) {
	svc, bus, cleanup := newTestService(t)
	defer cleanup()

	board, todo, _ := seedBoard(t, svc)
	card, err := svc.CreateCard("org_1", board.ID, CardInput{ListID: todo.ID, Title: "release"}, "user_1")
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	first, err := svc.AddChecklistItem("org_1", card.ID, "write changelog", 0)
	if err != nil {
		t.Fatalf("AddChecklistItem failed: %v", err)
	}
	second, err := svc.AddChecklistItem("org_1", card.ID, "tag release", 1)
	if err != nil {
		t.Fatalf("AddChecklistItem failed: %v", err)
	}
	bus.reset()

	if _, err := svc.ToggleChecklistItem("org_1", first.ID, true, "user_1"); err != nil {
		t.Fatalf("ToggleChecklistItem failed: %v", err)
	}
	if len(bus.triggers()) != 0 {
		t.Fatal("Completing a non-final item must not emit")
	}

	if _, err := svc.ToggleChecklistItem("org_1", second.ID, true, "user_1"); err != nil {
		t.Fatalf("ToggleChecklistItem failed: %v", err)
	}
	got := bus.triggers()
	if len(got) != 1 || got[0] != events.TriggerChecklistCompleted {
		t.Fatalf("Expected CHECKLIST_COMPLETED on the last item, got %v", got)
	}

	// Toggling an already-done item is a no-op.
	bus.reset()
	if _, err := svc.ToggleChecklistItem("org_1", second.ID, true, "user_1"); err != nil {
		t.Fatalf("ToggleChecklistItem failed: %v", err)
	}
	if len(bus.triggers()) != 0 {
		t.Error("Re-completing a done item must not emit")
	}
}

func TestService_SprintLifecycle(t *testing.T) {
	svc, bus, cleanup := newTestService(t)
	defer cleanup()

	board, todo, done := seedBoard(t, svc)
	sprint, err := svc.CreateSprint("org_1", board.ID, "Sprint 7", "user_1")
	if err != nil {
		t.Fatalf("CreateSprint failed: %v", err)
	}

	// Completing a sprint that never started is invalid.
	if _, err := svc.CompleteSprint("org_1", sprint.ID, "user_1"); err == nil {
		t.Error("Expected error completing a planned sprint")
	}

	bus.reset()
	if _, err := svc.StartSprint("org_1", sprint.ID, "user_1"); err != nil {
		t.Fatalf("StartSprint failed: %v", err)
	}
	got := bus.triggers()
	if len(got) != 1 || got[0] != events.TriggerSprintStarted {
		t.Fatalf("Expected SPRINT_STARTED, got %v", got)
	}

	// Two cards in the sprint: one done, one not.
	doneCard, err := svc.CreateCard("org_1", board.ID, CardInput{ListID: done.ID, Title: "a", SprintID: sprint.ID}, "user_1")
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	_ = doneCard
	if _, err := svc.CreateCard("org_1", board.ID, CardInput{ListID: todo.ID, Title: "b", SprintID: sprint.ID}, "user_1"); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	bus.reset()
	if _, err := svc.CompleteSprint("org_1", sprint.ID, "user_1"); err != nil {
		t.Fatalf("CompleteSprint failed: %v", err)
	}
	got = bus.triggers()
	if len(got) != 1 || got[0] != events.TriggerSprintCompleted {
		t.Fatalf("Expected SPRINT_COMPLETED, got %v", got)
	}
	extra := bus.emits[0].extra
	if extra["cards_completed"] != 1 || extra["cards_remaining"] != 1 {
		t.Errorf("Expected card counts 1/1, got %v", extra)
	}

	if _, err := svc.StartSprint("org_1", sprint.ID, "user_1"); err == nil {
		t.Error("Expected error restarting a completed sprint")
	}
}

func TestService_DueDateSweeps(t *testing.T) {
	svc, bus, cleanup := newTestService(t)
	defer cleanup()

	board, todo, _ := seedBoard(t, svc)
	now := time.Now()

	soon := now.Add(12 * time.Hour).Unix()
	past := now.Add(-1 * time.Hour).Unix()
	far := now.Add(14 * 24 * time.Hour).Unix()

	for title, due := range map[string]*int64{"due soon": &soon, "overdue": &past, "far out": &far} {
		if _, err := svc.CreateCard("org_1", board.ID, CardInput{ListID: todo.ID, Title: title, DueDate: due}, "user_1"); err != nil {
			t.Fatalf("CreateCard failed: %v", err)
		}
	}
	bus.reset()

	n, err := svc.SweepDueSoon(now, 24*time.Hour)
	if err != nil {
		t.Fatalf("SweepDueSoon failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 due-soon card, got %d", n)
	}
	got := bus.triggers()
	if len(got) != 1 || got[0] != events.TriggerCardDueSoon {
		t.Fatalf("Expected CARD_DUE_SOON, got %v", got)
	}
	if bus.emits[0].evt.Context["card_title"] != "due soon" {
		t.Errorf("Swept the wrong card: %v", bus.emits[0].evt.Context)
	}

	n, err = svc.SweepOverdue(now)
	if err != nil {
		t.Fatalf("SweepOverdue failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 overdue card, got %d", n)
	}

	// A second sweep finds nothing new.
	bus.reset()
	if n, _ := svc.SweepDueSoon(now, 24*time.Hour); n != 0 {
		t.Errorf("Expected repeat due-soon sweep to find 0 cards, got %d", n)
	}
	if n, _ := svc.SweepOverdue(now); n != 0 {
		t.Errorf("Expected repeat overdue sweep to find 0 cards, got %d", n)
	}
	if len(bus.triggers()) != 0 {
		t.Error("Repeat sweeps must not re-emit")
	}
}

func TestService_TenantIsolation(t *testing.T) {
	svc, bus, cleanup := newTestService(t)
	defer cleanup()

	board, todo, _ := seedBoard(t, svc)
	card, err := svc.CreateCard("org_1", board.ID, CardInput{ListID: todo.ID, Title: "private"}, "user_1")
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	bus.reset()

	if _, err := svc.GetCard("org_2", card.ID); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows across orgs, got %v", err)
	}
	if err := svc.MoveCard("org_2", card.ID, todo.ID, "intruder"); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows moving across orgs, got %v", err)
	}
	if err := svc.DeleteCard("org_2", card.ID, "intruder"); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows deleting across orgs, got %v", err)
	}
	if len(bus.triggers()) != 0 {
		t.Error("Cross-tenant attempts must not emit events")
	}
}
