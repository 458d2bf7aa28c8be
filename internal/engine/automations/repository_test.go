package automations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"boardflow/internal/engine/events"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	query := `
	CREATE TABLE automation_rules (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		board_id TEXT,
		name TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		conditions TEXT NOT NULL DEFAULT '[]',
		actions TEXT NOT NULL DEFAULT '[]',
		enabled INTEGER NOT NULL DEFAULT 1,
		position INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return db
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	rule := &Rule{
		OrgID:   "org_1",
		Name:    "Escalate urgent cards",
		Trigger: events.TriggerCardCreated,
		Conditions: ConditionList{
			{Field: "card_title", Op: OpContains, Value: "urgent"},
		},
		Actions: ActionList{
			{Type: ActionSetPriority, Params: map[string]interface{}{"priority": float64(1)}},
			{Type: ActionApplyLabel, Params: map[string]interface{}{"label": "escalated"}},
		},
		Enabled:   true,
		Position:  2,
		CreatedBy: "user_1",
	}
	if err := repo.Create(rule); err != nil {
		t.Fatalf("Failed to create rule: %v", err)
	}
	if rule.ID == "" {
		t.Fatal("Expected generated rule ID")
	}

	fetched, err := repo.GetByID("org_1", rule.ID)
	if err != nil {
		t.Fatalf("Failed to get rule: %v", err)
	}
	if fetched.Trigger != events.TriggerCardCreated {
		t.Errorf("Expected CARD_CREATED trigger, got %s", fetched.Trigger)
	}
	if len(fetched.Conditions) != 1 || fetched.Conditions[0].Op != OpContains {
		t.Errorf("Expected conditions to round-trip, got %v", fetched.Conditions)
	}
	if len(fetched.Actions) != 2 || fetched.Actions[1].Type != ActionApplyLabel {
		t.Errorf("Expected actions to round-trip in order, got %v", fetched.Actions)
	}
	if fetched.BoardID != nil {
		t.Errorf("Expected org-wide rule, got board %v", *fetched.BoardID)
	}

	if _, err := repo.GetByID("org_2", rule.ID); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows for foreign org, got %v", err)
	}
}

func TestRepository_ListEnabledByTrigger(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	boardA := "board_a"

	rules := []*Rule{
		{OrgID: "org_1", Name: "second", Trigger: events.TriggerCardMoved, Actions: ActionList{{Type: ActionNotify, Params: map[string]interface{}{"message": "m"}}}, Enabled: true, Position: 2, CreatedBy: "u"},
		{OrgID: "org_1", Name: "first", Trigger: events.TriggerCardMoved, Actions: ActionList{{Type: ActionNotify, Params: map[string]interface{}{"message": "m"}}}, Enabled: true, Position: 1, CreatedBy: "u"},
		{OrgID: "org_1", Name: "board-scoped", Trigger: events.TriggerCardMoved, BoardID: &boardA, Actions: ActionList{{Type: ActionNotify, Params: map[string]interface{}{"message": "m"}}}, Enabled: true, Position: 3, CreatedBy: "u"},
		{OrgID: "org_1", Name: "disabled", Trigger: events.TriggerCardMoved, Actions: ActionList{{Type: ActionNotify, Params: map[string]interface{}{"message": "m"}}}, Enabled: false, Position: 0, CreatedBy: "u"},
		{OrgID: "org_1", Name: "other trigger", Trigger: events.TriggerCardDeleted, Actions: ActionList{{Type: ActionNotify, Params: map[string]interface{}{"message": "m"}}}, Enabled: true, Position: 0, CreatedBy: "u"},
		{OrgID: "org_2", Name: "other org", Trigger: events.TriggerCardMoved, Actions: ActionList{{Type: ActionNotify, Params: map[string]interface{}{"message": "m"}}}, Enabled: true, Position: 0, CreatedBy: "u"},
	}
	for _, r := range rules {
		if err := repo.Create(r); err != nil {
			t.Fatalf("Failed to create rule %s: %v", r.Name, err)
		}
	}

	// On board_a: both org-wide rules plus the board-scoped one, by position.
	got, err := repo.ListEnabledByTrigger("org_1", events.TriggerCardMoved, "board_a")
	if err != nil {
		t.Fatalf("ListEnabledByTrigger failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 rules, got %d", len(got))
	}
	if got[0].Name != "first" || got[1].Name != "second" || got[2].Name != "board-scoped" {
		t.Errorf("Unexpected order: %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
	}

	// On another board the board-scoped rule is excluded.
	got, err = repo.ListEnabledByTrigger("org_1", events.TriggerCardMoved, "board_b")
	if err != nil {
		t.Fatalf("ListEnabledByTrigger failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 rules for board_b, got %d", len(got))
	}
}

func TestRepository_ListSkipsCorruptRow(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	good := &Rule{
		OrgID:     "org_1",
		Name:      "good",
		Trigger:   events.TriggerCardMoved,
		Actions:   ActionList{{Type: ActionNotify, Params: map[string]interface{}{"message": "m"}}},
		Enabled:   true,
		CreatedBy: "u",
	}
	if err := repo.Create(good); err != nil {
		t.Fatalf("Failed to create rule: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO automation_rules (id, org_id, board_id, name, trigger_type, conditions, actions, enabled, position, created_by, created_at, updated_at)
		VALUES ('rule_bad', 'org_1', NULL, 'bad', 'CARD_MOVED', 'not-json', 'not-json', 1, 0, 'u', 0, 0)
	`)
	if err != nil {
		t.Fatalf("Failed to insert corrupt row: %v", err)
	}

	got, err := repo.ListEnabledByTrigger("org_1", events.TriggerCardMoved, "board_a")
	if err != nil {
		t.Fatalf("Expected corrupt row to be skipped, got error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "good" {
		t.Errorf("Expected only the readable rule, got %d rules", len(got))
	}
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	rule := &Rule{
		OrgID:     "org_1",
		Name:      "before",
		Trigger:   events.TriggerCardMoved,
		Actions:   ActionList{{Type: ActionNotify, Params: map[string]interface{}{"message": "m"}}},
		Enabled:   true,
		CreatedBy: "u",
	}
	if err := repo.Create(rule); err != nil {
		t.Fatalf("Failed to create rule: %v", err)
	}

	rule.Name = "after"
	rule.Enabled = false
	if err := repo.Update(rule); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := repo.GetByID("org_1", rule.ID)
	if err != nil {
		t.Fatalf("Failed to get rule: %v", err)
	}
	if fetched.Name != "after" || fetched.Enabled {
		t.Errorf("Expected updated fields, got name=%s enabled=%v", fetched.Name, fetched.Enabled)
	}

	if err := repo.Delete("org_2", rule.ID); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows deleting from foreign org, got %v", err)
	}
	if err := repo.Delete("org_1", rule.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID("org_1", rule.ID); err != sql.ErrNoRows {
		t.Errorf("Expected rule to be gone, got %v", err)
	}
}
