package events

import "testing"

func TestBuildPayload_FiltersToAllowlist(t *testing.T) {
	evt := Event{
		Trigger: TriggerCardMoved,
		OrgID:   "org_1",
		BoardID: "board_1",
		CardID:  "card_1",
		Context: map[string]interface{}{
			"card_title":     "Ship the release",
			"from_list_id":   "list_a",
			"to_list_id":     "list_b",
			"internal_note":  "do not leak",
			"reviewer_email": "someone@example.com",
		},
	}

	payload := BuildPayload(evt, EventCardMoved, nil)

	if payload["type"] != "card.moved" {
		t.Errorf("Expected type card.moved, got %v", payload["type"])
	}
	if payload["card_id"] != "card_1" || payload["board_id"] != "board_1" {
		t.Error("Expected card_id and board_id to always be present")
	}
	if payload["card_title"] != "Ship the release" {
		t.Error("Expected allowlisted card_title to pass through")
	}
	if payload["from_list_id"] != "list_a" || payload["to_list_id"] != "list_b" {
		t.Error("Expected list transition fields to pass through")
	}

	if _, ok := payload["internal_note"]; ok {
		t.Error("internal_note must not appear in an outbound payload")
	}
	if _, ok := payload["reviewer_email"]; ok {
		t.Error("reviewer_email must not appear in an outbound payload")
	}
}

func TestBuildPayload_ExtraFieldsBypassAllowlist(t *testing.T) {
	evt := Event{
		Trigger: TriggerSprintCompleted,
		OrgID:   "org_1",
		BoardID: "board_1",
	}

	payload := BuildPayload(evt, EventSprintCompleted, map[string]interface{}{
		"cards_completed": 12,
		"cards_remaining": 3,
	})

	if payload["cards_completed"] != 12 || payload["cards_remaining"] != 3 {
		t.Error("Expected explicitly supplied extra fields in the payload")
	}
}

func TestBuildPayload_EmptyContext(t *testing.T) {
	evt := Event{Trigger: TriggerCardDeleted, OrgID: "org_1", BoardID: "board_1", CardID: "card_9"}

	payload := BuildPayload(evt, EventCardDeleted, nil)

	if len(payload) != 3 {
		t.Errorf("Expected exactly type, card_id and board_id, got %v", payload)
	}
	if payload["card_id"] != "card_9" {
		t.Errorf("Expected card_id card_9, got %v", payload["card_id"])
	}
}
