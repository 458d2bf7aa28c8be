package events

import "testing"

func TestExternalEvent(t *testing.T) {
	tests := []struct {
		trigger TriggerType
		want    string
		mapped  bool
	}{
		{TriggerCardCreated, "card.created", true},
		{TriggerCardMoved, "card.moved", true},
		{TriggerCardDeleted, "card.deleted", true},
		{TriggerPriorityChanged, "card.updated", true},
		{TriggerLabelAdded, "card.updated", true},
		{TriggerMemberAssigned, "card.updated", true},
		{TriggerChecklistCompleted, "card.updated", true},
		{TriggerCommentCreated, "comment.created", true},
		{TriggerBoardCreated, "board.created", true},
		{TriggerSprintStarted, "sprint.started", true},
		{TriggerSprintCompleted, "sprint.completed", true},
		{TriggerMemberInvited, "member.invited", true},
		{TriggerCardOverdue, "", false},
		{TriggerCardDueSoon, "", false},
		{TriggerCardTitleContains, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.trigger), func(t *testing.T) {
			got, mapped := tt.trigger.ExternalEvent()
			if got != tt.want || mapped != tt.mapped {
				t.Errorf("ExternalEvent() = (%q, %v), want (%q, %v)", got, mapped, tt.want, tt.mapped)
			}
		})
	}
}

func TestTriggerValid(t *testing.T) {
	for _, tt := range []TriggerType{
		TriggerCardCreated, TriggerCardMoved, TriggerCardDeleted,
		TriggerPriorityChanged, TriggerLabelAdded, TriggerMemberAssigned,
		TriggerChecklistCompleted, TriggerCardOverdue, TriggerCardDueSoon,
		TriggerCardTitleContains, TriggerCommentCreated, TriggerBoardCreated,
		TriggerSprintStarted, TriggerSprintCompleted, TriggerMemberInvited,
	} {
		if !tt.Valid() {
			t.Errorf("Expected %s to be valid", tt)
		}
	}

	for _, tt := range []TriggerType{"", "CARD_EXPLODED", "card_created"} {
		if tt.Valid() {
			t.Errorf("Expected %q to be invalid", tt)
		}
	}
}
