package events

// TriggerType identifies the kind of state change an event describes.
// The automation engine matches rules against these; only a subset maps
// to an external webhook event name (see ExternalEvent).
type TriggerType string

const (
	TriggerCardCreated        TriggerType = "CARD_CREATED"
	TriggerCardMoved          TriggerType = "CARD_MOVED"
	TriggerCardDeleted        TriggerType = "CARD_DELETED"
	TriggerPriorityChanged    TriggerType = "PRIORITY_CHANGED"
	TriggerLabelAdded         TriggerType = "LABEL_ADDED"
	TriggerMemberAssigned     TriggerType = "MEMBER_ASSIGNED"
	TriggerChecklistCompleted TriggerType = "CHECKLIST_COMPLETED"
	TriggerCardOverdue        TriggerType = "CARD_OVERDUE"
	TriggerCardDueSoon        TriggerType = "CARD_DUE_SOON"
	TriggerCardTitleContains  TriggerType = "CARD_TITLE_CONTAINS"
	TriggerCommentCreated     TriggerType = "COMMENT_CREATED"
	TriggerBoardCreated       TriggerType = "BOARD_CREATED"
	TriggerSprintStarted      TriggerType = "SPRINT_STARTED"
	TriggerSprintCompleted    TriggerType = "SPRINT_COMPLETED"
	TriggerMemberInvited      TriggerType = "MEMBER_INVITED"
)

// External event names are the stable vocabulary subscribers see.
// Renaming one is a breaking wire change.
const (
	EventCardCreated     = "card.created"
	EventCardUpdated     = "card.updated"
	EventCardDeleted     = "card.deleted"
	EventCardMoved       = "card.moved"
	EventCommentCreated  = "comment.created"
	EventBoardCreated    = "board.created"
	EventSprintStarted   = "sprint.started"
	EventSprintCompleted = "sprint.completed"
	EventMemberInvited   = "member.invited"
)

// KnownExternalEvent reports whether name belongs to the external event
// vocabulary a subscription may select.
func KnownExternalEvent(name string) bool {
	switch name {
	case EventCardCreated, EventCardUpdated, EventCardDeleted, EventCardMoved,
		EventCommentCreated, EventBoardCreated, EventSprintStarted,
		EventSprintCompleted, EventMemberInvited:
		return true
	}
	return false
}

// ExternalEvent maps a trigger to its external webhook event name.
// Every trigger has a deliberate entry here: the second return is false
// for triggers that are automation-only and must never leave the system.
func (t TriggerType) ExternalEvent() (string, bool) {
	switch t {
	case TriggerCardCreated:
		return EventCardCreated, true
	case TriggerCardMoved:
		return EventCardMoved, true
	case TriggerCardDeleted:
		return EventCardDeleted, true
	case TriggerPriorityChanged, TriggerLabelAdded, TriggerMemberAssigned, TriggerChecklistCompleted:
		return EventCardUpdated, true
	case TriggerCommentCreated:
		return EventCommentCreated, true
	case TriggerBoardCreated:
		return EventBoardCreated, true
	case TriggerSprintStarted:
		return EventSprintStarted, true
	case TriggerSprintCompleted:
		return EventSprintCompleted, true
	case TriggerMemberInvited:
		return EventMemberInvited, true
	case TriggerCardOverdue, TriggerCardDueSoon, TriggerCardTitleContains:
		// Automation-only: evaluated by the rule engine, never delivered externally.
		return "", false
	}
	return "", false
}

// Valid reports whether t is a known trigger.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerCardCreated, TriggerCardMoved, TriggerCardDeleted,
		TriggerPriorityChanged, TriggerLabelAdded, TriggerMemberAssigned,
		TriggerChecklistCompleted, TriggerCardOverdue, TriggerCardDueSoon,
		TriggerCardTitleContains, TriggerCommentCreated, TriggerBoardCreated,
		TriggerSprintStarted, TriggerSprintCompleted, TriggerMemberInvited:
		return true
	}
	return false
}

// Event is an ephemeral notification of one committed state change.
// It is built by a mutation handler, consumed once by the bus, and
// never persisted.
type Event struct {
	Trigger TriggerType
	OrgID   string
	BoardID string
	CardID  string
	Context map[string]interface{}
}
