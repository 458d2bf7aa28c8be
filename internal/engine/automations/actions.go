package automations

import (
	"boardflow/internal/engine/events"
)

// CardActions is the slice of the mutation layer that rule actions may
// invoke. The boards service implements it.
type CardActions interface {
	MoveCard(orgID, cardID, toListID, actorID string) error
	ApplyLabel(orgID, cardID, label, actorID string) error
	SetPriority(orgID, cardID string, priority int, actorID string) error
	CreateNotification(orgID, userID, message, cardID string) error
}

// actorFor is the identity recorded for changes a rule makes; events
// those changes emit carry it.
func actorFor(rule *Rule) string {
	return "rule:" + rule.ID
}

func (e *Engine) execute(rule *Rule, action Action, evt events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ConfigurationError{RuleID: rule.ID, Reason: "action panicked"}
		}
	}()

	switch action.Type {
	case ActionMoveCard:
		toList, _ := action.Params["to_list_id"].(string)
		if toList == "" {
			return &ConfigurationError{RuleID: rule.ID, Reason: "move_card without to_list_id"}
		}
		if evt.CardID == "" {
			return &ConfigurationError{RuleID: rule.ID, Reason: "move_card on an event without a card"}
		}
		return e.actions.MoveCard(evt.OrgID, evt.CardID, toList, actorFor(rule))

	case ActionApplyLabel:
		label, _ := action.Params["label"].(string)
		if label == "" {
			return &ConfigurationError{RuleID: rule.ID, Reason: "apply_label without label"}
		}
		if evt.CardID == "" {
			return &ConfigurationError{RuleID: rule.ID, Reason: "apply_label on an event without a card"}
		}
		return e.actions.ApplyLabel(evt.OrgID, evt.CardID, label, actorFor(rule))

	case ActionSetPriority:
		priority, ok := toFloat(action.Params["priority"])
		if !ok {
			return &ConfigurationError{RuleID: rule.ID, Reason: "set_priority without numeric priority"}
		}
		if evt.CardID == "" {
			return &ConfigurationError{RuleID: rule.ID, Reason: "set_priority on an event without a card"}
		}
		return e.actions.SetPriority(evt.OrgID, evt.CardID, int(priority), actorFor(rule))

	case ActionNotify:
		message, _ := action.Params["message"].(string)
		if message == "" {
			return &ConfigurationError{RuleID: rule.ID, Reason: "notify without message"}
		}
		// Notifications target an explicit user when configured,
		// otherwise the rule's author.
		userID, _ := action.Params["user_id"].(string)
		if userID == "" {
			userID = rule.CreatedBy
		}
		return e.actions.CreateNotification(evt.OrgID, userID, message, evt.CardID)
	}

	return &ConfigurationError{RuleID: rule.ID, Reason: "unknown action type " + action.Type}
}
