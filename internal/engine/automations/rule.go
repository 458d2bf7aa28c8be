package automations

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"boardflow/internal/engine/events"
)

// Rule is a tenant-authored automation: when an event with Trigger
// occurs and every condition passes, the actions run in stored order.
// BoardID narrows the rule to one board; nil means org-wide.
type Rule struct {
	ID         string             `json:"id"`
	OrgID      string             `json:"organization_id"`
	BoardID    *string            `json:"board_id,omitempty"`
	Name       string             `json:"name"`
	Trigger    events.TriggerType `json:"trigger"`
	Conditions ConditionList      `json:"conditions"`
	Actions    ActionList         `json:"actions"`
	Enabled    bool               `json:"enabled"`
	Position   int                `json:"position"`
	CreatedBy  string             `json:"created_by"`
	CreatedAt  int64              `json:"created_at"`
	UpdatedAt  int64              `json:"updated_at"`
}

// Condition operators.
const (
	OpEquals    = "equals"
	OpNotEquals = "not_equals"
	OpGt        = "gt"
	OpGte       = "gte"
	OpLt        = "lt"
	OpLte       = "lte"
	OpContains  = "contains"
)

// Action types.
const (
	ActionMoveCard    = "move_card"
	ActionApplyLabel  = "apply_label"
	ActionSetPriority = "set_priority"
	ActionNotify      = "notify"
)

// Condition is one predicate over the event context. String comparisons
// are case-insensitive unless CaseSensitive is set.
type Condition struct {
	Field         string      `json:"field"`
	Op            string      `json:"op"`
	Value         interface{} `json:"value"`
	CaseSensitive bool        `json:"case_sensitive,omitempty"`
}

func (c Condition) Validate() error {
	if c.Field == "" {
		return errors.New("condition field is required")
	}
	switch c.Op {
	case OpEquals, OpNotEquals, OpGt, OpGte, OpLt, OpLte, OpContains:
		return nil
	}
	return fmt.Errorf("unknown condition operator %q", c.Op)
}

type ConditionList []Condition

// Value implements the driver.Valuer interface for ConditionList
func (c ConditionList) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for ConditionList
func (c *ConditionList) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &c)
}

// Action is one effect to run when a rule matches. Params carries
// type-specific settings, e.g. to_list_id for move_card.
type Action struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params,omitempty"`
}

func (a Action) Validate() error {
	switch a.Type {
	case ActionMoveCard:
		if s, _ := a.Params["to_list_id"].(string); s == "" {
			return errors.New("move_card requires params.to_list_id")
		}
	case ActionApplyLabel:
		if s, _ := a.Params["label"].(string); s == "" {
			return errors.New("apply_label requires params.label")
		}
	case ActionSetPriority:
		if _, ok := toFloat(a.Params["priority"]); !ok {
			return errors.New("set_priority requires numeric params.priority")
		}
	case ActionNotify:
		if s, _ := a.Params["message"].(string); s == "" {
			return errors.New("notify requires params.message")
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

type ActionList []Action

// Value implements the driver.Valuer interface for ActionList
func (a ActionList) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for ActionList
func (a *ActionList) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &a)
}

// Validate checks a rule definition as submitted through the API.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return errors.New("rule name is required")
	}
	if !r.Trigger.Valid() {
		return fmt.Errorf("unknown trigger %q", r.Trigger)
	}
	if len(r.Actions) == 0 {
		return errors.New("rule needs at least one action")
	}
	for i, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	for i, a := range r.Actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// ConfigurationError marks a stored rule whose definition cannot be
// evaluated or executed. The engine logs it and skips the rule; it is
// never fatal to the run.
type ConfigurationError struct {
	RuleID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rule %s misconfigured: %s", e.RuleID, e.Reason)
}
