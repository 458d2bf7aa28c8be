package automations

import "testing"

func TestConditionEvaluate(t *testing.T) {
	ctx := map[string]interface{}{
		"card_title": "URGENT: fix login",
		"priority":   3,
		"to_list_id": "list_done",
		"label":      "Bug",
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals matches", Condition{Field: "to_list_id", Op: OpEquals, Value: "list_done"}, true},
		{"equals case-insensitive by default", Condition{Field: "label", Op: OpEquals, Value: "bug"}, true},
		{"equals case-sensitive", Condition{Field: "label", Op: OpEquals, Value: "bug", CaseSensitive: true}, false},
		{"equals numeric coercion", Condition{Field: "priority", Op: OpEquals, Value: float64(3)}, true},
		{"not_equals", Condition{Field: "to_list_id", Op: OpNotEquals, Value: "list_todo"}, true},
		{"gt true", Condition{Field: "priority", Op: OpGt, Value: float64(2)}, true},
		{"gt false at boundary", Condition{Field: "priority", Op: OpGt, Value: float64(3)}, false},
		{"gte at boundary", Condition{Field: "priority", Op: OpGte, Value: float64(3)}, true},
		{"lt", Condition{Field: "priority", Op: OpLt, Value: float64(4)}, true},
		{"lte at boundary", Condition{Field: "priority", Op: OpLte, Value: float64(3)}, true},
		{"threshold on non-numeric field", Condition{Field: "card_title", Op: OpGt, Value: float64(1)}, false},
		{"contains case-insensitive", Condition{Field: "card_title", Op: OpContains, Value: "urgent"}, true},
		{"contains case-sensitive misses", Condition{Field: "card_title", Op: OpContains, Value: "urgent", CaseSensitive: true}, false},
		{"contains case-sensitive matches", Condition{Field: "card_title", Op: OpContains, Value: "URGENT", CaseSensitive: true}, true},
		{"missing field fails closed", Condition{Field: "assignee_id", Op: OpEquals, Value: "user_1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConditionList{tt.cond}.Evaluate(ctx)
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionListAllMustPass(t *testing.T) {
	ctx := map[string]interface{}{"priority": 4, "card_title": "urgent fix"}

	both := ConditionList{
		{Field: "priority", Op: OpGte, Value: float64(3)},
		{Field: "card_title", Op: OpContains, Value: "urgent"},
	}
	if ok, _ := both.Evaluate(ctx); !ok {
		t.Error("Expected both conditions to pass")
	}

	oneFails := ConditionList{
		{Field: "priority", Op: OpGte, Value: float64(3)},
		{Field: "card_title", Op: OpContains, Value: "trivial"},
	}
	if ok, _ := oneFails.Evaluate(ctx); ok {
		t.Error("Expected evaluation to fail when any condition fails")
	}

	if ok, _ := ConditionList(nil).Evaluate(ctx); !ok {
		t.Error("Expected an empty condition list to pass")
	}
}

func TestConditionEvaluate_UnknownOperator(t *testing.T) {
	_, err := ConditionList{{Field: "priority", Op: "matches_regex", Value: ".*"}}.Evaluate(map[string]interface{}{"priority": 1})
	if err == nil {
		t.Error("Expected an error for an unknown operator")
	}
}

func TestConditionValidate(t *testing.T) {
	if err := (Condition{Field: "priority", Op: OpGt, Value: 1}).Validate(); err != nil {
		t.Errorf("Expected valid condition, got %v", err)
	}
	if err := (Condition{Op: OpGt, Value: 1}).Validate(); err == nil {
		t.Error("Expected error for missing field")
	}
	if err := (Condition{Field: "x", Op: "regex"}).Validate(); err == nil {
		t.Error("Expected error for unknown operator")
	}
}
