package automations

import (
	"fmt"
	"strings"
)

// Evaluate reports whether every condition passes against the event
// context. An empty list always passes. A condition whose field is
// absent from the context fails closed. The returned error is reserved
// for unevaluable configuration (unknown operator), not data mismatches.
func (c ConditionList) Evaluate(ctx map[string]interface{}) (bool, error) {
	for _, cond := range c {
		ok, err := cond.eval(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (c Condition) eval(ctx map[string]interface{}) (bool, error) {
	got, present := ctx[c.Field]
	if !present {
		return false, nil
	}

	switch c.Op {
	case OpEquals:
		return valuesEqual(got, c.Value, c.CaseSensitive), nil
	case OpNotEquals:
		return !valuesEqual(got, c.Value, c.CaseSensitive), nil
	case OpContains:
		hay := toString(got)
		needle := toString(c.Value)
		if !c.CaseSensitive {
			hay = strings.ToLower(hay)
			needle = strings.ToLower(needle)
		}
		return strings.Contains(hay, needle), nil
	case OpGt, OpGte, OpLt, OpLte:
		a, aok := toFloat(got)
		b, bok := toFloat(c.Value)
		if !aok || !bok {
			// Non-numeric operand: the threshold cannot hold.
			return false, nil
		}
		switch c.Op {
		case OpGt:
			return a > b, nil
		case OpGte:
			return a >= b, nil
		case OpLt:
			return a < b, nil
		default:
			return a <= b, nil
		}
	}
	return false, fmt.Errorf("unknown condition operator %q", c.Op)
}

// valuesEqual compares numerically when both sides are numbers (rule
// values arrive as float64 after their JSON round-trip, context values
// are often int), otherwise as strings.
func valuesEqual(a, b interface{}, caseSensitive bool) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}

	as := toString(a)
	bs := toString(b)
	if !caseSensitive {
		return strings.EqualFold(as, bs)
	}
	return as == bs
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
