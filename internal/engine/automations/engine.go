// Package automations evaluates tenant-authored rules against board
// events and executes their actions through the mutation layer.
package automations

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"boardflow/internal/engine/events"
	"boardflow/internal/pkg/metrics"
)

// Engine runs all matching rules for an event. It is best-effort end to
// end: a broken rule, a failing action, or a panicking mutation call is
// logged and skipped, and the remaining rules and actions still run.
type Engine struct {
	repo    *Repository
	actions CardActions
}

func NewEngine(repo *Repository, actions CardActions) *Engine {
	return &Engine{repo: repo, actions: actions}
}

// Run implements events.AutomationRunner. It returns an error only when
// the rule set itself cannot be loaded; per-rule and per-action failures
// never propagate.
func (e *Engine) Run(evt events.Event) error {
	rules, err := e.repo.ListEnabledByTrigger(evt.OrgID, evt.Trigger, evt.BoardID)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	for _, rule := range rules {
		e.runRule(rule, evt)
	}
	return nil
}

func (e *Engine) runRule(rule *Rule, evt events.Event) {
	matched, err := rule.Conditions.Evaluate(evt.Context)
	if err != nil {
		log.Warn().
			Str("rule_id", rule.ID).
			Str("org_id", rule.OrgID).
			Str("error", err.Error()).
			Msg("skipping rule that cannot be evaluated")
		return
	}
	if !matched {
		return
	}

	metrics.RulesMatched.Inc()
	log.Debug().
		Str("rule_id", rule.ID).
		Str("trigger", string(evt.Trigger)).
		Str("card_id", evt.CardID).
		Msg("automation rule matched")

	// Actions run in stored order. Each failure is contained so the
	// remaining actions of this rule, and all later rules, still run.
	for i, action := range rule.Actions {
		if err := e.execute(rule, action, evt); err != nil {
			metrics.ActionsFailed.Inc()
			log.Error().
				Str("rule_id", rule.ID).
				Str("action", action.Type).
				Int("action_index", i).
				Str("card_id", evt.CardID).
				Str("error", err.Error()).
				Msg("automation action failed")
			continue
		}
		metrics.ActionsExecuted.Inc()
	}
}
