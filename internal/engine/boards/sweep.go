package boards

import (
	"time"

	"github.com/rs/zerolog/log"

	"boardflow/internal/engine/events"
)

// sweepActor identifies due-date events in rule attribution and payloads.
const sweepActor = "system"

// SweepDueSoon emits CARD_DUE_SOON for every card entering the horizon
// window and marks it so the event fires once per due date. Returns the
// number of cards swept.
func (s *Service) SweepDueSoon(now time.Time, horizon time.Duration) (int, error) {
	cards, err := s.repo.ListDueSoon(now.Unix(), horizon)
	if err != nil {
		return 0, err
	}

	for _, card := range cards {
		s.emitCard(events.TriggerCardDueSoon, card, dueContext(card))
		if err := s.repo.MarkDueSoonNotified(card.OrgID, card.ID); err != nil {
			// Unmarked cards are re-swept next tick; the event repeats
			// rather than disappears.
			log.Warn().Str("card_id", card.ID).Str("error", err.Error()).Msg("failed to mark card due-soon")
		}
	}
	return len(cards), nil
}

// SweepOverdue emits CARD_OVERDUE for every card past its due date,
// once per due date.
func (s *Service) SweepOverdue(now time.Time) (int, error) {
	cards, err := s.repo.ListOverdue(now.Unix())
	if err != nil {
		return 0, err
	}

	for _, card := range cards {
		s.emitCard(events.TriggerCardOverdue, card, dueContext(card))
		if err := s.repo.MarkOverdueNotified(card.OrgID, card.ID); err != nil {
			log.Warn().Str("card_id", card.ID).Str("error", err.Error()).Msg("failed to mark card overdue")
		}
	}
	return len(cards), nil
}

func dueContext(card *Card) map[string]interface{} {
	ctx := map[string]interface{}{
		"card_title": card.Title,
		"actor_id":   sweepActor,
	}
	if card.DueDate != nil {
		ctx["due_date"] = *card.DueDate
	}
	if card.AssigneeID != "" {
		ctx["assignee_id"] = card.AssigneeID
	}
	return ctx
}
