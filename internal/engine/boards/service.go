package boards

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"boardflow/internal/engine/events"
)

// Emitter enqueues one event for fan-out. *events.Bus implements it;
// tests substitute a recorder.
type Emitter interface {
	Emit(evt events.Event, extra map[string]interface{})
}

// Service is the mutation layer. Every write follows the same sequence:
// validate, commit, then emit the event describing what changed. Emit
// happens after the commit and can neither fail nor delay the mutation.
type Service struct {
	repo *Repository
	bus  Emitter
}

func NewService(repo *Repository, bus Emitter) *Service {
	return &Service{repo: repo, bus: bus}
}

func (s *Service) CreateBoard(orgID, name, actorID string) (*Board, error) {
	if name == "" {
		return nil, errors.New("board name is required")
	}

	board := &Board{OrgID: orgID, Name: name, CreatedBy: actorID}
	if err := s.repo.CreateBoard(board); err != nil {
		return nil, err
	}

	s.bus.Emit(events.Event{
		Trigger: events.TriggerBoardCreated,
		OrgID:   orgID,
		BoardID: board.ID,
		Context: map[string]interface{}{
			"board_name": board.Name,
			"actor_id":   actorID,
		},
	}, nil)
	return board, nil
}

func (s *Service) CreateList(orgID, boardID, name string, position int) (*List, error) {
	if name == "" {
		return nil, errors.New("list name is required")
	}
	if _, err := s.repo.GetBoard(orgID, boardID); err != nil {
		return nil, err
	}

	list := &List{OrgID: orgID, BoardID: boardID, Name: name, Position: position}
	if err := s.repo.CreateList(list); err != nil {
		return nil, err
	}
	return list, nil
}

// CardInput is the caller-supplied part of a new card.
type CardInput struct {
	ListID      string `json:"list_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	AssigneeID  string `json:"assignee_id"`
	SprintID    string `json:"sprint_id"`
	DueDate     *int64 `json:"due_date"`
}

func (s *Service) CreateCard(orgID, boardID string, input CardInput, actorID string) (*Card, error) {
	if input.Title == "" {
		return nil, errors.New("card title is required")
	}
	list, err := s.repo.GetList(orgID, input.ListID)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	if list.BoardID != boardID {
		return nil, errors.New("list does not belong to this board")
	}

	card := &Card{
		OrgID:       orgID,
		BoardID:     boardID,
		ListID:      input.ListID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		AssigneeID:  input.AssigneeID,
		SprintID:    input.SprintID,
		DueDate:     input.DueDate,
		CreatedBy:   actorID,
	}
	if err := s.repo.CreateCard(card); err != nil {
		return nil, err
	}

	ctx := map[string]interface{}{
		"card_title": card.Title,
		"list_id":    card.ListID,
		"priority":   card.Priority,
		"actor_id":   actorID,
	}
	if card.AssigneeID != "" {
		ctx["assignee_id"] = card.AssigneeID
	}
	if card.DueDate != nil {
		ctx["due_date"] = *card.DueDate
	}
	s.emitCard(events.TriggerCardCreated, card, ctx)

	// Title rules also get a shot at brand-new cards.
	s.emitCard(events.TriggerCardTitleContains, card, map[string]interface{}{
		"card_title": card.Title,
		"actor_id":   actorID,
	})
	return card, nil
}

// CardPatch carries a partial card edit. Zero values leave the field
// unchanged.
type CardPatch struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    int     `json:"priority"`
	DueDate     *int64  `json:"due_date"`
}

func (s *Service) UpdateCard(orgID, cardID string, patch CardPatch, actorID string) (*Card, error) {
	card, err := s.repo.GetCard(orgID, cardID)
	if err != nil {
		return nil, err
	}

	titleChanged := patch.Title != "" && patch.Title != card.Title
	priorityChanged := patch.Priority != 0 && patch.Priority != card.Priority
	if priorityChanged && (patch.Priority < PriorityUrgent || patch.Priority > PriorityLow) {
		return nil, errors.New("priority must be between 1 and 4")
	}

	if titleChanged {
		card.Title = patch.Title
	}
	if patch.Description != nil {
		card.Description = *patch.Description
	}
	if priorityChanged {
		card.Priority = patch.Priority
	}
	if patch.DueDate != nil {
		card.DueDate = patch.DueDate
		card.DueSoonNotified = false
		card.OverdueNotified = false
	}

	if err := s.repo.UpdateCard(card); err != nil {
		return nil, err
	}

	if priorityChanged {
		s.emitCard(events.TriggerPriorityChanged, card, map[string]interface{}{
			"card_title": card.Title,
			"priority":   card.Priority,
			"actor_id":   actorID,
		})
	}
	if titleChanged {
		s.emitCard(events.TriggerCardTitleContains, card, map[string]interface{}{
			"card_title": card.Title,
			"actor_id":   actorID,
		})
	}
	return card, nil
}

// MoveCard moves a card to another list on the same board. Part of the
// automation action surface, so it reports only an error.
func (s *Service) MoveCard(orgID, cardID, toListID, actorID string) error {
	card, err := s.repo.GetCard(orgID, cardID)
	if err != nil {
		return err
	}
	if card.ListID == toListID {
		return nil
	}
	list, err := s.repo.GetList(orgID, toListID)
	if err != nil {
		return fmt.Errorf("target list: %w", err)
	}
	if list.BoardID != card.BoardID {
		return errors.New("target list is on a different board")
	}

	fromListID := card.ListID
	card.ListID = toListID
	if err := s.repo.UpdateCard(card); err != nil {
		return err
	}

	s.emitCard(events.TriggerCardMoved, card, map[string]interface{}{
		"card_title":   card.Title,
		"from_list_id": fromListID,
		"to_list_id":   toListID,
		"actor_id":     actorID,
	})
	return nil
}

func (s *Service) DeleteCard(orgID, cardID, actorID string) error {
	card, err := s.repo.GetCard(orgID, cardID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCard(orgID, cardID); err != nil {
		return err
	}

	s.emitCard(events.TriggerCardDeleted, card, map[string]interface{}{
		"card_title": card.Title,
		"actor_id":   actorID,
	})
	return nil
}

// ApplyLabel adds a label to a card. Adding a label the card already has
// is a no-op and emits nothing.
func (s *Service) ApplyLabel(orgID, cardID, label, actorID string) error {
	if label == "" {
		return errors.New("label is required")
	}
	card, err := s.repo.GetCard(orgID, cardID)
	if err != nil {
		return err
	}
	if card.HasLabel(label) {
		return nil
	}

	card.Labels = append(card.Labels, label)
	if err := s.repo.UpdateCard(card); err != nil {
		return err
	}

	s.emitCard(events.TriggerLabelAdded, card, map[string]interface{}{
		"card_title": card.Title,
		"label":      label,
		"labels":     []string(card.Labels),
		"actor_id":   actorID,
	})
	return nil
}

// SetPriority sets a card's priority. Setting the current value is a
// no-op and emits nothing.
func (s *Service) SetPriority(orgID, cardID string, priority int, actorID string) error {
	if priority < PriorityUrgent || priority > PriorityLow {
		return errors.New("priority must be between 1 and 4")
	}
	card, err := s.repo.GetCard(orgID, cardID)
	if err != nil {
		return err
	}
	if card.Priority == priority {
		return nil
	}

	card.Priority = priority
	if err := s.repo.UpdateCard(card); err != nil {
		return err
	}

	s.emitCard(events.TriggerPriorityChanged, card, map[string]interface{}{
		"card_title": card.Title,
		"priority":   priority,
		"actor_id":   actorID,
	})
	return nil
}

func (s *Service) AssignMember(orgID, cardID, memberID, actorID string) error {
	if memberID == "" {
		return errors.New("member id is required")
	}
	card, err := s.repo.GetCard(orgID, cardID)
	if err != nil {
		return err
	}
	if card.AssigneeID == memberID {
		return nil
	}

	card.AssigneeID = memberID
	if err := s.repo.UpdateCard(card); err != nil {
		return err
	}

	s.emitCard(events.TriggerMemberAssigned, card, map[string]interface{}{
		"card_title":  card.Title,
		"assignee_id": memberID,
		"member_id":   memberID,
		"actor_id":    actorID,
	})
	return nil
}

func (s *Service) AddComment(orgID, cardID, body, actorID string) (*Comment, error) {
	if body == "" {
		return nil, errors.New("comment body is required")
	}
	card, err := s.repo.GetCard(orgID, cardID)
	if err != nil {
		return nil, err
	}

	comment := &Comment{OrgID: orgID, CardID: cardID, AuthorID: actorID, Body: body}
	if err := s.repo.CreateComment(comment); err != nil {
		return nil, err
	}

	// The comment body stays internal; subscribers get the reference.
	s.emitCard(events.TriggerCommentCreated, card, map[string]interface{}{
		"card_title": card.Title,
		"comment_id": comment.ID,
		"actor_id":   actorID,
	})
	return comment, nil
}

func (s *Service) AddChecklistItem(orgID, cardID, title string, position int) (*ChecklistItem, error) {
	if title == "" {
		return nil, errors.New("checklist item title is required")
	}
	if _, err := s.repo.GetCard(orgID, cardID); err != nil {
		return nil, err
	}

	item := &ChecklistItem{OrgID: orgID, CardID: cardID, Title: title, Position: position}
	if err := s.repo.CreateChecklistItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// ToggleChecklistItem sets an item's done state. Completing the card's
// last open item emits CHECKLIST_COMPLETED; re-completing an already
// done item emits nothing.
func (s *Service) ToggleChecklistItem(orgID, itemID string, done bool, actorID string) (*ChecklistItem, error) {
	item, err := s.repo.GetChecklistItem(orgID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Done == done {
		return item, nil
	}

	item.Done = done
	if err := s.repo.UpdateChecklistItem(item); err != nil {
		return nil, err
	}

	if done {
		open, err := s.repo.CountOpenChecklistItems(orgID, item.CardID)
		if err != nil {
			return nil, err
		}
		if open == 0 {
			card, err := s.repo.GetCard(orgID, item.CardID)
			if err != nil {
				return nil, err
			}
			s.emitCard(events.TriggerChecklistCompleted, card, map[string]interface{}{
				"card_title":   card.Title,
				"checklist_id": item.ID,
				"actor_id":     actorID,
			})
		}
	}
	return item, nil
}

func (s *Service) CreateSprint(orgID, boardID, name, actorID string) (*Sprint, error) {
	if name == "" {
		return nil, errors.New("sprint name is required")
	}
	if _, err := s.repo.GetBoard(orgID, boardID); err != nil {
		return nil, err
	}

	sprint := &Sprint{OrgID: orgID, BoardID: boardID, Name: name, CreatedBy: actorID}
	if err := s.repo.CreateSprint(sprint); err != nil {
		return nil, err
	}
	return sprint, nil
}

func (s *Service) StartSprint(orgID, sprintID, actorID string) (*Sprint, error) {
	sprint, err := s.repo.GetSprint(orgID, sprintID)
	if err != nil {
		return nil, err
	}
	if sprint.Status != SprintPlanned {
		return nil, fmt.Errorf("sprint is %s, only a planned sprint can start", sprint.Status)
	}

	now := time.Now().Unix()
	sprint.Status = SprintActive
	sprint.StartedAt = &now
	if err := s.repo.UpdateSprint(sprint); err != nil {
		return nil, err
	}

	s.bus.Emit(events.Event{
		Trigger: events.TriggerSprintStarted,
		OrgID:   orgID,
		BoardID: sprint.BoardID,
		Context: map[string]interface{}{
			"sprint_id":   sprint.ID,
			"sprint_name": sprint.Name,
			"actor_id":    actorID,
		},
	}, nil)
	return sprint, nil
}

func (s *Service) CompleteSprint(orgID, sprintID, actorID string) (*Sprint, error) {
	sprint, err := s.repo.GetSprint(orgID, sprintID)
	if err != nil {
		return nil, err
	}
	if sprint.Status != SprintActive {
		return nil, fmt.Errorf("sprint is %s, only an active sprint can complete", sprint.Status)
	}

	now := time.Now().Unix()
	sprint.Status = SprintCompleted
	sprint.CompletedAt = &now
	if err := s.repo.UpdateSprint(sprint); err != nil {
		return nil, err
	}

	done, remaining, err := s.repo.CountSprintCards(orgID, sprintID)
	if err != nil {
		log.Warn().Str("sprint_id", sprintID).Str("error", err.Error()).Msg("sprint card counts unavailable")
		done, remaining = 0, 0
	}

	s.bus.Emit(events.Event{
		Trigger: events.TriggerSprintCompleted,
		OrgID:   orgID,
		BoardID: sprint.BoardID,
		Context: map[string]interface{}{
			"sprint_id":   sprint.ID,
			"sprint_name": sprint.Name,
			"actor_id":    actorID,
		},
	}, map[string]interface{}{
		"cards_completed": done,
		"cards_remaining": remaining,
	})
	return sprint, nil
}

// CreateNotification writes an in-app notification. Part of the
// automation action surface; creates no event.
func (s *Service) CreateNotification(orgID, userID, message, cardID string) error {
	if message == "" {
		return errors.New("notification message is required")
	}
	return s.repo.CreateNotification(&Notification{
		OrgID:   orgID,
		UserID:  userID,
		Message: message,
		CardID:  cardID,
	})
}

func (s *Service) emitCard(trigger events.TriggerType, card *Card, ctx map[string]interface{}) {
	s.bus.Emit(events.Event{
		Trigger: trigger,
		OrgID:   card.OrgID,
		BoardID: card.BoardID,
		CardID:  card.ID,
		Context: ctx,
	}, nil)
}

// Read passthroughs for the API layer.

func (s *Service) GetBoard(orgID, id string) (*Board, error)     { return s.repo.GetBoard(orgID, id) }
func (s *Service) ListBoards(orgID string) ([]*Board, error)     { return s.repo.ListBoards(orgID) }
func (s *Service) GetCard(orgID, id string) (*Card, error)       { return s.repo.GetCard(orgID, id) }
func (s *Service) ListLists(orgID, boardID string) ([]*List, error) {
	return s.repo.ListLists(orgID, boardID)
}
func (s *Service) ListCards(orgID, boardID string) ([]*Card, error) {
	return s.repo.ListCards(orgID, boardID)
}
func (s *Service) ListComments(orgID, cardID string) ([]*Comment, error) {
	return s.repo.ListComments(orgID, cardID)
}
func (s *Service) ListChecklistItems(orgID, cardID string) ([]*ChecklistItem, error) {
	return s.repo.ListChecklistItems(orgID, cardID)
}
func (s *Service) ListSprints(orgID, boardID string) ([]*Sprint, error) {
	return s.repo.ListSprints(orgID, boardID)
}
func (s *Service) ListNotifications(orgID, userID string, unreadOnly bool) ([]*Notification, error) {
	return s.repo.ListNotifications(orgID, userID, unreadOnly)
}
func (s *Service) MarkNotificationRead(orgID, userID, id string) error {
	return s.repo.MarkNotificationRead(orgID, userID, id)
}
func (s *Service) DeleteBoard(orgID, id string) error { return s.repo.DeleteBoard(orgID, id) }
