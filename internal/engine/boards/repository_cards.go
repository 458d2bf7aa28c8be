package boards

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const cardColumns = `id, org_id, board_id, list_id, title, description, priority, labels,
	assignee_id, sprint_id, due_date, position, created_by, created_at, updated_at,
	due_soon_notified, overdue_notified`

func (r *Repository) CreateCard(card *Card) error {
	if card.ID == "" {
		card.ID = "card_" + uuid.New().String()
	}
	if card.Priority == 0 {
		card.Priority = PriorityMedium
	}
	now := time.Now().Unix()
	card.CreatedAt = now
	card.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.ID, card.OrgID, card.BoardID, card.ListID, card.Title, card.Description,
		card.Priority, card.Labels, card.AssigneeID, card.SprintID, card.DueDate,
		card.Position, card.CreatedBy, card.CreatedAt, card.UpdatedAt,
		card.DueSoonNotified, card.OverdueNotified,
	)
	return err
}

func (r *Repository) GetCard(orgID, id string) (*Card, error) {
	row := r.db.QueryRow(`
		SELECT `+cardColumns+`
		FROM cards WHERE id = ? AND org_id = ?`, id, orgID)
	return scanCard(row)
}

func (r *Repository) ListCards(orgID, boardID string) ([]*Card, error) {
	rows, err := r.db.Query(`
		SELECT `+cardColumns+`
		FROM cards WHERE org_id = ? AND board_id = ?
		ORDER BY position ASC, created_at ASC`, orgID, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCards(rows)
}

func (r *Repository) UpdateCard(card *Card) error {
	card.UpdatedAt = time.Now().Unix()
	res, err := r.db.Exec(`
		UPDATE cards SET
			list_id = ?, title = ?, description = ?, priority = ?, labels = ?,
			assignee_id = ?, sprint_id = ?, due_date = ?, position = ?, updated_at = ?,
			due_soon_notified = ?, overdue_notified = ?
		WHERE id = ? AND org_id = ?`,
		card.ListID, card.Title, card.Description, card.Priority, card.Labels,
		card.AssigneeID, card.SprintID, card.DueDate, card.Position, card.UpdatedAt,
		card.DueSoonNotified, card.OverdueNotified,
		card.ID, card.OrgID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Repository) DeleteCard(orgID, id string) error {
	res, err := r.db.Exec(`DELETE FROM cards WHERE id = ? AND org_id = ?`, id, orgID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListDueSoon returns cards across all orgs whose due date falls inside
// (now, now+horizon] and that have not yet produced a CARD_DUE_SOON
// event. The sweeper marks each card after emitting.
func (r *Repository) ListDueSoon(now int64, horizon time.Duration) ([]*Card, error) {
	limit := now + int64(horizon.Seconds())
	rows, err := r.db.Query(`
		SELECT `+cardColumns+`
		FROM cards
		WHERE due_date IS NOT NULL AND due_date > ? AND due_date <= ?
		  AND due_soon_notified = 0
		ORDER BY due_date ASC`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCards(rows)
}

// ListOverdue returns cards past their due date that have not yet
// produced a CARD_OVERDUE event.
func (r *Repository) ListOverdue(now int64) ([]*Card, error) {
	rows, err := r.db.Query(`
		SELECT `+cardColumns+`
		FROM cards
		WHERE due_date IS NOT NULL AND due_date <= ?
		  AND overdue_notified = 0
		ORDER BY due_date ASC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCards(rows)
}

func (r *Repository) MarkDueSoonNotified(orgID, id string) error {
	_, err := r.db.Exec(`
		UPDATE cards SET due_soon_notified = 1 WHERE id = ? AND org_id = ?`, id, orgID)
	return err
}

func (r *Repository) MarkOverdueNotified(orgID, id string) error {
	_, err := r.db.Exec(`
		UPDATE cards SET overdue_notified = 1 WHERE id = ? AND org_id = ?`, id, orgID)
	return err
}

func (r *Repository) CreateChecklistItem(item *ChecklistItem) error {
	if item.ID == "" {
		item.ID = "chk_" + uuid.New().String()
	}
	now := time.Now().Unix()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO checklist_items (id, org_id, card_id, title, done, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.OrgID, item.CardID, item.Title, item.Done, item.Position,
		item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (r *Repository) GetChecklistItem(orgID, id string) (*ChecklistItem, error) {
	var it ChecklistItem
	err := r.db.QueryRow(`
		SELECT id, org_id, card_id, title, done, position, created_at, updated_at
		FROM checklist_items WHERE id = ? AND org_id = ?`, id, orgID,
	).Scan(&it.ID, &it.OrgID, &it.CardID, &it.Title, &it.Done, &it.Position, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repository) ListChecklistItems(orgID, cardID string) ([]*ChecklistItem, error) {
	rows, err := r.db.Query(`
		SELECT id, org_id, card_id, title, done, position, created_at, updated_at
		FROM checklist_items WHERE org_id = ? AND card_id = ?
		ORDER BY position ASC, created_at ASC`, orgID, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ChecklistItem
	for rows.Next() {
		var it ChecklistItem
		if err := rows.Scan(&it.ID, &it.OrgID, &it.CardID, &it.Title, &it.Done, &it.Position, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *Repository) UpdateChecklistItem(item *ChecklistItem) error {
	item.UpdatedAt = time.Now().Unix()
	res, err := r.db.Exec(`
		UPDATE checklist_items SET title = ?, done = ?, position = ?, updated_at = ?
		WHERE id = ? AND org_id = ?`,
		item.Title, item.Done, item.Position, item.UpdatedAt, item.ID, item.OrgID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CountOpenChecklistItems reports how many of a card's items are not done.
func (r *Repository) CountOpenChecklistItems(orgID, cardID string) (int, error) {
	var n int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM checklist_items
		WHERE org_id = ? AND card_id = ? AND done = 0`, orgID, cardID,
	).Scan(&n)
	return n, err
}

func scanCard(s interface {
	Scan(dest ...interface{}) error
}) (*Card, error) {
	var c Card
	var dueDate sql.NullInt64

	err := s.Scan(
		&c.ID, &c.OrgID, &c.BoardID, &c.ListID, &c.Title, &c.Description,
		&c.Priority, &c.Labels, &c.AssigneeID, &c.SprintID, &dueDate,
		&c.Position, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		&c.DueSoonNotified, &c.OverdueNotified,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		val := dueDate.Int64
		c.DueDate = &val
	}
	return &c, nil
}

func collectCards(rows *sql.Rows) ([]*Card, error) {
	var cards []*Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}
