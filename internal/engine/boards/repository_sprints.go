package boards

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

func (r *Repository) CreateSprint(sprint *Sprint) error {
	if sprint.ID == "" {
		sprint.ID = "sprint_" + uuid.New().String()
	}
	if sprint.Status == "" {
		sprint.Status = SprintPlanned
	}
	now := time.Now().Unix()
	sprint.CreatedAt = now
	sprint.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO sprints (id, org_id, board_id, name, status, started_at, completed_at, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sprint.ID, sprint.OrgID, sprint.BoardID, sprint.Name, sprint.Status,
		sprint.StartedAt, sprint.CompletedAt, sprint.CreatedBy, sprint.CreatedAt, sprint.UpdatedAt,
	)
	return err
}

func (r *Repository) GetSprint(orgID, id string) (*Sprint, error) {
	row := r.db.QueryRow(`
		SELECT id, org_id, board_id, name, status, started_at, completed_at, created_by, created_at, updated_at
		FROM sprints WHERE id = ? AND org_id = ?`, id, orgID)
	return scanSprint(row)
}

func (r *Repository) ListSprints(orgID, boardID string) ([]*Sprint, error) {
	rows, err := r.db.Query(`
		SELECT id, org_id, board_id, name, status, started_at, completed_at, created_by, created_at, updated_at
		FROM sprints WHERE org_id = ? AND board_id = ?
		ORDER BY created_at DESC`, orgID, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sprints []*Sprint
	for rows.Next() {
		sprint, err := scanSprint(rows)
		if err != nil {
			return nil, err
		}
		sprints = append(sprints, sprint)
	}
	return sprints, rows.Err()
}

func (r *Repository) UpdateSprint(sprint *Sprint) error {
	sprint.UpdatedAt = time.Now().Unix()
	res, err := r.db.Exec(`
		UPDATE sprints SET name = ?, status = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND org_id = ?`,
		sprint.Name, sprint.Status, sprint.StartedAt, sprint.CompletedAt, sprint.UpdatedAt,
		sprint.ID, sprint.OrgID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CountSprintCards reports done and remaining card counts for a sprint.
// A card counts as done when it sits in a list named "Done".
func (r *Repository) CountSprintCards(orgID, sprintID string) (done, remaining int, err error) {
	err = r.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN l.name = 'Done' THEN 1 END),
			COUNT(CASE WHEN l.name != 'Done' THEN 1 END)
		FROM cards c
		JOIN lists l ON l.id = c.list_id
		WHERE c.org_id = ? AND c.sprint_id = ?`, orgID, sprintID,
	).Scan(&done, &remaining)
	return done, remaining, err
}

func (r *Repository) CreateComment(comment *Comment) error {
	if comment.ID == "" {
		comment.ID = "cmt_" + uuid.New().String()
	}
	comment.CreatedAt = time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO comments (id, org_id, card_id, author_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.OrgID, comment.CardID, comment.AuthorID, comment.Body, comment.CreatedAt,
	)
	return err
}

func (r *Repository) ListComments(orgID, cardID string) ([]*Comment, error) {
	rows, err := r.db.Query(`
		SELECT id, org_id, card_id, author_id, body, created_at
		FROM comments WHERE org_id = ? AND card_id = ?
		ORDER BY created_at ASC`, orgID, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.OrgID, &c.CardID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (r *Repository) CreateNotification(n *Notification) error {
	if n.ID == "" {
		n.ID = "notif_" + uuid.New().String()
	}
	n.CreatedAt = time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO notifications (id, org_id, user_id, message, card_id, read_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.OrgID, n.UserID, n.Message, n.CardID, n.ReadAt, n.CreatedAt,
	)
	return err
}

func (r *Repository) ListNotifications(orgID, userID string, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT id, org_id, user_id, message, card_id, read_at, created_at
		FROM notifications WHERE org_id = ? AND user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := r.db.Query(query, orgID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []*Notification
	for rows.Next() {
		var n Notification
		var readAt sql.NullInt64
		if err := rows.Scan(&n.ID, &n.OrgID, &n.UserID, &n.Message, &n.CardID, &readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			val := readAt.Int64
			n.ReadAt = &val
		}
		notifs = append(notifs, &n)
	}
	return notifs, rows.Err()
}

func (r *Repository) MarkNotificationRead(orgID, userID, id string) error {
	res, err := r.db.Exec(`
		UPDATE notifications SET read_at = ? WHERE id = ? AND org_id = ? AND user_id = ?`,
		time.Now().Unix(), id, orgID, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanSprint(s interface {
	Scan(dest ...interface{}) error
}) (*Sprint, error) {
	var sp Sprint
	var startedAt, completedAt sql.NullInt64

	err := s.Scan(
		&sp.ID, &sp.OrgID, &sp.BoardID, &sp.Name, &sp.Status,
		&startedAt, &completedAt, &sp.CreatedBy, &sp.CreatedAt, &sp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		val := startedAt.Int64
		sp.StartedAt = &val
	}
	if completedAt.Valid {
		val := completedAt.Int64
		sp.CompletedAt = &val
	}
	return &sp, nil
}
