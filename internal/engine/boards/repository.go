package boards

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Repository is the org-scoped data access layer for the board domain.
// Every query filters by org_id; a row belonging to another tenant is
// indistinguishable from a missing row.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateBoard(board *Board) error {
	if board.ID == "" {
		board.ID = "board_" + uuid.New().String()
	}
	now := time.Now().Unix()
	board.CreatedAt = now
	board.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO boards (id, org_id, name, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		board.ID, board.OrgID, board.Name, board.CreatedBy, board.CreatedAt, board.UpdatedAt,
	)
	return err
}

func (r *Repository) GetBoard(orgID, id string) (*Board, error) {
	var b Board
	err := r.db.QueryRow(`
		SELECT id, org_id, name, created_by, created_at, updated_at
		FROM boards WHERE id = ? AND org_id = ?`, id, orgID,
	).Scan(&b.ID, &b.OrgID, &b.Name, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) ListBoards(orgID string) ([]*Board, error) {
	rows, err := r.db.Query(`
		SELECT id, org_id, name, created_by, created_at, updated_at
		FROM boards WHERE org_id = ?
		ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []*Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.OrgID, &b.Name, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, &b)
	}
	return boards, rows.Err()
}

func (r *Repository) DeleteBoard(orgID, id string) error {
	res, err := r.db.Exec(`DELETE FROM boards WHERE id = ? AND org_id = ?`, id, orgID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Repository) CreateList(list *List) error {
	if list.ID == "" {
		list.ID = "list_" + uuid.New().String()
	}
	now := time.Now().Unix()
	list.CreatedAt = now
	list.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO lists (id, org_id, board_id, name, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		list.ID, list.OrgID, list.BoardID, list.Name, list.Position, list.CreatedAt, list.UpdatedAt,
	)
	return err
}

func (r *Repository) GetList(orgID, id string) (*List, error) {
	var l List
	err := r.db.QueryRow(`
		SELECT id, org_id, board_id, name, position, created_at, updated_at
		FROM lists WHERE id = ? AND org_id = ?`, id, orgID,
	).Scan(&l.ID, &l.OrgID, &l.BoardID, &l.Name, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) ListLists(orgID, boardID string) ([]*List, error) {
	rows, err := r.db.Query(`
		SELECT id, org_id, board_id, name, position, created_at, updated_at
		FROM lists WHERE org_id = ? AND board_id = ?
		ORDER BY position ASC`, orgID, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []*List
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.OrgID, &l.BoardID, &l.Name, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, &l)
	}
	return lists, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
