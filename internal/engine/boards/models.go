package boards

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

type Board struct {
	ID        string `json:"id"`
	OrgID     string `json:"organization_id"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type List struct {
	ID        string `json:"id"`
	OrgID     string `json:"organization_id"`
	BoardID   string `json:"board_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Card priorities run 1 (urgent) to 4 (low).
const (
	PriorityUrgent = 1
	PriorityHigh   = 2
	PriorityMedium = 3
	PriorityLow    = 4
)

type Card struct {
	ID          string `json:"id"`
	OrgID       string `json:"organization_id"`
	BoardID     string `json:"board_id"`
	ListID      string `json:"list_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
	Labels      Labels `json:"labels"`
	AssigneeID  string `json:"assignee_id,omitempty"`
	SprintID    string `json:"sprint_id,omitempty"`
	DueDate     *int64 `json:"due_date,omitempty"`
	Position    int    `json:"position"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`

	// Sweep bookkeeping so each due-date state fires exactly once.
	DueSoonNotified bool `json:"-"`
	OverdueNotified bool `json:"-"`
}

func (c *Card) HasLabel(label string) bool {
	for _, l := range c.Labels {
		if l == label {
			return true
		}
	}
	return false
}

type Labels []string

// Value implements the driver.Valuer interface for Labels
func (l Labels) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for Labels
func (l *Labels) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &l)
}

// Sprint statuses.
const (
	SprintPlanned   = "planned"
	SprintActive    = "active"
	SprintCompleted = "completed"
)

type Sprint struct {
	ID          string `json:"id"`
	OrgID       string `json:"organization_id"`
	BoardID     string `json:"board_id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	StartedAt   *int64 `json:"started_at,omitempty"`
	CompletedAt *int64 `json:"completed_at,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type Comment struct {
	ID        string `json:"id"`
	OrgID     string `json:"organization_id"`
	CardID    string `json:"card_id"`
	AuthorID  string `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"created_at"`
}

type ChecklistItem struct {
	ID        string `json:"id"`
	OrgID     string `json:"organization_id"`
	CardID    string `json:"card_id"`
	Title     string `json:"title"`
	Done      bool   `json:"done"`
	Position  int    `json:"position"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type Notification struct {
	ID        string `json:"id"`
	OrgID     string `json:"organization_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	CardID    string `json:"card_id,omitempty"`
	ReadAt    *int64 `json:"read_at,omitempty"`
	CreatedAt int64  `json:"created_at"`
}
