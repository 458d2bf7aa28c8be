package automations

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"boardflow/internal/engine/events"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(rule *Rule) error {
	if rule.ID == "" {
		rule.ID = "rule_" + uuid.New().String()
	}
	now := time.Now().Unix()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO automation_rules (
			id, org_id, board_id, name, trigger_type, conditions, actions,
			enabled, position, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		rule.ID,
		rule.OrgID,
		rule.BoardID,
		rule.Name,
		string(rule.Trigger),
		rule.Conditions,
		rule.Actions,
		rule.Enabled,
		rule.Position,
		rule.CreatedBy,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	return err
}

func (r *Repository) GetByID(orgID, id string) (*Rule, error) {
	query := `
		SELECT id, org_id, board_id, name, trigger_type, conditions, actions,
		       enabled, position, created_by, created_at, updated_at
		FROM automation_rules WHERE id = ? AND org_id = ?
	`
	row := r.db.QueryRow(query, id, orgID)
	return scanRule(row)
}

func (r *Repository) ListByOrg(orgID string) ([]*Rule, error) {
	query := `
		SELECT id, org_id, board_id, name, trigger_type, conditions, actions,
		       enabled, position, created_by, created_at, updated_at
		FROM automation_rules WHERE org_id = ?
		ORDER BY position ASC, created_at ASC
	`
	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ListEnabledByTrigger returns the org's enabled rules for trigger that
// apply to boardID, in execution order. Org-wide rules (NULL board_id)
// always apply. A row whose stored JSON no longer parses is logged and
// skipped so one corrupt rule cannot switch off an org's automation.
func (r *Repository) ListEnabledByTrigger(orgID string, trigger events.TriggerType, boardID string) ([]*Rule, error) {
	query := `
		SELECT id, org_id, board_id, name, trigger_type, conditions, actions,
		       enabled, position, created_by, created_at, updated_at
		FROM automation_rules
		WHERE org_id = ? AND trigger_type = ? AND enabled = 1
		  AND (board_id IS NULL OR board_id = ?)
		ORDER BY position ASC, created_at ASC
	`
	rows, err := r.db.Query(query, orgID, string(trigger), boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			log.Warn().
				Str("org_id", orgID).
				Str("trigger", string(trigger)).
				Str("error", err.Error()).
				Msg("skipping unreadable automation rule row")
			continue
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *Repository) Update(rule *Rule) error {
	query := `
		UPDATE automation_rules SET
			board_id = ?, name = ?, trigger_type = ?, conditions = ?, actions = ?,
			enabled = ?, position = ?, updated_at = ?
		WHERE id = ? AND org_id = ?
	`
	res, err := r.db.Exec(query,
		rule.BoardID,
		rule.Name,
		string(rule.Trigger),
		rule.Conditions,
		rule.Actions,
		rule.Enabled,
		rule.Position,
		time.Now().Unix(),
		rule.ID,
		rule.OrgID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *Repository) Delete(orgID, id string) error {
	res, err := r.db.Exec(`DELETE FROM automation_rules WHERE id = ? AND org_id = ?`, id, orgID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanRule(s interface {
	Scan(dest ...interface{}) error
}) (*Rule, error) {
	var rule Rule
	var boardID sql.NullString
	var trigger string

	err := s.Scan(
		&rule.ID,
		&rule.OrgID,
		&boardID,
		&rule.Name,
		&trigger,
		&rule.Conditions,
		&rule.Actions,
		&rule.Enabled,
		&rule.Position,
		&rule.CreatedBy,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Trigger = events.TriggerType(trigger)
	if boardID.Valid {
		val := boardID.String
		rule.BoardID = &val
	}
	return &rule, nil
}
