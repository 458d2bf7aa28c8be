package webhooks

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(sub *Subscription) error {
	if sub.ID == "" {
		sub.ID = "wh_" + uuid.New().String()
	}
	now := time.Now().Unix()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	eventsJSON, _ := json.Marshal(sub.Events)

	query := `
		INSERT INTO webhooks (id, org_id, url, events, secret, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		sub.ID,
		sub.OrgID,
		sub.URL,
		string(eventsJSON),
		sub.Secret,
		sub.Enabled,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	return err
}

func (r *Repository) GetByID(orgID, id string) (*Subscription, error) {
	query := `
		SELECT id, org_id, url, events, secret, enabled, created_at, updated_at
		FROM webhooks WHERE id = ? AND org_id = ?
	`
	row := r.db.QueryRow(query, id, orgID)
	return scanSubscription(row)
}

func (r *Repository) ListByOrg(orgID string) ([]*Subscription, error) {
	query := `
		SELECT id, org_id, url, events, secret, enabled, created_at, updated_at
		FROM webhooks WHERE org_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ListEnabledForEvent returns the org's enabled subscriptions that listen
// for event. The events column is JSON, so the event filter runs app-side.
func (r *Repository) ListEnabledForEvent(orgID, event string) ([]*Subscription, error) {
	query := `
		SELECT id, org_id, url, events, secret, enabled, created_at, updated_at
		FROM webhooks WHERE org_id = ? AND enabled = 1
	`
	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		if sub.Subscribed(event) {
			subs = append(subs, sub)
		}
	}
	return subs, rows.Err()
}

func (r *Repository) Update(sub *Subscription) error {
	eventsJSON, _ := json.Marshal(sub.Events)
	query := `
		UPDATE webhooks SET url = ?, events = ?, enabled = ?, updated_at = ?
		WHERE id = ? AND org_id = ?
	`
	res, err := r.db.Exec(query,
		sub.URL,
		string(eventsJSON),
		sub.Enabled,
		time.Now().Unix(),
		sub.ID,
		sub.OrgID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateSecret replaces the signing secret in place. Callers rotate via
// GenerateSecret and return the new value exactly once.
func (r *Repository) UpdateSecret(orgID, id, secret string) error {
	query := `UPDATE webhooks SET secret = ?, updated_at = ? WHERE id = ? AND org_id = ?`
	res, err := r.db.Exec(query, secret, time.Now().Unix(), id, orgID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes the subscription. Delivery rows cascade via the
// webhook_deliveries foreign key.
func (r *Repository) Delete(orgID, id string) error {
	res, err := r.db.Exec(`DELETE FROM webhooks WHERE id = ? AND org_id = ?`, id, orgID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Repository) CreateDelivery(rec *DeliveryRecord) error {
	if rec.ID == "" {
		rec.ID = "del_" + uuid.New().String()
	}
	query := `
		INSERT INTO webhook_deliveries (id, webhook_id, event, payload, status_code, success, duration_ms, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var statusCode interface{}
	if rec.StatusCode != nil {
		statusCode = *rec.StatusCode
	}
	_, err := r.db.Exec(query,
		rec.ID,
		rec.WebhookID,
		rec.Event,
		rec.Payload,
		statusCode,
		rec.Success,
		rec.DurationMs,
		rec.AttemptedAt,
	)
	return err
}

// ListDeliveries returns the newest delivery rows for a webhook the org
// owns. The join keeps one tenant from reading another tenant's log.
func (r *Repository) ListDeliveries(orgID, webhookID string, limit int) ([]*DeliveryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT d.id, d.webhook_id, d.event, d.payload, d.status_code, d.success, d.duration_ms, d.attempted_at
		FROM webhook_deliveries d
		JOIN webhooks w ON w.id = d.webhook_id
		WHERE d.webhook_id = ? AND w.org_id = ?
		ORDER BY d.attempted_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, webhookID, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*DeliveryRecord
	for rows.Next() {
		var rec DeliveryRecord
		var statusCode sql.NullInt64
		err := rows.Scan(
			&rec.ID,
			&rec.WebhookID,
			&rec.Event,
			&rec.Payload,
			&statusCode,
			&rec.Success,
			&rec.DurationMs,
			&rec.AttemptedAt,
		)
		if err != nil {
			return nil, err
		}
		if statusCode.Valid {
			val := int(statusCode.Int64)
			rec.StatusCode = &val
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// DeleteDeliveriesBefore prunes delivery rows older than cutoff and
// returns the number removed. Used by the retention sweeper.
func (r *Repository) DeleteDeliveriesBefore(cutoff int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM webhook_deliveries WHERE attempted_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSubscription(s interface {
	Scan(dest ...interface{}) error
}) (*Subscription, error) {
	var sub Subscription
	var eventsRaw []byte

	err := s.Scan(
		&sub.ID,
		&sub.OrgID,
		&sub.URL,
		&eventsRaw,
		&sub.Secret,
		&sub.Enabled,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(eventsRaw) > 0 {
		json.Unmarshal(eventsRaw, &sub.Events)
	}
	return &sub, nil
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
