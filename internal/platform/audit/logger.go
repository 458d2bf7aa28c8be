package audit

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AuditLog struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	UserID         string                 `json:"user_id"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resource_type"`
	ResourceID     string                 `json:"resource_id"`
	Metadata       map[string]interface{} `json:"metadata"`
	IPAddress      string                 `json:"ip_address"`
	UserAgent      string                 `json:"user_agent"`
	CreatedAt      int64                  `json:"created_at"`
}

type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Record writes an audit row asynchronously. Audit is best effort: a failed
// insert is logged and never surfaces to the request that triggered it.
func (l *Logger) Record(r *http.Request, orgID, userID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	entry := &AuditLog{
		ID:             "audit_" + uuid.NewString(),
		OrganizationID: orgID,
		UserID:         userID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Metadata:       metadata,
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
		CreatedAt:      time.Now().Unix(),
	}

	metaJSON, _ := json.Marshal(metadata)

	go func() {
		_, err := l.db.Exec(`
			INSERT INTO audit_logs (id, organization_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.OrganizationID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID, string(metaJSON), entry.IPAddress, entry.UserAgent, entry.CreatedAt)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("audit insert failed")
		}
	}()
}

func (l *Logger) List(orgID string, limit int) ([]*AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := l.db.Query(`
		SELECT id, organization_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at
		FROM audit_logs WHERE organization_id = ? ORDER BY created_at DESC LIMIT ?
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*AuditLog
	for rows.Next() {
		entry := &AuditLog{}
		var metaJSON string
		if err := rows.Scan(&entry.ID, &entry.OrganizationID, &entry.UserID, &entry.Action, &entry.ResourceType, &entry.ResourceID, &metaJSON, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &entry.Metadata)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
