package webhooks

// Subscription is a tenant-registered webhook endpoint. Secret is the
// HMAC signing key; it is never serialized on reads, only returned once
// by create and rotate responses.
type Subscription struct {
	ID        string   `json:"id"`
	OrgID     string   `json:"organization_id"`
	URL       string   `json:"url"`
	Events    []string `json:"events"`
	Secret    string   `json:"-"`
	Enabled   bool     `json:"enabled"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

// Subscribed reports whether the subscription listens for event.
func (s *Subscription) Subscribed(event string) bool {
	for _, e := range s.Events {
		if e == event {
			return true
		}
	}
	return false
}

// DeliveryRecord is one row of the append-only delivery log. StatusCode
// is nil when the request never produced a response (timeout, DNS
// failure, connection refused).
type DeliveryRecord struct {
	ID          string `json:"id"`
	WebhookID   string `json:"webhook_id"`
	Event       string `json:"event"`
	Payload     string `json:"payload"`
	StatusCode  *int   `json:"status_code"`
	Success     bool   `json:"success"`
	DurationMs  int64  `json:"duration_ms"`
	AttemptedAt int64  `json:"attempted_at"`
}
