package events

// payloadAllowlist is the full set of context keys that may be forwarded
// to third-party subscribers. Everything else on an event's context is
// internal and gets dropped during projection. Review any addition here:
// it widens what leaves the tenant boundary.
var payloadAllowlist = map[string]struct{}{
	"card_title":   {},
	"list_id":      {},
	"from_list_id": {},
	"to_list_id":   {},
	"priority":     {},
	"label":        {},
	"labels":       {},
	"assignee_id":  {},
	"member_id":    {},
	"due_date":     {},
	"sprint_id":    {},
	"sprint_name":  {},
	"comment_id":   {},
	"board_name":   {},
	"checklist_id": {},
	"actor_id":     {},
}

// BuildPayload projects an event into the outbound webhook payload:
// allowlisted context fields, any explicitly supplied extra fields, and
// the card/board identifiers plus the external event name under "type".
// Extra keys are the caller's deliberate choice and bypass the allowlist.
func BuildPayload(evt Event, externalName string, extra map[string]interface{}) map[string]interface{} {
	payload := make(map[string]interface{}, len(evt.Context)+len(extra)+3)

	for k, v := range evt.Context {
		if _, ok := payloadAllowlist[k]; ok {
			payload[k] = v
		}
	}
	for k, v := range extra {
		payload[k] = v
	}

	payload["card_id"] = evt.CardID
	payload["board_id"] = evt.BoardID
	payload["type"] = externalName

	return payload
}
