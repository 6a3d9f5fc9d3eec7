package validation

// Notification is the payload POSTed to /webhook by the upstream system.
// The record id may arrive as "id" or "_id", as a JSON number or a string.
type Notification struct {
	Model string      `json:"_model,omitempty"`
	ID    interface{} `json:"id,omitempty"`
	AltID interface{} `json:"_id,omitempty"`
}

// RecordID returns the first present identifier. A zero/empty "id" falls
// through to "_id", matching how upstream webhooks fill either key.
func (n Notification) RecordID() interface{} {
	if !isBlank(n.ID) {
		return n.ID
	}
	return n.AltID
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}
