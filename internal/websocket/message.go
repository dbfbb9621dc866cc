package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewNotification encodes a notification message for the feed. Encoding
// errors cannot occur for the payload types we send, so they are ignored.
func NewNotification(action string, payload interface{}) []byte {
	b, _ := json.Marshal(Message{Action: action, Payload: payload})
	return b
}
