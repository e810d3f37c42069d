package websocket

import "time"

// Envelope — "конверт" для сообщений. Тип сообщения позволяет фронтенду
// понять, что пришло: свежий срез коллекции активов или событие аудита.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	MessageTypeAssetsSnapshot = "assets.snapshot"
	MessageTypeAuditSubmitted = "audit.submitted"
)
