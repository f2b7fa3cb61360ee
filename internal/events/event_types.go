package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProfileCreated EventType = "profile_created"
	EventProfileUpdated EventType = "profile_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProfileSavedPayload is attached to created and updated events.
type ProfileSavedPayload struct {
	StudentID string `json:"student_id"`
	Batch     int    `json:"batch"`
	Status    string `json:"status"`
	Complete  bool   `json:"complete"`
}
