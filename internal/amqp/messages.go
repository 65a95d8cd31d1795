package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"duebook/internal/core"
)

// EventType names what happened to a billing record.
type EventType string

const (
	EventCreated EventType = "record.created"
	EventUpdated EventType = "record.updated"
	EventDeleted EventType = "record.deleted"
	EventPaid    EventType = "record.paid"
	EventDigest  EventType = "digest.due"
)

// RecordEvent is published after a mutation has been applied in memory.
// Deleted events carry only the id and name.
type RecordEvent struct {
	MessageID   string    `json:"message_id"`
	Type        EventType `json:"type"`
	RecordID    int       `json:"record_id"`
	Name        string    `json:"name"`
	Amount      string    `json:"amount,omitempty"`
	NextDueDate string    `json:"next_due_date,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRecordEvent builds an event from the record state after the change.
func NewRecordEvent(t EventType, rec core.Record) RecordEvent {
	evt := RecordEvent{
		MessageID: uuid.NewString(),
		Type:      t,
		RecordID:  rec.ID,
		Name:      rec.Name,
		Timestamp: time.Now().UTC(),
	}
	if t != EventDeleted {
		evt.Amount = rec.Amount.String()
		evt.NextDueDate = rec.NextDueDate.String()
	}
	return evt
}

// ToJSON converts the message to JSON bytes
func (e RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// DigestEntry is one client in a due digest.
type DigestEntry struct {
	RecordID    int    `json:"record_id"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	NextDueDate string `json:"next_due_date"`
}

// DigestMessage lists what is due as of a reference day.
type DigestMessage struct {
	MessageID  string        `json:"message_id"`
	Type       EventType     `json:"type"`
	AsOf       string        `json:"as_of"`
	Due        []DigestEntry `json:"due"`
	DueTotal   string        `json:"due_total"`
	Month      int           `json:"month"`
	Year       int           `json:"year"`
	MonthTotal string        `json:"month_total"`
	MonthCount int           `json:"month_count"`
	Timestamp  time.Time     `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m DigestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventFromJSON creates a message from JSON bytes
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var msg RecordEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
