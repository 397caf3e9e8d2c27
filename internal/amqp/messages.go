package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Schedule event kinds carried on the queue.
const (
	EventSchedulePaid     = "schedule_paid"
	EventScheduleReverted = "schedule_reverted"
)

// ScheduleEventMessage is a lightweight notification that one schedule
// changed status. It carries only ids; the worker fetches the full rows
// from the database before exporting.
type ScheduleEventMessage struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	ScheduleID int64     `json:"schedule_id"`
	EntryID    int64     `json:"entry_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewScheduleEventMessage creates an event with a fresh id.
func NewScheduleEventMessage(kind string, scheduleID, entryID int64) *ScheduleEventMessage {
	return &ScheduleEventMessage{
		EventID:    uuid.NewString(),
		Kind:       kind,
		ScheduleID: scheduleID,
		EntryID:    entryID,
		OccurredAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ScheduleEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ScheduleEventMessageFromJSON creates a message from JSON bytes
func ScheduleEventMessageFromJSON(data []byte) (*ScheduleEventMessage, error) {
	var msg ScheduleEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
