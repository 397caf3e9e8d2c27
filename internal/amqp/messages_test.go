package amqp

import (
	"testing"
)

func TestScheduleEventMessage_RoundTrip(t *testing.T) {
	msg := NewScheduleEventMessage(EventSchedulePaid, 7, 42)
	if msg.EventID == "" {
		t.Fatal("event id must be assigned")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := ScheduleEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.EventID != msg.EventID || got.Kind != EventSchedulePaid || got.ScheduleID != 7 || got.EntryID != 42 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestScheduleEventMessageFromJSON_Malformed(t *testing.T) {
	if _, err := ScheduleEventMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("malformed payload must error")
	}
}

func TestNewScheduleEventMessage_UniqueIDs(t *testing.T) {
	a := NewScheduleEventMessage(EventSchedulePaid, 1, 1)
	b := NewScheduleEventMessage(EventScheduleReverted, 1, 1)
	if a.EventID == b.EventID {
		t.Error("event ids must be unique per message")
	}
}
