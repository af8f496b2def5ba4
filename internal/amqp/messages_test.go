package amqp

import (
	"testing"
	"time"
)

func TestDueReminderMessageRoundTrip(t *testing.T) {
	due := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	msg := NewDueReminderMessage(ReminderObligation, "sch-1", "Arriendo", 120000000, due, 3)
	if msg.Timestamp.IsZero() {
		t.Error("expected Timestamp stamped on build")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}
	got, err := DueReminderMessageFromJSON(data)
	if err != nil {
		t.Fatalf("DueReminderMessageFromJSON() error: %v", err)
	}
	if got.Kind != ReminderObligation || got.ID != "sch-1" || got.AmountCents != 120000000 {
		t.Errorf("decoded message = %+v", got)
	}
	if !got.DueDate.Equal(due) || got.DaysUntilDue != 3 {
		t.Errorf("due fields = %v / %d, want %v / 3", got.DueDate, got.DaysUntilDue, due)
	}
}

func TestDueReminderMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := DueReminderMessageFromJSON([]byte("{nope")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
