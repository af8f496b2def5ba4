package amqp

import (
	"encoding/json"
	"time"
)

const (
	// ReminderObligation marks a scheduled obligation that is due or
	// overdue for materialization.
	ReminderObligation = "obligation"
	// ReminderLoan marks a loan inside its reminder window or past due.
	ReminderLoan = "loan"
)

// DueReminderMessage notifies downstream consumers (notification bots,
// dashboards) that something needs attention. It carries enough to
// render a message without a database round trip.
type DueReminderMessage struct {
	Kind         string    `json:"kind"`
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	AmountCents  int64     `json:"amountCents"`
	DueDate      time.Time `json:"dueDate"`
	DaysUntilDue int       `json:"daysUntilDue"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewDueReminderMessage builds a reminder stamped with the current time.
func NewDueReminderMessage(kind, id, description string, amountCents int64, dueDate time.Time, daysUntilDue int) *DueReminderMessage {
	return &DueReminderMessage{
		Kind:         kind,
		ID:           id,
		Description:  description,
		AmountCents:  amountCents,
		DueDate:      dueDate,
		DaysUntilDue: daysUntilDue,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *DueReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DueReminderMessageFromJSON parses a message from JSON bytes.
func DueReminderMessageFromJSON(data []byte) (*DueReminderMessage, error) {
	var msg DueReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
