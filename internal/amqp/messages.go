package amqp

import (
	"encoding/json"
	"time"

	"expenses/internal/core"
)

// Event types published after a mutation has been saved.
const (
	EventExpenseCreated = "expense.created"
	EventExpenseDeleted = "expense.deleted"
)

// ExpenseEvent carries the full record so consumers need no access to the
// data file.
type ExpenseEvent struct {
	Type      string       `json:"type"`
	Expense   core.Expense `json:"expense"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewExpenseEvent creates an event stamped with the current time
func NewExpenseEvent(eventType string, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      eventType,
		Expense:   e,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
