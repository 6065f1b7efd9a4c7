package events

import (
	"encoding/json"
	"time"
)

const (
	TransactionCreated = "transaction.created"
	TransactionUpdated = "transaction.updated"
	TransactionDeleted = "transaction.deleted"
)

// TransactionEvent is the message published after a successful mutation.
// It carries only the event name and the transaction id; consumers that
// need the full record fetch it from the API.
type TransactionEvent struct {
	Event      string    `json:"event"`
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTransactionEvent creates an event for the given mutation.
func NewTransactionEvent(event string, id int64) *TransactionEvent {
	return &TransactionEvent{
		Event:      event,
		ID:         id,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON parses an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
