package events

import (
	"testing"
	"time"
)

func TestTransactionEventJSONRoundTrip(t *testing.T) {
	e := NewTransactionEvent(TransactionCreated, 42)
	if e.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set")
	}

	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	back, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Event != TransactionCreated || back.ID != 42 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
	if !back.OccurredAt.Equal(e.OccurredAt.Truncate(time.Nanosecond)) {
		t.Fatalf("timestamp mismatch: %v != %v", back.OccurredAt, e.OccurredAt)
	}
}

func TestTransactionEventFromJSONRejectsGarbage(t *testing.T) {
	if _, err := TransactionEventFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
