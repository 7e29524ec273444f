// Package events publishes a one-way feed of committed store mutations to an
// AMQP exchange and lets other processes tail it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"budget/internal/store"
)

// Event is the message published for every committed mutation.
type Event struct {
	Kind          store.Kind `json:"kind"`
	AccountID     string     `json:"accountId"`
	TransactionID string     `json:"transactionId,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// NewEvent stamps c with the current time.
func NewEvent(c store.Change) Event {
	return Event{
		Kind:          c.Kind,
		AccountID:     c.AccountID,
		TransactionID: c.TransactionID,
		Timestamp:     time.Now().UTC(),
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects unknown kinds.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	for _, k := range store.Kinds() {
		if e.Kind == k {
			return e, nil
		}
	}
	return Event{}, fmt.Errorf("unknown event kind %q", e.Kind)
}

// Publisher sends events to the change feed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
