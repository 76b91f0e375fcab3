package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types published by the notebook service.
const (
	SourcesChanged = "sources.changed"
	TurnUpdated    = "turn.updated"
	JobUpdated     = "job.updated"
)

// Event is a state change of one notebook. Data is the JSON snapshot of the
// changed entity so subscribers in other processes can decode it.
type Event struct {
	Type       string          `json:"type"`
	NotebookID string          `json:"notebook_id"`
	Data       json.RawMessage `json:"data,omitempty"`
	At         time.Time       `json:"at"`
}

func New(typ, notebookID string, data any) (Event, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, NotebookID: notebookID, Data: b, At: time.Now().UTC()}, nil
}

// Bus fans notebook events out to subscribers. Subscribe channels are closed
// once ctx is done.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, notebookID string) (<-chan Event, error)
}
