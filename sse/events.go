package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Event types.
const (
	// EventTypeConnected is sent once when a client subscribes.
	EventTypeConnected = "connected"
	// EventTypeNode carries a node starting or finishing.
	EventTypeNode = "node"
	// EventTypeRun carries the outcome of a whole run.
	EventTypeRun = "run"
)

// Event is one SSE message.
type Event struct {
	Type string
	Data []byte
}

// NewEvent marshals v as the event payload.
func NewEvent(eventType string, v any) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, fmt.Errorf("sse: encoding %s event: %w", eventType, err)
	}
	return Event{Type: eventType, Data: data}, nil
}

// WriteTo writes e in wire format. Multi-line payloads become one data
// line each.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if e.Type != "" {
		fmt.Fprintf(&buf, "event: %s\n", e.Type)
	}
	for _, line := range bytes.Split(e.Data, []byte("\n")) {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteByte('\n')
	return buf.WriteTo(w)
}
