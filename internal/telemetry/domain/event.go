package domain

import (
	"time"

	"github.com/goccy/go-json"
)

// Event types produced by the server.
const (
	EventTypeGRPCRequest   = "grpc_request"
	EventTypeAuthzDecision = "authz_decision"
)

// Event is one telemetry record. It is the Kafka message value (JSON) and the source of OTel log records.
type Event struct {
	WorkspaceID string          `json:"workspaceId,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	EventType   string          `json:"eventType"`
	Source      string          `json:"source"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewEvent returns an event stamped with the current time and metadata encoded as JSON.
// Metadata that fails to encode is dropped.
func NewEvent(eventType, source string, metadata any) *Event {
	ev := &Event{EventType: eventType, Source: source, CreatedAt: time.Now().UTC()}
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			ev.Metadata = b
		}
	}
	return ev
}
