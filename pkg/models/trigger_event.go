package models

import (
	"time"

	"github.com/google/uuid"
)

// TriggerEventType identifies the class of a trigger event.
type TriggerEventType string

const (
	TriggerProcessComplete   TriggerEventType = "process.complete"
	TriggerProcessFailed     TriggerEventType = "process.failed"
	TriggerMCPToolComplete   TriggerEventType = "mcp.tool.complete"
	TriggerSynthesisComplete TriggerEventType = "synthesis.complete"
	TriggerTestComplete      TriggerEventType = "test.complete"
	TriggerManual            TriggerEventType = "manual"
	TriggerScheduled         TriggerEventType = "scheduled"
	TriggerWebhook           TriggerEventType = "webhook"
)

// TriggerEvent is an immutable record of something that happened, broadcast
// to registered handlers and retained in the bus's bounded log.
type TriggerEvent struct {
	ID         string           `json:"id"`
	EventType  TriggerEventType `json:"event_type"`
	Source     string           `json:"source"`
	Timestamp  time.Time        `json:"timestamp"`
	Data       map[string]any   `json:"data,omitempty"`
	WorkflowID string           `json:"workflow_id,omitempty"`
}

// NewTriggerEvent builds an event stamped with the current UTC time.
func NewTriggerEvent(eventType TriggerEventType, source string, data map[string]any) TriggerEvent {
	if data == nil {
		data = make(map[string]any)
	}

	return TriggerEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
