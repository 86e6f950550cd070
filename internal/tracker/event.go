package tracker

import "qp-hub-backend/internal/model"

type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
	EventUpdated EventType = "updated"
	EventCleared EventType = "cleared"
	EventStatus  EventType = "status"
	EventSummary EventType = "summary"
)

// Event is a change notification for presentation layers.
type Event struct {
	BatchID  string         `json:"batchId,omitempty"`
	Type     EventType      `json:"type"`
	RecordID string         `json:"recordId,omitempty"`
	Index    int            `json:"index"`
	Status   model.Status   `json:"status,omitempty"`
	Message  string         `json:"message,omitempty"`
	Summary  *model.Summary `json:"summary,omitempty"`
}
