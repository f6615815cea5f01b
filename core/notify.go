package core

import "context"

// Change events pushed to connected sessions.
const (
	EventRecordUpdate   = "record_update"
	EventMessageUpdate  = "message_update"
	EventQuestionUpdate = "question_update"
)

type (
	// Event is one change notification.
	Event struct {
		Name string      `json:"event"`
		Data interface{} `json:"data"`
	}

	// Notifier broadcasts change events to every connected session.
	// Delivery is best effort: there is no replay for sessions that were not connected.
	Notifier interface {
		Notify(ctx context.Context, event string, payload interface{})
	}

	// StatusPayload is the payload of events that only carry a human readable status.
	StatusPayload struct {
		Msg string `json:"msg"`
	}
)
