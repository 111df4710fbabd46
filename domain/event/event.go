package event

import (
	"time"

	"chat-relay/domain/chat"
)

type Type string

// Event is the telemetry envelope flowing to the TelemetryWorker.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

func New(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
}

// DomainEvent is anything pushed to a participant's transport.
type DomainEvent interface {
	OccurredAt() time.Time
}

// MessageDelivered carries a translated message to one recipient.
type MessageDelivered struct {
	chat.OutboundMessage
}

func (m MessageDelivered) OccurredAt() time.Time {
	return m.SentAt
}

// Notice is an informational or error line addressed to a single participant.
// An empty Code means informational.
type Notice struct {
	Code string
	Text string
	At   time.Time
}

func NewInfo(text string) Notice {
	return Notice{Text: text, At: time.Now().UTC()}
}

func NewError(code, text string) Notice {
	return Notice{Code: code, Text: text, At: time.Now().UTC()}
}

func (n Notice) IsError() bool {
	return n.Code != ""
}

func (n Notice) OccurredAt() time.Time {
	return n.At
}

// PresenceChanged lists everyone online after a join, leave or language change.
type PresenceChanged struct {
	Users []chat.PresenceEntry
	At    time.Time
}

func (p PresenceChanged) OccurredAt() time.Time {
	return p.At
}
