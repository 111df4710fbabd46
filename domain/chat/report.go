package chat

import (
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
)

// DeliveryReport summarizes one broadcast.
type DeliveryReport struct {
	MessageID            uuid.UUID
	Delivered            int
	SkippedByModeration  int
	ModerationFailures   int
	TranslationFallbacks int
	TransportFailures    int
	Languages            []domain.Language
}

// Report is a user complaint about another user, optionally tied to a message.
type Report struct {
	ID        uuid.UUID
	Reporter  domain.Identity
	Reported  domain.Identity
	Reason    string
	MessageID *uuid.UUID
	CreatedAt time.Time
}

func NewReport(reporter, reported domain.Identity, reason string, messageID *uuid.UUID) Report {
	return Report{
		ID:        uuid.New(),
		Reporter:  reporter,
		Reported:  reported,
		Reason:    reason,
		MessageID: messageID,
		CreatedAt: time.Now().UTC(),
	}
}

// PresenceEntry describes one online participant.
type PresenceEntry struct {
	Identity domain.Identity
	Name     string
	Color    string
	Language domain.Language
}
