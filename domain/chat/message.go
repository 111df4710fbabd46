package chat

import (
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
)

// InboundMessage is a raw text received from one connection. Never persisted.
type InboundMessage struct {
	ID     uuid.UUID
	Sender domain.Identity
	Text   string
	SentAt time.Time
}

func NewInboundMessage(sender domain.Identity, text string) InboundMessage {
	return InboundMessage{
		ID:     uuid.New(),
		Sender: sender,
		Text:   text,
		SentAt: time.Now().UTC(),
	}
}

// OutboundMessage is produced once per distinct target language and pushed
// unchanged to every recipient of that language.
type OutboundMessage struct {
	MessageID    uuid.UUID
	Sender       domain.Identity
	SenderName   string
	Color        string
	Text         string
	Language     domain.Language
	Untranslated bool
	SentAt       time.Time
}

// Translation is the dispatcher output for one language.
// Untranslated marks the fallback to the original text.
type Translation struct {
	Text         string
	Untranslated bool
}

// Fallback returns the original text flagged as untranslated.
func Fallback(original string) Translation {
	return Translation{Text: original, Untranslated: true}
}
