package websocket

import (
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"time"

	"github.com/samber/lo"
)

type FrameType string

const (
	ChatFrame     FrameType = "chat"
	InfoFrame     FrameType = "info"
	ErrorFrame    FrameType = "error"
	PresenceFrame FrameType = "presence"
)

// Frame is the JSON document written for every outbound event.
// Fields irrelevant to a type are omitted.
type Frame struct {
	Type         FrameType      `json:"type"`
	MessageID    string         `json:"message_id,omitempty"`
	Sender       string         `json:"sender,omitempty"`
	SenderName   string         `json:"sender_name,omitempty"`
	Color        string         `json:"color,omitempty"`
	Text         string         `json:"text,omitempty"`
	Language     string         `json:"language,omitempty"`
	Untranslated bool           `json:"untranslated,omitempty"`
	Code         string         `json:"code,omitempty"`
	Users        []PresenceUser `json:"users,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

type PresenceUser struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Language string `json:"language"`
}

// ToFrame maps a domain event to its wire form. Unknown events are not sent.
func ToFrame(e event.DomainEvent) (Frame, bool) {
	switch evt := e.(type) {
	case event.MessageDelivered:
		return Frame{
			Type:         ChatFrame,
			MessageID:    evt.MessageID.String(),
			Sender:       evt.Sender.String(),
			SenderName:   evt.SenderName,
			Color:        evt.Color,
			Text:         evt.Text,
			Language:     evt.Language.String(),
			Untranslated: evt.Untranslated,
			Timestamp:    evt.SentAt,
		}, true
	case event.Notice:
		if evt.IsError() {
			return Frame{Type: ErrorFrame, Code: evt.Code, Text: evt.Text, Timestamp: evt.At}, true
		}
		return Frame{Type: InfoFrame, Text: evt.Text, Timestamp: evt.At}, true
	case event.PresenceChanged:
		return Frame{
			Type: PresenceFrame,
			Users: lo.Map(evt.Users, func(u chat.PresenceEntry, _ int) PresenceUser {
				return PresenceUser{
					Identity: u.Identity.String(),
					Name:     u.Name,
					Color:    u.Color,
					Language: u.Language.String(),
				}
			}),
			Timestamp: evt.At,
		}, true
	default:
		return Frame{}, false
	}
}
