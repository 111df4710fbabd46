package websocket

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSink_Consume_Keeps_Order(t *testing.T) {
	req := require.New(t)
	sink := NewSink(3)

	for _, text := range []string{"a", "b", "c"} {
		req.NoError(sink.Consume(context.Background(), event.NewInfo(text)))
	}

	for _, text := range []string{"a", "b", "c"} {
		req.Equal(text, (<-sink.Events()).(event.Notice).Text)
	}
}

func TestSink_Consume_Times_Out_When_Full(t *testing.T) {
	req := require.New(t)
	sink := NewSink(1)
	req.NoError(sink.Consume(context.Background(), event.NewInfo("first")))

	// Given nobody drains the queue
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Then the next push gives up at the deadline
	err := sink.Consume(ctx, event.NewInfo("second"))
	req.ErrorIs(err, errors.ErrPushTimeout)
}

func TestSink_Backlog_Follows_Pending_Events(t *testing.T) {
	req := require.New(t)
	sink := NewSink(4)

	// Given two events nobody has written yet
	req.NoError(sink.Consume(context.Background(), event.NewInfo("a")))
	req.NoError(sink.Consume(context.Background(), event.NewInfo("b")))
	length, capacity := sink.Backlog()
	req.Equal(2, length)
	req.Equal(4, capacity)

	// When the write pump takes one
	<-sink.Events()

	// Then the backlog shrinks
	length, _ = sink.Backlog()
	req.Equal(1, length)
}

func TestSink_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	sink := NewSink(1)

	sink.Close()
	sink.Close()

	req.ErrorIs(sink.Consume(context.Background(), event.NewInfo("late")), errors.ErrTransportClosed)
	select {
	case <-sink.Closed():
	default:
		req.Fail("sink should be closed")
	}
}

func TestToFrame(t *testing.T) {
	req := require.New(t)
	id := uuid.New()
	now := time.Now().UTC()

	frame, ok := ToFrame(event.MessageDelivered{OutboundMessage: chat.OutboundMessage{
		MessageID:    id,
		Sender:       "alice",
		SenderName:   "Alice",
		Color:        "#aabbcc",
		Text:         "hello",
		Language:     "fr",
		Untranslated: true,
		SentAt:       now,
	}})
	req.True(ok)
	req.Equal(Frame{
		Type:         ChatFrame,
		MessageID:    id.String(),
		Sender:       "alice",
		SenderName:   "Alice",
		Color:        "#aabbcc",
		Text:         "hello",
		Language:     "fr",
		Untranslated: true,
		Timestamp:    now,
	}, frame)

	frame, ok = ToFrame(event.NewError("message_too_long", "too long"))
	req.True(ok)
	req.Equal(ErrorFrame, frame.Type)
	req.Equal("message_too_long", frame.Code)

	frame, ok = ToFrame(event.NewInfo("hi"))
	req.True(ok)
	req.Equal(InfoFrame, frame.Type)
	req.Empty(frame.Code)

	frame, ok = ToFrame(event.PresenceChanged{Users: []chat.PresenceEntry{
		{Identity: "bob", Name: "Bob", Color: "#ffffff", Language: domain.Language("es")},
	}, At: now})
	req.True(ok)
	req.Equal(PresenceFrame, frame.Type)
	req.Equal([]PresenceUser{{Identity: "bob", Name: "Bob", Color: "#ffffff", Language: "es"}}, frame.Users)
}

func TestSink_Consume_Racing_Close_Never_Claims_A_Lost_Event(t *testing.T) {
	req := require.New(t)

	for i := 0; i < 200; i++ {
		// Given a sink closed and drained while a push is in flight
		sink := NewSink(4)
		result := make(chan error, 1)
		go func() { result <- sink.Consume(context.Background(), event.NewInfo("late")) }()
		sink.Close()
		drained := 0
		for {
			select {
			case <-sink.Events():
				drained++
				continue
			default:
			}
			break
		}
		err := <-result

		// Then an accepted push was either drained or reported as closed
		if err == nil {
			pending := len(sink.Events())
			req.Equal(1, drained+pending, "accepted event must still be reachable by the drain")
		} else {
			req.ErrorIs(err, errors.ErrTransportClosed)
		}
	}
}
