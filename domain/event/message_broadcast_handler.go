package event

import (
	"chat-relay/errors"
	"chat-relay/observability"
	"log/slog"
	"sync"
)

// MessageBroadcastHandler handles events when a broadcast reaches DONE.
// It folds the delivery report into the relay counters.
type MessageBroadcastHandler struct {
	log     *slog.Logger
	mu      sync.Mutex
	counter *Counter
	stats   *observability.RelayStats
}

func NewMessageBroadcastHandler(log *slog.Logger, counter *Counter, stats *observability.RelayStats) *MessageBroadcastHandler {
	return &MessageBroadcastHandler{log: log, counter: counter, stats: stats}
}

func (h *MessageBroadcastHandler) Handle(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch event.Type {
	case MessageBroadcastType:
		payload, ok := event.Payload.(MessageBroadcast)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(MessageBroadcastType)
		h.stats.RecordBroadcast(payload.Delivered, payload.SkippedByModeration,
			payload.ModerationFailures, payload.TranslationFallbacks, payload.TransportFailures)
		if payload.TransportFailures > 0 || payload.ModerationFailures > 0 {
			h.log.Warn("Broadcast partially failed",
				"message_id", payload.MessageID,
				"transport_failures", payload.TransportFailures,
				"moderation_failures", payload.ModerationFailures)
		}
	}
}
