package event

import (
	"chat-relay/errors"
	"chat-relay/observability"
	"fmt"
	"log/slog"
)

// ChannelCapacityHandler handles events reporting the capacity of channels.
// It warns when a buffered channel is close to full, which means the
// consumer is falling behind and sends are about to block or drop.
// The last fill of every queue is kept in the relay stats.
type ChannelCapacityHandler struct {
	log                  *slog.Logger
	lowCapacityThreshold int
	stats                *observability.RelayStats
}

func NewChannelCapacityHandler(log *slog.Logger, lowCapacityThreshold int,
	stats *observability.RelayStats) *ChannelCapacityHandler {
	return &ChannelCapacityHandler{log: log, lowCapacityThreshold: lowCapacityThreshold, stats: stats}
}

func (h ChannelCapacityHandler) Handle(event Event) {
	switch event.Type {
	case ChannelCapacityType:
		payload, ok := event.Payload.(ChannelCapacity)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.stats.RecordQueue(payload.ChannelName, payload.Length, payload.Capacity)
		h.log.Debug(fmt.Sprintf("Channel %s usage: %d / %d", payload.ChannelName, payload.Length, payload.Capacity))
		if payload.Capacity <= 0 {
			// In case of unbuffered channel
			return
		}
		capacityLeft := payload.Capacity - payload.Length
		if capacityLeft <= h.lowCapacityThreshold {
			h.log.Warn("Channel almost full", "channel", payload.ChannelName, "capacity_left", capacityLeft)
		}
	}
}
