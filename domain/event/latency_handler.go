package event

import (
	"log/slog"
	"time"
)

// LatencyHandler measures the time between reception and end of delivery.
type LatencyHandler struct {
	log              *slog.Logger
	latencyThreshold time.Duration
}

func NewLatencyHandler(log *slog.Logger, latencyThreshold time.Duration) *LatencyHandler {
	return &LatencyHandler{log: log, latencyThreshold: latencyThreshold}
}

func (h *LatencyHandler) Handle(e Event) {
	if payload, ok := e.Payload.(MessageBroadcast); ok {
		leadTime := e.CreatedAt.Sub(payload.ReceivedAt)

		h.log.Debug("telemetry: broadcast latency",
			"message_id", payload.MessageID,
			"sender", payload.Sender,
			"languages", len(payload.Languages),
			"lead_time_ms", leadTime.Milliseconds(),
		)

		if leadTime > h.latencyThreshold {
			h.log.Warn("high latency detected", "message_id", payload.MessageID, "lead_time", leadTime)
		}
	}
}
