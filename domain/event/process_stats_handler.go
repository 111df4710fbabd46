package event

import (
	"chat-relay/errors"
	"chat-relay/observability"
	"fmt"
	"log/slog"
)

type ProcessStatsHandler struct {
	log   *slog.Logger
	stats *observability.RelayStats
}

func NewProcessStatsHandler(log *slog.Logger, stats *observability.RelayStats) *ProcessStatsHandler {
	return &ProcessStatsHandler{log: log, stats: stats}
}

func (h ProcessStatsHandler) Handle(event Event) {
	switch event.Type {
	case ProcessStatsType:
		payload, ok := event.Payload.(ProcessStats)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.stats.RecordProcess(payload.Connections, payload.Cpu, payload.Ram)
		h.log.Debug(fmt.Sprintf("[RELAY] PID %d | CPU %.2f%% | RSS %d MB | CONNECTIONS %d",
			payload.PID, payload.Cpu, payload.Ram/1024/1024, payload.Connections))
	}
}
