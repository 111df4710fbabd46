package event

import (
	"chat-relay/errors"
	"chat-relay/observability"
	"log/slog"
)

type ConnectionHandler struct {
	log   *slog.Logger
	stats *observability.RelayStats
}

func NewConnectionHandler(log *slog.Logger, stats *observability.RelayStats) *ConnectionHandler {
	return &ConnectionHandler{log: log, stats: stats}
}

func (h ConnectionHandler) Handle(event Event) {
	switch event.Type {
	case ConnectionOpenedType, ConnectionClosedType:
		payload, ok := event.Payload.(ConnectionChanged)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		if event.Type == ConnectionOpenedType {
			h.stats.IncrConnectionsOpened()
			h.log.Debug("Connection opened", "identity", payload.Identity, "language", payload.Language, "replaced", payload.Replaced)
			return
		}
		h.stats.IncrConnectionsClosed()
		h.log.Debug("Connection closed", "identity", payload.Identity)
	}
}
