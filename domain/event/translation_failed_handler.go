package event

import (
	"chat-relay/errors"
	"chat-relay/observability"
	"log/slog"
)

type TranslationFailedHandler struct {
	log     *slog.Logger
	counter *Counter
	stats   *observability.RelayStats
}

func NewTranslationFailedHandler(log *slog.Logger, counter *Counter, stats *observability.RelayStats) *TranslationFailedHandler {
	return &TranslationFailedHandler{log: log, counter: counter, stats: stats}
}

func (h *TranslationFailedHandler) Handle(event Event) {
	switch event.Type {
	case TranslationFailedType:
		payload, ok := event.Payload.(TranslationFailed)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(TranslationFailedType)
		h.stats.IncrTranslationFailures()
		h.log.Warn("Translation fell back to original text",
			"language", payload.Language,
			"timed_out", payload.TimedOut,
			"reason", payload.Reason)
	}
}
