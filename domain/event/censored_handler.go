package event

import (
	"chat-relay/errors"
	"chat-relay/observability"
	"log/slog"
	"sync"
)

// CensoredHandler counts masked words, globally and per word.
type CensoredHandler struct {
	mu      sync.Mutex
	log     *slog.Logger
	stats   *observability.RelayStats
	counter uint64
	hit     map[string]uint64
}

func NewCensoredHandler(log *slog.Logger, stats *observability.RelayStats) *CensoredHandler {
	return &CensoredHandler{
		log:     log,
		stats:   stats,
		counter: 0,
		hit:     make(map[string]uint64),
	}
}

func (h *CensoredHandler) Handle(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch event.Type {
	case CensorshipHitType:
		payload, ok := event.Payload.(Censored)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		for _, word := range payload.Words {
			h.counter++
			h.hit[word]++
		}
		h.stats.AddCensorshipHits(len(payload.Words))
		h.log.Debug("Censored words masked", "sender", payload.Sender, "count", len(payload.Words), "total", h.counter)
	}
}

// Hits returns how many times word has been masked.
func (h *CensoredHandler) Hits(word string) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hit[word]
}
