package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventFanout pushes relay-wide notices (presence updates) to every live transport.
//
// Delivery is best effort: a slow transport is skipped after sinkTimeout and
// nothing is retried. Chat messages never go through here, the router
// delivers them with its own accounting.
type EventFanout struct {
	log         *slog.Logger
	audience    contract.Audience
	events      chan event.DomainEvent
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, audience contract.Audience,
	events chan event.DomainEvent, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{log: log, audience: audience, events: events, sinkTimeout: sinkTimeout}
}

func (w EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout delivers evt to each transport concurrently and waits for all of them.
func (w EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	var wg sync.WaitGroup
	for _, transport := range w.audience.Transports() {
		wg.Add(1)
		go func(transport contract.Transport) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := transport.Consume(sinkCtx, evt); err != nil {
				w.log.Debug("Fanout skipped a transport", "error", err)
			}
		}(transport)
	}
	wg.Wait()
}
