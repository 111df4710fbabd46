package websocket

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"fmt"
	"sync"
)

// Sink is the outbound queue of one WebSocket connection.
// Consume is called by the router and the fanout; the write pump of the
// connection is its only reader, so events are written in FIFO order.
type Sink struct {
	out       chan event.DomainEvent
	closed    chan struct{}
	closeOnce sync.Once
}

func NewSink(bufferSize int) *Sink {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Sink{
		out:    make(chan event.DomainEvent, bufferSize),
		closed: make(chan struct{}),
	}
}

// Consume enqueues e, waiting for room until ctx is done.
// A full queue past the deadline means the client stopped reading.
// An event enqueued while the sink was closing may miss the final drain,
// so it is reported as not delivered.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.closed:
		return errors.ErrTransportClosed
	default:
	}
	select {
	case s.out <- e:
		select {
		case <-s.closed:
			return errors.ErrTransportClosed
		default:
			return nil
		}
	case <-s.closed:
		return errors.ErrTransportClosed
	case <-ctx.Done():
		return fmt.Errorf("%v: %w", ctx.Err(), errors.ErrPushTimeout)
	}
}

// Close never blocks and may be called more than once.
func (s *Sink) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *Sink) Closed() <-chan struct{} {
	return s.closed
}

// Backlog reports how many events wait for the write pump.
func (s *Sink) Backlog() (length, capacity int) {
	return len(s.out), cap(s.out)
}

func (s *Sink) Events() <-chan event.DomainEvent {
	return s.out
}
