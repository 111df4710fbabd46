package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"sync"
)

// Session is the inbound side of one connection. Frames submitted to it are
// handled one at a time, in order, by a goroutine owned by the orchestrator.
// Every frame accepted by Submit is handled, even when the participant
// leaves before its turn comes.
type Session struct {
	conn      *Connection
	inbox     chan string
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	leaveOnce sync.Once

	// mu orders Submit against the final drain: once stopped is set no frame
	// can enter the inbox anymore.
	mu      sync.RWMutex
	stopped bool
}

func newSession(parent context.Context, conn *Connection, inboxSize int) *Session {
	if inboxSize <= 0 {
		inboxSize = 1
	}
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		conn:   conn,
		inbox:  make(chan string, inboxSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (s *Session) Identity() domain.Identity {
	return s.conn.Identity
}

func (s *Session) Connection() Connection {
	return *s.conn
}

// Submit queues a text frame. It blocks while the inbox is full, so a client
// sending faster than its messages are broadcast is slowed down, never reordered.
// A nil error means the frame will be handled.
func (s *Session) Submit(ctx context.Context, text string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return errors.ErrTransportClosed
	}
	select {
	case s.inbox <- text:
		return nil
	case <-s.ctx.Done():
		return errors.ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop refuses further frames and returns those still queued, in order.
// It waits for Submit calls in flight, which give up once the session is cancelled.
func (s *Session) stop() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	var pending []string
	for {
		select {
		case text := <-s.inbox:
			pending = append(pending, text)
		default:
			return pending
		}
	}
}

// Done is closed once the session stopped handling frames.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
