package websocket

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/runtime"
	"chat-relay/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// LanguageQueryParam holds the requested target language at connect time.
	LanguageQueryParam = "lang"
	Path               = "/ws"
	minReadLimit       = 64 << 10
)

// Server upgrades authenticated requests and pumps frames between the socket
// and the relay. Each connection owns one read and one write goroutine.
type Server struct {
	log                  *slog.Logger
	chatService          services.IChatService
	upgrader             websocket.Upgrader
	connectionBufferSize int
	writeTimeout         time.Duration
	pingInterval         time.Duration
	readLimit            int64

	mu    sync.Mutex
	sinks map[*Sink]struct{}
}

func NewServer(log *slog.Logger, chatService services.IChatService, connectionBufferSize int,
	writeTimeout, pingInterval time.Duration, maxMessageLength int) *Server {
	return &Server{
		log:         log.With("component", "websocket"),
		chatService: chatService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Admission relies on the bearer token, not on the origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		connectionBufferSize: connectionBufferSize,
		writeTimeout:         writeTimeout,
		pingInterval:         pingInterval,
		readLimit:            readLimit(maxMessageLength),
		sinks:                make(map[*Sink]struct{}),
	}
}

// readLimit leaves room for frames over the maximum length so that they are
// answered with an error frame instead of tearing the socket down.
func readLimit(maxMessageLength int) int64 {
	return max(int64(maxMessageLength)*8, minReadLimit)
}

// Handler serves the WebSocket endpoint behind bearer authentication.
func (s *Server) Handler(authenticator contract.Authenticator) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET "+Path, auth.Interceptor(authenticator, s.log, s))
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":  errors.Code(errors.ErrMissingToken),
			"error": errors.ErrMissingToken.Error(),
		})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		s.log.Warn("Upgrade failed", "identity", principal.Identity, "error", err)
		return
	}

	sink := NewSink(s.connectionBufferSize)
	s.track(sink)
	defer s.untrack(sink)

	written := make(chan struct{})
	go func() {
		defer close(written)
		s.writePump(conn, sink)
	}()

	// The write pump is already draining so welcome frames cannot stall Join
	ctx := r.Context()
	session := s.chatService.Join(ctx, principal, r.URL.Query().Get(LanguageQueryParam), sink)
	s.readPump(ctx, conn, sink, session)

	s.chatService.Leave(session)
	sink.Close()
	<-written
}

// Shutdown asks every open connection to close.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sink := range s.sinks {
		sink.Close()
	}
}

func (s *Server) track(sink *Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks[sink] = struct{}{}
}

func (s *Server) untrack(sink *Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sinks, sink)
}

func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, sink *Sink, session *runtime.Session) {
	log := s.log.With("identity", session.Identity())
	pongWait := 2 * s.pingInterval

	conn.SetReadLimit(s.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("Connection lost", "error", err)
			} else {
				log.Debug("Connection closed", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if messageType != websocket.TextMessage {
			s.reject(ctx, sink, errors.ErrBinaryFrame)
			continue
		}
		if err := session.Submit(ctx, string(data)); err != nil {
			log.Debug("Session is gone, dropping frame", "error", err)
			return
		}
	}
}

func (s *Server) reject(ctx context.Context, sink *Sink, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	_ = sink.Consume(ctx, event.NewError(errors.Code(err), err.Error()))
}

// writePump is the only writer of data frames on conn. It closes conn on
// return, which also ends the read pump.
func (s *Server) writePump(conn *websocket.Conn, sink *Sink) {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case e := <-sink.Events():
			if err := s.write(conn, e); err != nil {
				s.log.Warn("Write failed, closing connection", "error", err)
				sink.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout)); err != nil {
				s.log.Debug("Ping failed, closing connection", "error", err)
				sink.Close()
				return
			}
		case <-sink.Closed():
			s.drain(conn, sink)
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.writeTimeout),
			)
			return
		}
	}
}

// drain flushes what was queued before the sink closed.
func (s *Server) drain(conn *websocket.Conn, sink *Sink) {
	for {
		select {
		case e := <-sink.Events():
			if err := s.write(conn, e); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, e event.DomainEvent) error {
	frame, ok := ToFrame(e)
	if !ok {
		s.log.Debug("Event has no frame, skipping", "event", e)
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return conn.WriteJSON(frame)
}
