package websocket_test

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/event"
	ws "chat-relay/infrastructure/websocket"
	"chat-relay/mocks"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const secret = "a-secret-long-enough-for-hs256-tokens"

type relayFixture struct {
	server       *httptest.Server
	orchestrator *runtime.Orchestrator
	issuer       *auth.TokenIssuer
	directory    *mocks.MockDirectory
	translator   *mocks.MockTranslator
}

func newRelayFixture(t *testing.T) relayFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	directory := mocks.NewMockDirectory(ctrl)
	translator := mocks.NewMockTranslator(ctrl)
	telemetryChan := make(chan event.Event, 100)

	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, telemetryChan, time.Millisecond),
		runtime.NewRegistry(), directory, translator, domain.NewLanguageNormalizer("en", nil), telemetryChan,
		observability.NewRelayStats(log), runtime.Settings{
			MaxMessageLength:   20,
			TranslationWorkers: 2,
			TranslationTimeout: time.Second,
			DeliveryTimeout:    time.Second,
			LookupConcurrency:  4,
			InboxSize:          8,
			BufferSize:         8,
			MetricInterval:     time.Hour,
			CharReplacement:    '*',
		})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = orchestrator.Start(ctx) }()

	issuer := auth.NewTokenIssuer(secret, time.Hour)
	server := ws.NewServer(log, services.NewChatService(orchestrator), 16, time.Second, time.Second, 20)
	httpServer := httptest.NewServer(server.Handler(auth.NewJWTAuthenticator(issuer)))

	t.Cleanup(func() {
		server.Shutdown()
		httpServer.Close()
		cancel()
	})
	return relayFixture{
		server:       httpServer,
		orchestrator: orchestrator,
		issuer:       issuer,
		directory:    directory,
		translator:   translator,
	}
}

func (f relayFixture) dial(t *testing.T, username, lang string) *websocket.Conn {
	t.Helper()
	token, err := f.issuer.Generate(username+"-id", username, []string{"user"})
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + ws.Path + "?lang=" + lang
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	dialer := websocket.Dialer{HandshakeTimeout: time.Second}
	conn, resp, err := dialer.Dial(url, header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil returns the first frame matching accept, skipping the others.
func readUntil(t *testing.T, conn *websocket.Conn, accept func(ws.Frame) bool) ws.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var frame ws.Frame
		require.NoError(t, conn.ReadJSON(&frame))
		if accept(frame) {
			return frame
		}
	}
}

func ofType(frameType ws.FrameType) func(ws.Frame) bool {
	return func(f ws.Frame) bool { return f.Type == frameType }
}

func TestServer_Rejects_Unauthenticated_Handshake(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + ws.Path

	for _, header := range []http.Header{
		nil,
		{"Authorization": []string{"Bearer not-a-jwt"}},
	} {
		// When the handshake carries no valid token
		_, resp, err := websocket.DefaultDialer.Dial(url, header)

		// Then it is refused before the upgrade
		req.ErrorIs(err, websocket.ErrBadHandshake)
		req.Equal(http.StatusUnauthorized, resp.StatusCode)
	}
	// And nobody was registered
	req.Equal(0, f.orchestrator.Registry().Len())
}

func TestServer_Relays_Translated_Message(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.directory.EXPECT().IsBlocked(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	f.translator.EXPECT().Translate(gomock.Any(), "hello", domain.Language("fr")).Return("bonjour", nil)

	// Given alice in English and bob in French
	alice := f.dial(t, "alice", "en")
	readUntil(t, alice, ofType(ws.InfoFrame))
	bob := f.dial(t, "bob", "French")
	readUntil(t, bob, ofType(ws.InfoFrame))
	req.Eventually(func() bool { return f.orchestrator.Registry().Len() == 2 }, time.Second, 10*time.Millisecond)

	// When alice says hello
	req.NoError(alice.WriteMessage(websocket.TextMessage, []byte("hello")))

	// Then bob receives the French version
	frame := readUntil(t, bob, ofType(ws.ChatFrame))
	req.Equal("bonjour", frame.Text)
	req.Equal("fr", frame.Language)
	req.Equal("alice", frame.Sender)
	req.False(frame.Untranslated)
	req.NotEmpty(frame.MessageID)
	req.True(strings.HasPrefix(frame.Color, "#"))
}

func TestServer_Rejected_Frames_Keep_Connection_Open(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	alice := f.dial(t, "alice", "en")
	readUntil(t, alice, ofType(ws.InfoFrame))

	// When alice sends a message over the maximum length
	req.NoError(alice.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("a", 21))))

	// Then she gets an error frame
	frame := readUntil(t, alice, ofType(ws.ErrorFrame))
	req.Equal("message_too_long", frame.Code)

	// When she sends a binary frame
	req.NoError(alice.WriteMessage(websocket.BinaryMessage, []byte{0x01}))
	frame = readUntil(t, alice, ofType(ws.ErrorFrame))
	req.Equal("unsupported_frame", frame.Code)

	// Then the connection still serves commands
	req.NoError(alice.WriteMessage(websocket.TextMessage, []byte("/who")))
	frame = readUntil(t, alice, func(f ws.Frame) bool {
		return f.Type == ws.PresenceFrame && len(f.Users) == 1
	})
	req.Equal("alice", frame.Users[0].Identity)
	req.Equal("en", frame.Users[0].Language)
}

func TestServer_Disconnect_Removes_Connection(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	alice := f.dial(t, "alice", "en")
	readUntil(t, alice, ofType(ws.InfoFrame))
	req.Eventually(func() bool { return f.orchestrator.Registry().Len() == 1 }, time.Second, 10*time.Millisecond)

	// When alice closes her socket
	req.NoError(alice.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	_ = alice.Close()

	// Then she is no longer online
	req.Eventually(func() bool { return f.orchestrator.Registry().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_Reconnect_Closes_Previous_Socket(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	first := f.dial(t, "alice", "en")
	readUntil(t, first, ofType(ws.InfoFrame))

	// When alice connects a second time
	second := f.dial(t, "alice", "fr")
	readUntil(t, second, ofType(ws.InfoFrame))

	// Then the first socket is closed by the server
	req.NoError(first.SetReadDeadline(time.Now().Add(3 * time.Second)))
	var err error
	for err == nil {
		_, _, err = first.ReadMessage()
	}
	req.True(websocket.IsCloseError(err, websocket.CloseNormalClosure))

	// And alice stays online with the new language
	lang, err := f.orchestrator.Registry().LookupLanguage("alice")
	req.NoError(err)
	req.Equal(domain.Language("fr"), lang)
	req.Equal(1, f.orchestrator.Registry().Len())
}
