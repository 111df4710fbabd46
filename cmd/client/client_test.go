package main

import (
	"bytes"
	relayws "chat-relay/infrastructure/websocket"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	at := time.Date(2026, 1, 2, 10, 11, 12, 0, time.Local)
	tests := []struct {
		name  string
		frame relayws.Frame
		want  string
	}{
		{
			"chat",
			relayws.Frame{Type: relayws.ChatFrame, SenderName: "Alice", Text: "bonjour", Timestamp: at},
			"[10:11:12] Alice: bonjour",
		},
		{
			"untranslated chat",
			relayws.Frame{Type: relayws.ChatFrame, SenderName: "Alice", Text: "hello", Untranslated: true, Timestamp: at},
			"[10:11:12] Alice: hello (untranslated)",
		},
		{
			"error",
			relayws.Frame{Type: relayws.ErrorFrame, Code: "message_too_long", Text: "too long", Timestamp: at},
			"[10:11:12] ! too long (message_too_long)",
		},
		{
			"presence",
			relayws.Frame{Type: relayws.PresenceFrame, Timestamp: at, Users: []relayws.PresenceUser{
				{Name: "Alice", Language: "en"}, {Name: "Bob", Language: "fr"},
			}},
			"[10:11:12] online: Alice[en], Bob[fr]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, render(tt.frame, false))
		})
	}
}

func TestRun_Sends_Lines_And_Prints_Frames(t *testing.T) {
	req := require.New(t)
	received := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Given a relay that checks the handshake
		if r.Header.Get("Authorization") != "Bearer token" || r.URL.Query().Get("lang") != "fr" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_ = conn.WriteJSON(relayws.Frame{Type: relayws.InfoFrame, Text: "Welcome, alice!", Timestamp: time.Now()})
		_, data, err := conn.ReadMessage()
		if err == nil {
			received <- string(data)
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer server.Close()

	cfg := Config{
		RelayURL: "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
		Token:    "token",
		Language: "fr",
	}
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// When the user types one line
	err := run(ctx, cfg, strings.NewReader("hello\n"), &out)

	// Then it reaches the relay and the welcome is printed
	req.NoError(err)
	req.Equal("hello", <-received)
	req.Contains(out.String(), "* Welcome, alice!")
}
