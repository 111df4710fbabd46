package main

import (
	"bufio"
	relayws "chat-relay/infrastructure/websocket"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

const writeTimeout = 5 * time.Second

// run connects, prints every frame on out and sends each line of in.
// It returns when the server closes, in is exhausted, or ctx is done.
func run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	target, err := url.Parse(cfg.RelayURL)
	if err != nil {
		return fmt.Errorf("invalid relay url: %w", err)
	}
	query := target.Query()
	query.Set(relayws.LanguageQueryParam, cfg.Language)
	target.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{"Authorization": []string{"Bearer " + cfg.Token}}
	conn, resp, err := dialer.DialContext(ctx, target.String(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("handshake refused with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial %s: %w", target.Redacted(), err)
	}
	defer func() { _ = conn.Close() }()

	readDone := make(chan error, 1)
	go func() {
		readDone <- readLoop(conn, out, cfg.Colours)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			closeGracefully(conn)
			return nil
		case err := <-readDone:
			return err
		case line, ok := <-lines:
			if !ok {
				closeGracefully(conn)
				return <-readDone
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

func readLoop(conn *websocket.Conn, out io.Writer, colours bool) error {
	for {
		var frame relayws.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		fmt.Fprintln(out, render(frame, colours))
	}
}

func closeGracefully(conn *websocket.Conn) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
}

// render turns a frame into one terminal line.
func render(frame relayws.Frame, colours bool) string {
	at := frame.Timestamp.Local().Format("15:04:05")
	switch frame.Type {
	case relayws.ChatFrame:
		name := frame.SenderName
		if colours && frame.Color != "" {
			name = color.HEX(frame.Color).Sprint(name)
		}
		suffix := ""
		if frame.Untranslated {
			suffix = " (untranslated)"
		}
		return fmt.Sprintf("[%s] %s: %s%s", at, name, frame.Text, suffix)
	case relayws.InfoFrame:
		return paint(colours, color.Cyan, fmt.Sprintf("[%s] * %s", at, frame.Text))
	case relayws.ErrorFrame:
		return paint(colours, color.Red, fmt.Sprintf("[%s] ! %s (%s)", at, frame.Text, frame.Code))
	case relayws.PresenceFrame:
		names := lo.Map(frame.Users, func(u relayws.PresenceUser, _ int) string {
			return fmt.Sprintf("%s[%s]", u.Name, u.Language)
		})
		return paint(colours, color.Gray, fmt.Sprintf("[%s] online: %s", at, strings.Join(names, ", ")))
	default:
		return fmt.Sprintf("[%s] unknown frame %q", at, frame.Type)
	}
}

func paint(colours bool, c color.Color, text string) string {
	if !colours {
		return text
	}
	return c.Sprint(text)
}
