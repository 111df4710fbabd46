package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrEmptyWords      = fmt.Errorf("no words have been found")
	ErrInvalidPayload  = fmt.Errorf("invalid event payload")
	ErrOnlyCensorFiles = fmt.Errorf("censored directory contains directories")

	// Admission
	ErrMissingToken     = fmt.Errorf("authorization token is missing")
	ErrInvalidToken     = fmt.Errorf("invalid or expired token")
	ErrTokenGeneration  = fmt.Errorf("token generation failed")
	ErrInvalidHandshake = fmt.Errorf("malformed handshake")

	// Protocol
	ErrEmptyMessage   = fmt.Errorf("message is empty")
	ErrMessageTooLong = fmt.Errorf("message exceeds maximum length")
	ErrUnknownCommand = fmt.Errorf("unknown command")
	ErrInvalidCommand = fmt.Errorf("invalid command arguments")
	ErrBinaryFrame    = fmt.Errorf("only text frames are accepted")

	// Registry & transport
	ErrConnectionNotFound = fmt.Errorf("connection not found")
	ErrTransportClosed    = fmt.Errorf("transport closed")
	ErrPushTimeout        = fmt.Errorf("push timed out")

	// Translation
	ErrTranslatorDisabled = fmt.Errorf("translator disabled")
	ErrEmptyTranslation   = fmt.Errorf("translator returned no text")

	// Directory & accounts
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrCannotBlockSelf    = fmt.Errorf("cannot block yourself")
	ErrCannotReportSelf   = fmt.Errorf("cannot report yourself")
)

// Code maps an error to the code carried by an error frame.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, ErrMessageTooLong):
		return "message_too_long"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, ErrInvalidCommand):
		return "invalid_command"
	case errors.Is(err, ErrBinaryFrame):
		return "unsupported_frame"
	case errors.Is(err, ErrCannotReportSelf):
		return "cannot_report_self"
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidHandshake):
		return "bad_handshake"
	default:
		return "internal"
	}
}
