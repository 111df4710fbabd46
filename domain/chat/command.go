package chat

import (
	"fmt"
	"strings"

	"chat-relay/domain"
	"chat-relay/errors"
)

const commandPrefix = "/"

// Command is an in-band instruction typed by a participant instead of a message.
type Command interface {
	Name() string
}

// ChangeLanguageCommand switches the caller's target language.
type ChangeLanguageCommand struct {
	Language string
}

func (ChangeLanguageCommand) Name() string { return "lang" }

// ReportCommand files a report against another participant.
type ReportCommand struct {
	Reported domain.Identity
	Reason   string
}

func (ReportCommand) Name() string { return "report" }

// WhoCommand asks for the presence list.
type WhoCommand struct{}

func (WhoCommand) Name() string { return "who" }

// IsCommand reports whether a trimmed frame is a command rather than a message.
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), commandPrefix)
}

// ParseCommand decodes "/lang fr", "/report bob spamming" or "/who".
func ParseCommand(text string) (Command, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(text), commandPrefix))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command: %w", errors.ErrUnknownCommand)
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "lang", "language":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: /lang <code>: %w", errors.ErrInvalidCommand)
		}
		return ChangeLanguageCommand{Language: args[0]}, nil
	case "report":
		if len(args) < 2 {
			return nil, fmt.Errorf("usage: /report <identity> <reason>: %w", errors.ErrInvalidCommand)
		}
		return ReportCommand{
			Reported: domain.Identity(args[0]),
			Reason:   strings.Join(args[1:], " "),
		}, nil
	case "who":
		return WhoCommand{}, nil
	default:
		return nil, fmt.Errorf("/%s: %w", name, errors.ErrUnknownCommand)
	}
}
