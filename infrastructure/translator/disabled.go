package translator

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
)

// Disabled fails every call, so every recipient gets the original text flagged untranslated.
type Disabled struct{}

func (Disabled) Translate(context.Context, string, domain.Language) (string, error) {
	return "", errors.ErrTranslatorDisabled
}
