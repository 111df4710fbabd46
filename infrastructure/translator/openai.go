package translator

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const instructions = "You translate chat messages. Translate the user's message into %s (%s). " +
	"Reply with the translation only, keep emojis and names, and do not add quotes or notes."

// OpenAI translates with the Responses API. Timeouts come from the caller's context.
type OpenAI struct {
	client osdk.Client
	model  string
	log    *slog.Logger
}

func NewOpenAI(log *slog.Logger, apiKey, baseURL, model string) (*OpenAI, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai translator")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client: osdk.NewClient(opts...),
		model:  model,
		log:    log.With("component", "translator.openai"),
	}, nil
}

func (o *OpenAI) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	startedAt := time.Now()
	response, err := o.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        o.model,
		Instructions: osdk.String(fmt.Sprintf(instructions, target.Name(), target)),
		Input:        responses.ResponseNewParamsInputUnion{OfString: osdk.String(text)},
	})
	if err != nil {
		o.log.Debug("Translation request failed", "language", target,
			"duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", fmt.Errorf("translate to %s: %w", target, err)
	}

	translated := strings.TrimSpace(response.OutputText())
	if translated == "" {
		return "", fmt.Errorf("translate to %s: %w", target, errors.ErrEmptyTranslation)
	}
	o.log.Debug("Translation completed", "language", target,
		"duration_ms", time.Since(startedAt).Milliseconds())
	return translated, nil
}
