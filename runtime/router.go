package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
)

type BroadcastState string

const (
	StateReceived   BroadcastState = "RECEIVED"
	StateFiltered   BroadcastState = "FILTERED"
	StateTranslated BroadcastState = "TRANSLATED"
	StateDelivering BroadcastState = "DELIVERING"
	StateDone       BroadcastState = "DONE"
)

// Censor masks dictionary words and returns the words found.
type Censor interface {
	Censor(text string) (string, []string)
}

type passThrough struct{}

func (passThrough) Censor(text string) (string, []string) { return text, nil }

// Router turns one inbound message into per-language outbound messages
// and pushes them to every eligible recipient.
type Router struct {
	log             *slog.Logger
	registry        *Registry
	gate            *moderation.Gate
	dispatcher      *Dispatcher
	censor          Censor
	telemetryChan   chan event.Event
	maxLength       int
	deliveryTimeout time.Duration
}

func NewRouter(log *slog.Logger, registry *Registry, gate *moderation.Gate, dispatcher *Dispatcher,
	censor Censor, telemetryChan chan event.Event, maxLength int, deliveryTimeout time.Duration) *Router {
	if censor == nil {
		censor = passThrough{}
	}
	return &Router{
		log:             log,
		registry:        registry,
		gate:            gate,
		dispatcher:      dispatcher,
		censor:          censor,
		telemetryChan:   telemetryChan,
		maxLength:       maxLength,
		deliveryTimeout: deliveryTimeout,
	}
}

// Validate trims text and checks it against the length limit.
func (r *Router) Validate(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(text); r.maxLength > 0 && n > r.maxLength {
		return "", fmt.Errorf("%d runes, limit %d: %w", n, r.maxLength, errors.ErrMessageTooLong)
	}
	return text, nil
}

// Broadcast delivers msg to everyone online except the sender and anyone on
// either side of a block with the sender. It returns once every push was
// enqueued or failed. Only validation errors are returned: per-recipient
// failures are counted in the report.
// Cancelling ctx does not stop an accepted broadcast: translations and pushes
// are bounded by their own timeouts only, so a sender leaving never turns into
// a push failure for a healthy recipient.
func (r *Router) Broadcast(ctx context.Context, msg chat.InboundMessage) (chat.DeliveryReport, error) {
	ctx = context.WithoutCancel(ctx)
	report := chat.DeliveryReport{MessageID: msg.ID}
	log := r.log.With("message_id", msg.ID, "sender", msg.Sender)

	// RECEIVED
	text, err := r.Validate(msg.Text)
	if err != nil {
		return report, err
	}
	text = r.applyCensor(msg.Sender, text)
	log.Debug("Broadcast state", "state", StateReceived)

	// FILTERED
	snapshot := r.registry.Snapshot()
	byIdentity := lo.SliceToMap(snapshot, func(c Connection) (domain.Identity, Connection) {
		return c.Identity, c
	})
	candidates := lo.Map(snapshot, func(c Connection, _ int) domain.Identity { return c.Identity })
	filtered := r.gate.EligibleRecipients(ctx, msg.Sender, candidates)
	report.SkippedByModeration = filtered.Skipped
	report.ModerationFailures = filtered.Failed
	log.Debug("Broadcast state", "state", StateFiltered, "eligible", len(filtered.Eligible))

	if len(filtered.Eligible) == 0 {
		r.done(msg, report)
		return report, nil
	}
	recipients := lo.Map(filtered.Eligible, func(id domain.Identity, _ int) Connection { return byIdentity[id] })

	// TRANSLATED
	languages := lo.Uniq(lo.Map(recipients, func(c Connection, _ int) domain.Language { return c.Language }))
	slices.Sort(languages)
	report.Languages = languages
	translations := r.dispatcher.TranslateAll(ctx, text, languages)
	log.Debug("Broadcast state", "state", StateTranslated, "languages", len(languages))

	sender, online := byIdentity[msg.Sender]
	senderName, senderColor := msg.Sender.String(), ""
	if online {
		senderName, senderColor = sender.Name, sender.Color
	}
	outbound := make(map[domain.Language]chat.OutboundMessage, len(languages))
	for _, lang := range languages {
		translation := translations[lang]
		outbound[lang] = chat.OutboundMessage{
			MessageID:    msg.ID,
			Sender:       msg.Sender,
			SenderName:   senderName,
			Color:        senderColor,
			Text:         translation.Text,
			Language:     lang,
			Untranslated: translation.Untranslated,
			SentAt:       msg.SentAt,
		}
	}

	// DELIVERING
	log.Debug("Broadcast state", "state", StateDelivering, "recipients", len(recipients))
	var delivered, transportFailures int64
	var wg sync.WaitGroup
	for _, recipient := range recipients {
		out := outbound[recipient.Language]
		if out.Untranslated {
			report.TranslationFallbacks++
		}
		wg.Add(1)
		go func(recipient Connection, out chat.OutboundMessage) {
			defer wg.Done()
			if err := r.push(ctx, recipient, out); err != nil {
				atomic.AddInt64(&transportFailures, 1)
				log.Warn("Push failed, disconnecting recipient", "recipient", recipient.Identity, "error", err)
				r.registry.RemoveHandle(&recipient)
				return
			}
			atomic.AddInt64(&delivered, 1)
		}(recipient, out)
	}
	wg.Wait()

	// DONE
	report.Delivered = int(delivered)
	report.TransportFailures = int(transportFailures)
	r.done(msg, report)
	return report, nil
}

func (r *Router) push(ctx context.Context, recipient Connection, out chat.OutboundMessage) error {
	pushCtx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
	defer cancel()
	return recipient.Transport.Consume(pushCtx, event.MessageDelivered{OutboundMessage: out})
}

func (r *Router) applyCensor(sender domain.Identity, text string) string {
	masked, words := r.censor.Censor(text)
	if len(words) > 0 {
		r.emit(event.New(event.CensorshipHitType, event.Censored{Sender: sender, Words: words}))
	}
	return masked
}

func (r *Router) done(msg chat.InboundMessage, report chat.DeliveryReport) {
	r.log.Debug("Broadcast state", "state", StateDone, "message_id", msg.ID,
		"delivered", report.Delivered, "skipped", report.SkippedByModeration)
	r.emit(event.New(event.MessageBroadcastType, event.MessageBroadcast{
		MessageID:            msg.ID,
		Sender:               msg.Sender,
		ReceivedAt:           msg.SentAt,
		Delivered:            report.Delivered,
		SkippedByModeration:  report.SkippedByModeration,
		ModerationFailures:   report.ModerationFailures,
		TranslationFallbacks: report.TranslationFallbacks,
		TransportFailures:    report.TransportFailures,
		Languages:            report.Languages,
	}))
}

func (r *Router) emit(e event.Event) {
	select {
	case r.telemetryChan <- e:
	default:
		r.log.Debug("Telemetry event lost", "type", e.Type)
	}
}
