package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"
)

// Dispatcher runs blocking translator calls on a bounded pool.
// Broadcast goroutines share it, so the pool size caps outbound translation
// traffic for the whole process.
type Dispatcher struct {
	log              *slog.Logger
	translator       contract.Translator
	slots            *semaphore.Weighted
	timeout          time.Duration
	telemetryChan    chan event.Event
	skipSameLanguage bool
}

func NewDispatcher(log *slog.Logger, translator contract.Translator, workers int,
	timeout time.Duration, telemetryChan chan event.Event, skipSameLanguage bool) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		log:              log,
		translator:       translator,
		slots:            semaphore.NewWeighted(int64(workers)),
		timeout:          timeout,
		telemetryChan:    telemetryChan,
		skipSameLanguage: skipSameLanguage,
	}
}

type translated struct {
	language    domain.Language
	translation chat.Translation
}

// TranslateAll returns one Translation per distinct language with at most one
// translator call each. It never fails: a failed or late call yields the
// original text flagged as untranslated.
func (d *Dispatcher) TranslateAll(ctx context.Context, text string,
	languages []domain.Language) map[domain.Language]chat.Translation {
	targets := lo.Uniq(languages)
	results := make(map[domain.Language]chat.Translation, len(targets))
	if len(targets) == 0 {
		return results
	}

	source, detected := d.detectSource(text)

	resChan := make(chan translated, len(targets))
	var wg sync.WaitGroup

	for _, lang := range targets {
		if detected && lang == source {
			results[lang] = chat.Translation{Text: text}
			continue
		}
		wg.Add(1)
		go func(lang domain.Language) {
			defer wg.Done()
			resChan <- translated{language: lang, translation: d.translate(ctx, text, lang)}
		}(lang)
	}

	// Goroutine to close channel once terminated
	go func() {
		wg.Wait()
		close(resChan)
	}()

	for res := range resChan {
		results[res.language] = res.translation
	}
	return results
}

// translate waits for a free slot then for the call, both within one budget
// measured from enqueue. A late call keeps its slot until the translator returns
// but its result is dropped.
func (d *Dispatcher) translate(ctx context.Context, text string, lang domain.Language) chat.Translation {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.slots.Acquire(callCtx, 1); err != nil {
		d.fail(lang, err)
		return chat.Fallback(text)
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer d.slots.Release(1)
		out, err := d.translator.Translate(callCtx, text, lang)
		done <- outcome{text: out, err: err}
	}()

	select {
	case <-callCtx.Done():
		d.fail(lang, callCtx.Err())
		return chat.Fallback(text)
	case o := <-done:
		if o.err != nil {
			d.fail(lang, o.err)
			return chat.Fallback(text)
		}
		if strings.TrimSpace(o.text) == "" {
			d.fail(lang, errors.ErrEmptyTranslation)
			return chat.Fallback(text)
		}
		return chat.Translation{Text: o.text}
	}
}

// detectSource reports the source language when detection is reliable enough
// to skip a same-language call.
func (d *Dispatcher) detectSource(text string) (domain.Language, bool) {
	if !d.skipSameLanguage {
		return "", false
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "", false
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", false
	}
	return domain.Language(code), true
}

func (d *Dispatcher) fail(lang domain.Language, err error) {
	timedOut := stdErrors.Is(err, context.DeadlineExceeded)
	d.log.Debug("Translation failed", "language", lang, "timed_out", timedOut, "error", err)
	select {
	case d.telemetryChan <- event.New(event.TranslationFailedType, event.TranslationFailed{
		Language: lang,
		TimedOut: timedOut,
		Reason:   err.Error(),
	}):
	default:
		d.log.Debug("Telemetry event lost", "type", event.TranslationFailedType)
	}
}
