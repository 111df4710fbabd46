// Package runtime owns who is online and how a message reaches them.
// It wires registry, moderation, translation and delivery without holding business rules
// about accounts or storage.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/runtime/workers"
	"context"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Settings tunes the orchestrator and the workers it starts.
type Settings struct {
	MaxMessageLength     int
	TranslationWorkers   int
	TranslationTimeout   time.Duration
	SkipSameLanguage     bool
	DeliveryTimeout      time.Duration
	LookupConcurrency    int
	InboxSize            int
	BufferSize           int
	MetricInterval       time.Duration
	LatencyThreshold     time.Duration
	LowCapacityThreshold int
	CensorEnabled        bool
	CensoredWordsDir     string
	CharReplacement      rune
}

type Orchestrator struct {
	log           *slog.Logger
	supervisor    contract.ISupervisor
	registry      *Registry
	router        *Router
	directory     contract.Directory
	normalizer    *domain.LanguageNormalizer
	censor        *moderation.Holder
	stats         *observability.RelayStats
	telemetryChan chan event.Event
	presenceChan  chan event.DomainEvent
	settings      Settings
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry,
	directory contract.Directory, translator contract.Translator, normalizer *domain.LanguageNormalizer,
	telemetryChan chan event.Event, stats *observability.RelayStats, settings Settings) *Orchestrator {
	censor := moderation.NewHolder(nil)
	gate := moderation.NewGate(directory, log.With("component", "gate"), settings.LookupConcurrency)
	dispatcher := NewDispatcher(log.With("component", "dispatcher"), translator, settings.TranslationWorkers,
		settings.TranslationTimeout, telemetryChan, settings.SkipSameLanguage)
	router := NewRouter(log.With("component", "router"), registry, gate, dispatcher, censor, telemetryChan,
		settings.MaxMessageLength, settings.DeliveryTimeout)

	return &Orchestrator{
		log:           log,
		supervisor:    supervisor,
		registry:      registry,
		router:        router,
		directory:     directory,
		normalizer:    normalizer,
		censor:        censor,
		stats:         stats,
		telemetryChan: telemetryChan,
		presenceChan:  make(chan event.DomainEvent, max(settings.BufferSize, 1)),
		settings:      settings,
	}
}

// Start loads the censor and runs the supervised workers until ctx is done or Stop is called.
// Heavy preparation happens before any worker is registered.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.settings.CensorEnabled {
		moderator, err := o.prepareModeration()
		if err != nil {
			return err
		}
		o.censor.Swap(moderator)
	}

	o.supervisor.Add(o.prepareWorkers()...)

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// prepareModeration builds the automaton from CensoredWordsDir when set,
// from the embedded dictionaries otherwise.
func (o *Orchestrator) prepareModeration() (*moderation.Moderator, error) {
	if o.settings.CensoredWordsDir != "" {
		return o.buildModerator(os.DirFS(o.settings.CensoredWordsDir), ".")
	}
	return o.buildModerator(EmbeddedCensored, EmbeddedCensoredDir)
}

func (o *Orchestrator) buildModerator(fsys fs.FS, dir string) (*moderation.Moderator, error) {
	data, err := NewCensoredLoader(fsys).LoadAll(dir)
	if err != nil {
		return nil, fmt.Errorf("loading censored words: %w", err)
	}
	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))
	return moderation.NewModerator(data.Words, o.settings.CharReplacement, o.log.With("component", "moderator"))
}

func (o *Orchestrator) prepareWorkers() []contract.Worker {
	counter := event.NewCounter()
	handlers := []event.Handler{
		event.NewMessageBroadcastHandler(o.log, counter, o.stats),
		event.NewLatencyHandler(o.log, o.settings.LatencyThreshold),
		event.NewTranslationFailedHandler(o.log, counter, o.stats),
		event.NewCensoredHandler(o.log, o.stats),
		event.NewConnectionHandler(o.log, o.stats),
		event.NewChannelCapacityHandler(o.log, o.settings.LowCapacityThreshold, o.stats),
		event.NewWorkerRestartedAfterPanicHandler(o.log, counter, o.stats),
		event.NewProcessStatsHandler(o.log, o.stats),
	}

	res := []contract.Worker{
		workers.NewTelemetryWorker(o.log, o.settings.MetricInterval, o.telemetryChan, handlers, o.stats),
		workers.NewChannelCapacityWorker(o.log, []workers.Gauge{
			workers.ChannelGauge("telemetry", o.telemetryChan),
			workers.ChannelGauge("presence", o.presenceChan),
		}, o.registry, o.telemetryChan, o.settings.MetricInterval),
		workers.NewProcessStatsWorker(o.log, o.registry, o.telemetryChan, o.settings.MetricInterval),
		workers.NewEventFanout(o.log, o.registry, o.presenceChan, o.settings.DeliveryTimeout),
	}

	if o.settings.CensorEnabled && o.settings.CensoredWordsDir != "" {
		res = append(res, workers.NewCensorReloadWorker(o.log, o.settings.CensoredWordsDir, o.censor,
			func(dir string) (*moderation.Moderator, error) {
				return o.buildModerator(os.DirFS(dir), ".")
			}, 0))
	}
	return res
}

// Stop cancels the supervised workers. Live sessions end with their transports.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// Join registers an authenticated participant and starts handling its frames.
// A participant already online under the same identity is replaced and its
// transport closed before the new one can receive anything.
func (o *Orchestrator) Join(ctx context.Context, principal domain.Principal, rawLanguage string,
	transport contract.Transport) *Session {
	language, recognized := o.normalizer.Normalize(rawLanguage)
	conn, replaced := o.registry.Add(principal.Identity, principal.DisplayName(), language, transport)

	log := o.log.With("identity", conn.Identity, "language", conn.Language)
	if replaced {
		log.Info("Participant reconnected, previous connection closed")
	} else {
		log.Info("Participant joined")
	}
	o.emit(event.New(event.ConnectionOpenedType, event.ConnectionChanged{
		Identity: conn.Identity,
		Language: conn.Language,
		Replaced: replaced,
	}))

	session := newSession(ctx, conn, o.settings.InboxSize)
	go o.serve(session)

	o.welcome(ctx, session, rawLanguage, recognized)
	o.publishPresence()
	return session
}

// Leave stops the session and removes its connection unless a reconnect already
// replaced it. Safe to call more than once.
func (o *Orchestrator) Leave(session *Session) {
	session.leaveOnce.Do(func() {
		session.cancel()
		removed := o.registry.RemoveHandle(session.conn)
		current, online := o.registry.Lookup(session.conn.Identity)
		if !removed && online && current.Handle != session.conn.Handle {
			// Replaced by a reconnect: the new session owns presence
			return
		}
		o.log.Info("Participant left", "identity", session.conn.Identity)
		o.emit(event.New(event.ConnectionClosedType, event.ConnectionChanged{
			Identity: session.conn.Identity,
			Language: session.conn.Language,
		}))
		o.publishPresence()
	})
}

// serve handles the frames of one session in arrival order.
// Frames run on a context detached from the session: a sender leaving must not
// cut short the broadcast of what it already sent. Translation and delivery
// budgets bound that work. A panic ends this session only.
func (o *Orchestrator) serve(session *Session) {
	defer close(session.done)
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Session crashed", "identity", session.conn.Identity,
				"error", fmt.Errorf("%v: %w", r, errors.ErrWorkerPanic))
			session.cancel()
			session.stop()
			o.Leave(session)
		}
	}()

	work := context.WithoutCancel(session.ctx)
	for {
		select {
		case <-session.ctx.Done():
			pending := session.stop()
			if len(pending) > 0 {
				o.log.Debug("Handling frames queued before leave", "identity", session.conn.Identity,
					"pending", len(pending))
			}
			for _, text := range pending {
				o.handle(work, session, text)
			}
			return
		case text := <-session.inbox:
			o.handle(work, session, text)
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, session *Session, text string) {
	if chat.IsCommand(text) {
		o.handleCommand(ctx, session, text)
		return
	}
	report, err := o.router.Broadcast(ctx, chat.NewInboundMessage(session.conn.Identity, text))
	if err != nil {
		o.notify(ctx, session, event.NewError(errors.Code(err), err.Error()))
		return
	}
	o.log.Debug("Message broadcast", "message_id", report.MessageID, "delivered", report.Delivered)
}

func (o *Orchestrator) handleCommand(ctx context.Context, session *Session, text string) {
	cmd, err := chat.ParseCommand(text)
	if err != nil {
		o.notify(ctx, session, event.NewError(errors.Code(err), err.Error()))
		return
	}

	switch c := cmd.(type) {
	case chat.ChangeLanguageCommand:
		o.changeLanguage(ctx, session, c)
	case chat.ReportCommand:
		o.report(ctx, session, c)
	case chat.WhoCommand:
		o.notify(ctx, session, event.PresenceChanged{Users: o.presence(), At: time.Now().UTC()})
	}
}

func (o *Orchestrator) changeLanguage(ctx context.Context, session *Session, cmd chat.ChangeLanguageCommand) {
	language, ok := o.normalizer.Normalize(cmd.Language)
	if !ok {
		supported := lo.Map(o.normalizer.Supported(), func(l domain.Language, _ int) string { return l.String() })
		o.notify(ctx, session, event.NewError(errors.Code(errors.ErrInvalidCommand),
			fmt.Sprintf("unsupported language %q, choose one of %s", cmd.Language, strings.Join(supported, ", "))))
		return
	}
	if err := o.registry.SetLanguage(session.conn.Identity, language); err != nil {
		o.notify(ctx, session, event.NewError(errors.Code(err), err.Error()))
		return
	}
	o.notify(ctx, session, event.NewInfo(fmt.Sprintf("Messages will now be translated to %s (%s).",
		language.Name(), language)))
	o.publishPresence()
}

func (o *Orchestrator) report(ctx context.Context, session *Session, cmd chat.ReportCommand) {
	if cmd.Reported == session.conn.Identity {
		o.notify(ctx, session, event.NewError(errors.Code(errors.ErrCannotReportSelf), errors.ErrCannotReportSelf.Error()))
		return
	}
	report := chat.NewReport(session.conn.Identity, cmd.Reported, cmd.Reason, nil)
	if err := o.directory.RecordReport(ctx, report); err != nil {
		o.log.Error("Report not recorded", "reporter", report.Reporter, "reported", report.Reported, "error", err)
		o.notify(ctx, session, event.NewError(errors.Code(err), "report could not be recorded"))
		return
	}
	o.notify(ctx, session, event.NewInfo(fmt.Sprintf("Report against %s recorded.", cmd.Reported)))
}

func (o *Orchestrator) welcome(ctx context.Context, session *Session, rawLanguage string, recognized bool) {
	conn := session.conn
	o.notify(ctx, session, event.NewInfo(fmt.Sprintf("Welcome, %s!", conn.Name)))
	if !recognized && strings.TrimSpace(rawLanguage) != "" {
		o.notify(ctx, session, event.NewInfo(fmt.Sprintf("Unknown language %q, using %s (%s).",
			rawLanguage, conn.Language.Name(), conn.Language)))
	}
	o.notify(ctx, session, event.NewInfo(fmt.Sprintf("Messages will be translated to %s (%s).",
		conn.Language.Name(), conn.Language)))
	o.notify(ctx, session, event.NewInfo(
		"Commands: /lang <language>, /who, /report <user> <reason>."))
}

// notify pushes a notice to the session's own transport only.
func (o *Orchestrator) notify(ctx context.Context, session *Session, e event.DomainEvent) {
	pushCtx, cancel := context.WithTimeout(ctx, o.settings.DeliveryTimeout)
	defer cancel()
	if err := session.conn.Transport.Consume(pushCtx, e); err != nil {
		if !stdErrors.Is(err, errors.ErrTransportClosed) {
			o.log.Warn("Notice not delivered", "identity", session.conn.Identity, "error", err)
		}
	}
}

func (o *Orchestrator) presence() []chat.PresenceEntry {
	return lo.Map(o.registry.Snapshot(), func(c Connection, _ int) chat.PresenceEntry {
		return chat.PresenceEntry{Identity: c.Identity, Name: c.Name, Color: c.Color, Language: c.Language}
	})
}

func (o *Orchestrator) publishPresence() {
	select {
	case o.presenceChan <- event.PresenceChanged{Users: o.presence(), At: time.Now().UTC()}:
	default:
		o.log.Warn("Presence channel full, dropping update")
	}
}

func (o *Orchestrator) emit(e event.Event) {
	select {
	case o.telemetryChan <- e:
	default:
		o.log.Debug("Telemetry event lost", "type", e.Type)
	}
}

func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

func (o *Orchestrator) Stats() *observability.RelayStats {
	return o.stats
}
