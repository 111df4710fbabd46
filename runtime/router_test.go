package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/moderation"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recordingTransport keeps every pushed event in order.
type recordingTransport struct {
	mu     sync.Mutex
	events []event.DomainEvent
	fail   error
	closed int
}

func (r *recordingTransport) Consume(_ context.Context, e event.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingTransport) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
}

func (r *recordingTransport) messages() []chat.OutboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []chat.OutboundMessage
	for _, e := range r.events {
		if m, ok := e.(event.MessageDelivered); ok {
			res = append(res, m.OutboundMessage)
		}
	}
	return res
}

type blockList map[[2]domain.Identity]bool

func (b blockList) directory(ctrl *gomock.Controller) *mocks.MockDirectory {
	directory := mocks.NewMockDirectory(ctrl)
	directory.EXPECT().IsBlocked(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, blocker, blocked domain.Identity) (bool, error) {
			return b[[2]domain.Identity{blocker, blocked}], nil
		}).AnyTimes()
	return directory
}

type routerFixture struct {
	registry      *Registry
	router        *Router
	translator    *mocks.MockTranslator
	telemetryChan chan event.Event
}

func newRouterFixture(t *testing.T, ctrl *gomock.Controller, blocks blockList,
	translationTimeout time.Duration, censor Censor) routerFixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry()
	translator := mocks.NewMockTranslator(ctrl)
	telemetryChan := make(chan event.Event, 100)
	gate := moderation.NewGate(blocks.directory(ctrl), log, 4)
	dispatcher := NewDispatcher(log, translator, 4, translationTimeout, telemetryChan, false)
	router := NewRouter(log, registry, gate, dispatcher, censor, telemetryChan, 50, time.Second)
	return routerFixture{registry: registry, router: router, translator: translator, telemetryChan: telemetryChan}
}

func TestRouter_Scenario_Block_And_Shared_Language(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	// Given A (en), B (fr), C (fr) are online and A blocked C
	f := newRouterFixture(t, ctrl, blockList{{"A", "C"}: true}, time.Second, nil)
	a, b, c := &recordingTransport{}, &recordingTransport{}, &recordingTransport{}
	f.registry.Add("A", "Alice", "en", a)
	f.registry.Add("B", "Bruno", "fr", b)
	f.registry.Add("C", "Chloe", "fr", c)

	// Then French is translated exactly once
	f.translator.EXPECT().Translate(gomock.Any(), "hello", domain.Language("fr")).Return("bonjour", nil).Times(1)

	// When A says hello
	msg := chat.NewInboundMessage("A", "hello")
	report, err := f.router.Broadcast(context.Background(), msg)

	// Then B receives the French text, C and A receive nothing
	req.NoError(err)
	req.Equal(1, report.Delivered)
	req.Equal(1, report.SkippedByModeration)
	req.Equal([]domain.Language{"fr"}, report.Languages)

	received := b.messages()
	req.Len(received, 1)
	req.Equal("bonjour", received[0].Text)
	req.Equal(domain.Language("fr"), received[0].Language)
	req.Equal("Alice", received[0].SenderName)
	req.Equal(msg.ID, received[0].MessageID)
	req.False(received[0].Untranslated)
	req.Empty(c.messages())
	req.Empty(a.messages())
}

func TestRouter_Scenario_Translation_Timeout_Falls_Back(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	// Given A (en), B (fr), C (fr) with no blocks and a slow French translation
	f := newRouterFixture(t, ctrl, blockList{}, 50*time.Millisecond, nil)
	a, b, c := &recordingTransport{}, &recordingTransport{}, &recordingTransport{}
	f.registry.Add("A", "Alice", "en", a)
	f.registry.Add("B", "Bruno", "fr", b)
	f.registry.Add("C", "Chloe", "fr", c)

	f.translator.EXPECT().Translate(gomock.Any(), "hello", domain.Language("fr")).
		DoAndReturn(func(ctx context.Context, text string, lang domain.Language) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}).Times(1)

	// When A says hello
	report, err := f.router.Broadcast(context.Background(), chat.NewInboundMessage("A", "hello"))

	// Then no error reaches A and both French speakers get the literal text
	req.NoError(err)
	req.Equal(2, report.Delivered)
	req.Equal(2, report.TranslationFallbacks)
	for _, transport := range []*recordingTransport{b, c} {
		received := transport.messages()
		req.Len(received, 1)
		req.Equal("hello", received[0].Text)
		req.True(received[0].Untranslated)
	}
	req.Empty(a.messages())
}

func TestRouter_No_Self_Delivery(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	f := newRouterFixture(t, ctrl, blockList{}, time.Second, nil)
	a := &recordingTransport{}
	f.registry.Add("A", "Alice", "en", a)

	// When A is alone
	report, err := f.router.Broadcast(context.Background(), chat.NewInboundMessage("A", "anyone?"))

	// Then nothing is translated nor delivered
	req.NoError(err)
	req.Zero(report.Delivered)
	req.Empty(report.Languages)
	req.Empty(a.messages())

	// And a DONE event is still emitted
	evt := <-f.telemetryChan
	req.Equal(event.MessageBroadcastType, evt.Type)
}

func TestRouter_Rejects_Invalid_Text(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	f := newRouterFixture(t, ctrl, blockList{}, time.Second, nil)
	b := &recordingTransport{}
	f.registry.Add("A", "Alice", "en", &recordingTransport{})
	f.registry.Add("B", "Bruno", "fr", b)

	_, err := f.router.Broadcast(context.Background(), chat.NewInboundMessage("A", "   "))
	req.ErrorIs(err, errors.ErrEmptyMessage)

	_, err = f.router.Broadcast(context.Background(), chat.NewInboundMessage("A", strings.Repeat("é", 51)))
	req.ErrorIs(err, errors.ErrMessageTooLong)

	// Exactly at the limit is accepted
	f.translator.EXPECT().Translate(gomock.Any(), gomock.Any(), domain.Language("fr")).Return("ok", nil)
	_, err = f.router.Broadcast(context.Background(), chat.NewInboundMessage("A", strings.Repeat("é", 50)))
	req.NoError(err)
	req.Len(b.messages(), 1)
}

func TestRouter_Transport_Failure_Disconnects_Only_That_Recipient(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	f := newRouterFixture(t, ctrl, blockList{}, time.Second, nil)
	b := &recordingTransport{fail: errors.ErrPushTimeout}
	c := &recordingTransport{}
	f.registry.Add("A", "Alice", "en", &recordingTransport{})
	f.registry.Add("B", "Bruno", "es", b)
	f.registry.Add("C", "Chloe", "es", c)

	f.translator.EXPECT().Translate(gomock.Any(), "hello", domain.Language("es")).Return("hola", nil)

	report, err := f.router.Broadcast(context.Background(), chat.NewInboundMessage("A", "hello"))

	req.NoError(err)
	req.Equal(1, report.Delivered)
	req.Equal(1, report.TransportFailures)
	req.Len(c.messages(), 1)

	// Then B is gone and its transport closed once
	_, online := f.registry.Lookup("B")
	req.False(online)
	req.Equal(1, b.closed)
	req.Equal(2, f.registry.Len())
}

func TestRouter_Censors_Before_Translation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*', logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	f := newRouterFixture(t, ctrl, blockList{}, time.Second, moderation.NewHolder(moderator))
	b := &recordingTransport{}
	f.registry.Add("A", "Alice", "en", &recordingTransport{})
	f.registry.Add("B", "Bruno", "fr", b)

	// Then the translator only sees the masked text
	f.translator.EXPECT().Translate(gomock.Any(), "you ******", domain.Language("fr")).Return("toi ******", nil)

	_, err = f.router.Broadcast(context.Background(), chat.NewInboundMessage("A", "you badger"))
	req.NoError(err)
	req.Equal("toi ******", b.messages()[0].Text)

	var types []event.Type
	for len(f.telemetryChan) > 0 {
		types = append(types, (<-f.telemetryChan).Type)
	}
	req.Contains(types, event.CensorshipHitType)
}

func TestRouter_Preserves_Per_Sender_Order(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	f := newRouterFixture(t, ctrl, blockList{}, time.Second, nil)
	b := &recordingTransport{}
	f.registry.Add("A", "Alice", "en", &recordingTransport{})
	f.registry.Add("B", "Bruno", "fr", b)

	// Given translations of varying latency
	f.translator.EXPECT().Translate(gomock.Any(), gomock.Any(), domain.Language("fr")).
		DoAndReturn(func(ctx context.Context, text string, lang domain.Language) (string, error) {
			if strings.HasSuffix(text, "0") {
				time.Sleep(20 * time.Millisecond)
			}
			return "fr:" + text, nil
		}).Times(10)

	// When A sends ten messages in a row
	for i := 0; i < 10; i++ {
		_, err := f.router.Broadcast(context.Background(), chat.NewInboundMessage("A", fmt.Sprintf("msg %d", i)))
		req.NoError(err)
	}

	// Then B receives them in send order
	received := b.messages()
	req.Len(received, 10)
	for i, m := range received {
		req.Equal(fmt.Sprintf("fr:msg %d", i), m.Text)
	}
}

func TestRouter_Late_Joiner_Not_In_Snapshot(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	f := newRouterFixture(t, ctrl, blockList{}, time.Second, nil)
	b := &recordingTransport{}
	late := &recordingTransport{}
	f.registry.Add("A", "Alice", "en", &recordingTransport{})
	f.registry.Add("B", "Bruno", "fr", b)

	joined := make(chan struct{})
	f.translator.EXPECT().Translate(gomock.Any(), "hello", domain.Language("fr")).
		DoAndReturn(func(ctx context.Context, text string, lang domain.Language) (string, error) {
			// D connects while the broadcast is translating
			f.registry.Add("D", "Dan", "fr", late)
			close(joined)
			return "bonjour", nil
		})

	report, err := f.router.Broadcast(context.Background(), chat.NewInboundMessage("A", "hello"))
	<-joined

	req.NoError(err)
	req.Equal(1, report.Delivered)
	req.Len(b.messages(), 1)
	req.Empty(late.messages())
}

// deadlineTransport fails a push whose context is already over, like a full sink would.
type deadlineTransport struct {
	recordingTransport
}

func (d *deadlineTransport) Consume(ctx context.Context, e event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%v: %w", err, errors.ErrPushTimeout)
	}
	return d.recordingTransport.Consume(ctx, e)
}

func TestRouter_Sender_Leaving_Mid_Broadcast_Keeps_Recipients(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	// Given A (en) and B (fr) with a French translation slower than A's stay
	f := newRouterFixture(t, ctrl, blockList{}, time.Second, nil)
	b := &deadlineTransport{}
	f.registry.Add("A", "Alice", "en", &recordingTransport{})
	f.registry.Add("B", "Bruno", "fr", b)
	f.translator.EXPECT().Translate(gomock.Any(), "hello", domain.Language("fr")).
		DoAndReturn(func(ctx context.Context, text string, lang domain.Language) (string, error) {
			select {
			case <-time.After(30 * time.Millisecond):
				return "bonjour", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		})

	// When A's context ends while the translation runs
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(5*time.Millisecond, cancel)
	report, err := f.router.Broadcast(ctx, chat.NewInboundMessage("A", "hello"))

	// Then B still gets the translation and stays online
	req.NoError(err)
	req.Equal(1, report.Delivered)
	req.Zero(report.TransportFailures)
	req.Zero(report.TranslationFallbacks)
	received := b.messages()
	req.Len(received, 1)
	req.Equal("bonjour", received[0].Text)
	_, online := f.registry.Lookup("B")
	req.True(online)
}
