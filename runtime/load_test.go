package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRouter_LoadTest(t *testing.T) {
	if testing.Short() {
		t.Skip("load test")
	}
	req := require.New(t)
	ctrl := gomock.NewController(t)

	// 1. Every participant online across a few languages, nobody blocked
	f := newRouterFixture(t, ctrl, blockList{}, time.Second, nil)
	f.translator.EXPECT().Translate(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, text string, lang domain.Language) (string, error) {
			return lang.String() + ":" + text, nil
		}).AnyTimes()

	languages := []domain.Language{"en", "fr", "es", "de"}
	numClients := 40
	messagesPerClient := 25
	transports := make([]*recordingTransport, numClients)
	for i := range transports {
		transports[i] = &recordingTransport{}
		identity := domain.Identity(fmt.Sprintf("user-%d", i))
		f.registry.Add(identity, identity.String(), languages[i%len(languages)], transports[i])
	}

	// 2. Measurements
	var successCount atomic.Uint64
	var failureCount atomic.Uint64

	start := time.Now()
	var wg sync.WaitGroup

	// 3. Traffic simulation
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			sender := domain.Identity(fmt.Sprintf("user-%d", clientID))
			for j := 0; j < messagesPerClient; j++ {
				msg := chat.NewInboundMessage(sender, fmt.Sprintf("message %d", j))
				if _, err := f.router.Broadcast(context.Background(), msg); err != nil {
					failureCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)

	// 4. Results
	t.Logf("broadcasts=%d failed=%d duration=%v throughput=%.2f msg/sec",
		successCount.Load(), failureCount.Load(), duration,
		float64(successCount.Load())/duration.Seconds())

	req.Zero(failureCount.Load())
	expected := (numClients - 1) * messagesPerClient
	for i, transport := range transports {
		received := transport.messages()
		req.Len(received, expected, "client %d", i)
		for _, m := range received {
			req.Equal(languages[i%len(languages)], m.Language)
		}
	}
}
