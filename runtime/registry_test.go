package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRegistry_Add_One_Connection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry()
	transport := mocks.NewMockTransport(ctrl)

	// Given nobody is connected
	req.Zero(registry.Len())

	// When a participant connects
	conn, replaced := registry.Add("alice", "Alice", "en", transport)

	// Then the connection is live
	req.False(replaced)
	req.Equal(1, registry.Len())
	req.Equal(domain.Identity("alice"), conn.Identity)
	req.NotEmpty(conn.Color)
	lang, err := registry.LookupLanguage("alice")
	req.NoError(err)
	req.Equal(domain.Language("en"), lang)
}

func TestRegistry_Reconnect_Replaces_And_Closes_Previous(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry()
	first := mocks.NewMockTransport(ctrl)
	second := mocks.NewMockTransport(ctrl)

	// Given alice is connected
	old, _ := registry.Add("alice", "Alice", "en", first)

	// Then the first transport is closed exactly once
	first.EXPECT().Close().Times(1)

	// When alice connects again
	conn, replaced := registry.Add("alice", "Alice", "fr", second)

	// Then the new connection wins and keeps the color
	req.True(replaced)
	req.Equal(1, registry.Len())
	req.NotEqual(old.Handle, conn.Handle)
	req.Equal(old.Color, conn.Color)
	live, ok := registry.Lookup("alice")
	req.True(ok)
	req.Equal(conn.Handle, live.Handle)
	req.Equal(domain.Language("fr"), live.Language)

	// And a late failure on the stale handle never evicts the reconnect
	req.False(registry.RemoveHandle(old))
	req.Equal(1, registry.Len())
}

func TestRegistry_Remove_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry()
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Close().Times(1)

	registry.Add("alice", "Alice", "en", transport)

	req.True(registry.Remove("alice"))
	req.False(registry.Remove("alice"))
	req.False(registry.Remove("nobody"))
	req.Zero(registry.Len())

	_, err := registry.LookupLanguage("alice")
	req.ErrorIs(err, errors.ErrConnectionNotFound)
}

func TestRegistry_RemoveHandle_Live_Connection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry()
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Close().Times(1)

	conn, _ := registry.Add("bob", "Bob", "es", transport)

	// When the same handle is removed twice
	req.True(registry.RemoveHandle(conn))
	req.False(registry.RemoveHandle(conn))
	req.False(registry.RemoveHandle(nil))

	req.Zero(registry.Len())
}

func TestRegistry_Snapshot_Ordered_And_Isolated(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry()

	registry.Add("alice", "Alice", "en", mocks.NewMockTransport(ctrl))
	registry.Add("bob", "Bob", "fr", mocks.NewMockTransport(ctrl))
	registry.Add("carol", "Carol", "fr", mocks.NewMockTransport(ctrl))

	snapshot := registry.Snapshot()
	req.Len(snapshot, 3)
	req.Equal(domain.Identity("alice"), snapshot[0].Identity)
	req.Equal(domain.Identity("carol"), snapshot[2].Identity)

	// When bob changes language after the snapshot was taken
	req.NoError(registry.SetLanguage("bob", "de"))

	// Then the snapshot is unchanged
	req.Equal(domain.Language("fr"), snapshot[1].Language)
	lang, err := registry.LookupLanguage("bob")
	req.NoError(err)
	req.Equal(domain.Language("de"), lang)

	req.ErrorIs(registry.SetLanguage("nobody", "de"), errors.ErrConnectionNotFound)
}

func TestRegistry_Concurrent_Add_Keeps_Identity_Unique(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry()

	const identities = 10
	const attempts = 20

	var wg sync.WaitGroup
	for i := 0; i < identities; i++ {
		for j := 0; j < attempts; j++ {
			transport := mocks.NewMockTransport(ctrl)
			transport.EXPECT().Close().AnyTimes()
			wg.Add(1)
			go func(id domain.Identity) {
				defer wg.Done()
				registry.Add(id, id.String(), "en", transport)
				_ = registry.Snapshot()
			}(domain.Identity(fmt.Sprintf("user-%d", i)))
		}
	}
	wg.Wait()

	// Then exactly one live connection per identity
	req.Equal(identities, registry.Len())
	seen := make(map[domain.Identity]struct{})
	for _, c := range registry.Snapshot() {
		_, dup := seen[c.Identity]
		req.False(dup)
		seen[c.Identity] = struct{}{}
	}
}
