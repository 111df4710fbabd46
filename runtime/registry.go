package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Connection is one live client. Entries are never mutated once stored:
// SetLanguage swaps in a copy, so values taken from a Snapshot stay consistent.
type Connection struct {
	Handle    uuid.UUID
	Identity  domain.Identity
	Name      string
	Language  domain.Language
	Color     string
	Transport contract.Transport
	CreatedAt time.Time
}

// Registry is the single source of truth for who is online.
// Identity is unique among live connections.
type Registry struct {
	mu          sync.RWMutex
	connections map[domain.Identity]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[domain.Identity]*Connection),
	}
}

// Add registers a connection for identity. If one already exists it is replaced:
// the stale transport is closed and its handle invalidated before the new entry
// becomes visible to readers. The display color survives a reconnect.
func (r *Registry) Add(identity domain.Identity, name string, language domain.Language,
	transport contract.Transport) (*Connection, bool) {
	conn := &Connection{
		Handle:    uuid.New(),
		Identity:  identity,
		Name:      name,
		Language:  language,
		Transport: transport,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, replaced := r.connections[identity]
	if replaced {
		conn.Color = previous.Color
		previous.Transport.Close()
	} else {
		conn.Color = domain.PastelColor()
	}
	r.connections[identity] = conn
	return conn, replaced
}

// Remove drops identity and closes its transport. Unknown identities are a no-op.
func (r *Registry) Remove(identity domain.Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[identity]
	if !ok {
		return false
	}
	delete(r.connections, identity)
	conn.Transport.Close()
	return true
}

// RemoveHandle removes conn only if it is still the live handle for its identity,
// so a late failure on a replaced connection never evicts the reconnect.
func (r *Registry) RemoveHandle(conn *Connection) bool {
	if conn == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.connections[conn.Identity]
	if !ok || live.Handle != conn.Handle {
		return false
	}
	delete(r.connections, conn.Identity)
	live.Transport.Close()
	return true
}

// Snapshot returns a point-in-time copy ordered by connection time.
func (r *Registry) Snapshot() []Connection {
	r.mu.RLock()
	conns := lo.MapToSlice(r.connections, func(_ domain.Identity, c *Connection) Connection {
		return *c
	})
	r.mu.RUnlock()

	slices.SortFunc(conns, func(a, b Connection) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Identity, b.Identity)
	})
	return conns
}

// Lookup returns the live connection for identity.
func (r *Registry) Lookup(identity domain.Identity) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[identity]
	if !ok {
		return Connection{}, false
	}
	return *conn, true
}

func (r *Registry) LookupLanguage(identity domain.Identity) (domain.Language, error) {
	conn, ok := r.Lookup(identity)
	if !ok {
		return "", fmt.Errorf("%s: %w", identity, errors.ErrConnectionNotFound)
	}
	return conn.Language, nil
}

// SetLanguage changes the target language of a live connection.
func (r *Registry) SetLanguage(identity domain.Identity, language domain.Language) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[identity]
	if !ok {
		return fmt.Errorf("%s: %w", identity, errors.ErrConnectionNotFound)
	}
	updated := *conn
	updated.Language = language
	r.connections[identity] = &updated
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// Transports lists the live transports, used to fan out presence updates.
func (r *Registry) Transports() []contract.Transport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.MapToSlice(r.connections, func(_ domain.Identity, c *Connection) contract.Transport {
		return c.Transport
	})
}
