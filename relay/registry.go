package relay

import (
	"errors"
	"fmt"
	"sync"

	"inkboard-relay-server/domain"
)

var (
	// ErrNotConnected is returned when a client id has no live connection.
	ErrNotConnected = errors.New("client not connected")

	// ErrMissingClientID is returned when a connection registers without
	// an identifier.
	ErrMissingClientID = errors.New("connection has no client id")
)

// Registry maps client ids to their live connections. A client id is a key
// here exactly while its connection is live; disconnected clients are
// forgotten completely.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]domain.Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]domain.Connection)}
}

func (r *Registry) Add(conn domain.Connection) error {
	if conn == nil || conn.ID() == "" {
		return ErrMissingClientID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = conn
	return nil
}

func (r *Registry) Remove(conn domain.Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn.ID())
}

// Get fails fast on unknown ids; callers that route to a specific client
// must not silently skip absent targets.
func (r *Registry) Get(clientID string) (domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[clientID]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", clientID, ErrNotConnected)
	}
	return conn, nil
}

func (r *Registry) IsConnected(clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[clientID]
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Connections returns a snapshot of the live connections.
func (r *Registry) Connections() []domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]domain.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}
