// Package nulltransport is an in-memory stand-in for the websocket
// transport. It fabricates connects and disconnects for test-chosen client
// ids, records anything it is asked to emit, and opens no network
// resources, so the relay can be exercised deterministically.
package nulltransport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"inkboard-relay-server/domain"
)

var (
	// ErrUnknownClient is returned when disconnecting an id this transport
	// never connected.
	ErrUnknownClient = errors.New("client not connected through the null transport")

	// ErrAlreadyConnected is returned when connecting an id twice.
	ErrAlreadyConnected = errors.New("client already connected")
)

type Transport struct {
	mu      sync.Mutex
	handler domain.ConnectionHandler
	conns   map[string]*Conn
}

func New() *Transport {
	return &Transport{conns: make(map[string]*Conn)}
}

func (t *Transport) Bind(h domain.ConnectionHandler) {
	t.handler = h
}

func (t *Transport) Start() error {
	if t.handler == nil {
		return errors.New("nulltransport: no handler bound")
	}
	return nil
}

// Stop disconnects every fabricated connection. Safe to call repeatedly.
func (t *Transport) Stop(_ context.Context) error {
	t.mu.Lock()
	conns := make([]*Conn, 0, len(t.conns))
	for _, conn := range t.conns {
		conns = append(conns, conn)
	}
	t.conns = make(map[string]*Conn)
	t.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
		t.handler.HandleDisconnect(conn)
	}
	return nil
}

// Connect fabricates a connect event for clientID.
func (t *Transport) Connect(clientID string) error {
	if t.handler == nil {
		return errors.New("nulltransport: no handler bound")
	}

	t.mu.Lock()
	if _, exists := t.conns[clientID]; exists {
		t.mu.Unlock()
		return fmt.Errorf("connect %q: %w", clientID, ErrAlreadyConnected)
	}
	conn := &Conn{id: clientID}
	t.conns[clientID] = conn
	t.mu.Unlock()

	if err := t.handler.HandleConnect(conn); err != nil {
		t.mu.Lock()
		delete(t.conns, clientID)
		t.mu.Unlock()
		return err
	}
	return nil
}

// Disconnect fabricates a disconnect event. Only ids previously connected
// through this transport are accepted.
func (t *Transport) Disconnect(clientID string) error {
	t.mu.Lock()
	conn, ok := t.conns[clientID]
	if ok {
		delete(t.conns, clientID)
	}
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("disconnect %q: %w", clientID, ErrUnknownClient)
	}

	conn.Close()
	t.handler.HandleDisconnect(conn)
	return nil
}

// ClientConn returns the fabricated connection for clientID, for
// inspecting what was emitted to it.
func (t *Transport) ClientConn(clientID string) (*Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn, ok := t.conns[clientID]
	return conn, ok
}

// Frame is one recorded emit.
type Frame struct {
	Name    string
	Payload any
}

// Conn is a fabricated connection. Emits are recorded, not delivered;
// nothing leaves the process.
type Conn struct {
	id string

	mu     sync.Mutex
	sent   []Frame
	closed bool
}

func (c *Conn) ID() string { return c.id }

// NullClient marks this connection as fabricated by the substitute.
func (c *Conn) NullClient() {}

func (c *Conn) Emit(name string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("emit %q to %q: connection closed", name, c.id)
	}
	c.sent = append(c.sent, Frame{Name: name, Payload: payload})
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Sent returns a snapshot of every frame emitted to this connection.
func (c *Conn) Sent() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Frame, len(c.sent))
	copy(out, c.sent)
	return out
}
