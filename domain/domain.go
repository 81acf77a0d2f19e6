package domain

import "context"

// Message is any typed payload moving through the relay. The relay never
// inspects payload contents; it routes by name only.
type Message interface {
	Name() string
	Payload() any
}

// Connection is a live client channel owned by the transport. The relay
// borrows it for routing and never manages its lifecycle.
type Connection interface {
	ID() string
	Emit(name string, payload any) error
	Close() error
}

// ConnectionHandler receives transport lifecycle and message callbacks.
type ConnectionHandler interface {
	HandleConnect(conn Connection) error
	HandleDisconnect(conn Connection)
	HandleMessage(clientID string, msg Message)
}

// Transport accepts connections and reports them to a bound handler.
// Bind must be called before Start. Stop is idempotent and returns once
// shutdown is complete.
type Transport interface {
	Bind(h ConnectionHandler)
	Start() error
	Stop(ctx context.Context) error
}
