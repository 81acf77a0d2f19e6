package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"inkboard-relay-server/domain"
	"inkboard-relay-server/event"
)

var (
	// ErrNotNullTransport is returned when a simulated-client operation is
	// invoked on a server built over the real transport.
	ErrNotNullTransport = errors.New("transport does not support simulated clients")

	// ErrNotNullClient is returned when a null-client operation targets a
	// connection that did not come from the substitute transport.
	ErrNotNullClient = errors.New("client is not a null client")
)

// nullClientTransport is the extra surface of the substitute transport.
type nullClientTransport interface {
	Connect(clientID string) error
	Disconnect(clientID string) error
}

// nullConnection marks connections fabricated by the substitute transport.
type nullConnection interface {
	NullClient()
}

// Server routes messages between connected clients and the rest of the
// system. It owns the connection registry and drives the notifier; the
// transport is borrowed and reports into it via domain.ConnectionHandler.
type Server struct {
	transport domain.Transport
	registry  *Registry
	notifier  *event.Notifier

	mu       sync.Mutex
	lastSent *domain.SendRecord
}

// New wires a server to its transport. Nil dependencies are programming
// errors and panic.
func New(transport domain.Transport, notifier *event.Notifier) *Server {
	if transport == nil {
		panic("relay: nil transport")
	}
	if notifier == nil {
		panic("relay: nil notifier")
	}

	s := &Server{
		transport: transport,
		registry:  NewRegistry(),
		notifier:  notifier,
	}
	transport.Bind(s)
	return s
}

func (s *Server) Start() error {
	return s.transport.Start()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.transport.Stop(ctx)
}

// HandleConnect registers a freshly accepted connection. Connections
// without an id are rejected.
func (s *Server) HandleConnect(conn domain.Connection) error {
	if err := s.registry.Add(conn); err != nil {
		return err
	}

	slog.Info("client connected", "clientId", conn.ID(), "clients", s.registry.Count())
	s.notifier.EmitClientConnect(conn.ID())
	return nil
}

func (s *Server) HandleDisconnect(conn domain.Connection) {
	if conn == nil {
		return
	}
	s.registry.Remove(conn)

	slog.Info("client disconnected", "clientId", conn.ID(), "clients", s.registry.Count())
	s.notifier.EmitClientDisconnect(conn.ID())
}

// HandleMessage publishes an inbound client message. The transport has
// already filtered unknown message types; nothing is validated here.
func (s *Server) HandleMessage(clientID string, msg domain.Message) {
	s.notifier.EmitClientMessage(domain.Inbound{ClientID: clientID, Message: msg})
}

// SendToOneClient delivers a message to a single connected client. An
// unknown client id fails fast and records nothing.
func (s *Server) SendToOneClient(clientID string, msg domain.Message) error {
	conn, err := s.registry.Get(clientID)
	if err != nil {
		return err
	}

	if err := conn.Emit(msg.Name(), msg.Payload()); err != nil {
		return fmt.Errorf("emit to %q: %w", clientID, err)
	}

	s.record(domain.SendRecord{Message: msg, ClientID: clientID, Type: domain.SendToOne})
	return nil
}

// BroadcastToAllClients delivers a message to every connection currently
// in the registry. Per-client emit failures are logged and skipped; a slow
// client must not block the rest of the session.
func (s *Server) BroadcastToAllClients(msg domain.Message) error {
	for _, conn := range s.registry.Connections() {
		if err := conn.Emit(msg.Name(), msg.Payload()); err != nil {
			slog.Warn("broadcast emit failed", "clientId", conn.ID(), "error", err)
		}
	}

	s.record(domain.SendRecord{Message: msg, Type: domain.SendToAll})
	return nil
}

// BroadcastToAllClientsButOne delivers to everyone except the excluded
// client, which must itself be connected.
func (s *Server) BroadcastToAllClientsButOne(excludedClientID string, msg domain.Message) error {
	if _, err := s.registry.Get(excludedClientID); err != nil {
		return err
	}

	for _, conn := range s.registry.Connections() {
		if conn.ID() == excludedClientID {
			continue
		}
		if err := conn.Emit(msg.Name(), msg.Payload()); err != nil {
			slog.Warn("broadcast emit failed", "clientId", conn.ID(), "error", err)
		}
	}

	s.record(domain.SendRecord{Message: msg, ClientID: excludedClientID, Type: domain.SendToAllButOne})
	return nil
}

// LastSent returns the most recent outbound send. Only the last record is
// kept; observers that need the full stream subscribe to the notifier.
func (s *Server) LastSent() (domain.SendRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSent == nil {
		return domain.SendRecord{}, false
	}
	return *s.lastSent, true
}

func (s *Server) IsClientConnected(clientID string) bool {
	return s.registry.IsConnected(clientID)
}

func (s *Server) NumberOfActiveConnections() int {
	return s.registry.Count()
}

// SimulateClientMessage injects an inbound message for a connected client,
// as if the transport had decoded it off the wire.
func (s *Server) SimulateClientMessage(clientID string, msg domain.Message) error {
	if _, err := s.registry.Get(clientID); err != nil {
		return err
	}
	s.HandleMessage(clientID, msg)
	return nil
}

// ConnectNullClient fabricates a connection with a test-chosen id. Only
// valid against the substitute transport.
func (s *Server) ConnectNullClient(clientID string) error {
	nt, ok := s.transport.(nullClientTransport)
	if !ok {
		return ErrNotNullTransport
	}
	return nt.Connect(clientID)
}

// DisconnectNullClient tears down a fabricated connection. It refuses to
// touch connections that did not come from the substitute.
func (s *Server) DisconnectNullClient(clientID string) error {
	nt, ok := s.transport.(nullClientTransport)
	if !ok {
		return ErrNotNullTransport
	}

	if conn, err := s.registry.Get(clientID); err == nil {
		if _, ok := conn.(nullConnection); !ok {
			return fmt.Errorf("disconnect %q: %w", clientID, ErrNotNullClient)
		}
	}
	return nt.Disconnect(clientID)
}

func (s *Server) record(rec domain.SendRecord) {
	s.mu.Lock()
	s.lastSent = &rec
	s.mu.Unlock()

	slog.Debug("message sent", "message", rec.Message.Name(), "sendType", rec.Type.String(), "clientId", rec.ClientID)
	s.notifier.EmitServerMessage(rec)
}
