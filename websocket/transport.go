// Package websocket is the real transport: gorilla/websocket connections
// accepted through an HTTP endpoint, one read and one write pump per
// connection.
package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"inkboard-relay-server/domain"
	"inkboard-relay-server/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Config struct {
	Addr string

	// Inbound frames per connection above this rate are dropped.
	MsgRate  rate.Limit
	MsgBurst int
}

type Transport struct {
	cfg     Config
	decoder *protocol.Decoder
	handler domain.ConnectionHandler

	mu       sync.Mutex
	server   *http.Server
	conns    map[string]*Conn
	started  bool
	stopping bool
}

func NewTransport(cfg Config, decoder *protocol.Decoder) *Transport {
	if decoder == nil {
		panic("websocket: nil decoder")
	}
	if cfg.MsgRate <= 0 {
		cfg.MsgRate = 100
	}
	if cfg.MsgBurst <= 0 {
		cfg.MsgBurst = 200
	}
	return &Transport{
		cfg:     cfg,
		decoder: decoder,
		conns:   make(map[string]*Conn),
	}
}

func (t *Transport) Bind(h domain.ConnectionHandler) {
	t.handler = h
}

// Start binds the listener and begins accepting connections. It returns
// once the listener is bound; serving continues in the background.
func (t *Transport) Start() error {
	if t.handler == nil {
		return errors.New("websocket: no handler bound")
	}

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return errors.New("websocket: transport already started")
	}
	t.started = true

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/ws", t.serveWS)
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"clients": t.connCount()})
	})

	t.server = &http.Server{Addr: t.cfg.Addr, Handler: engine}
	t.mu.Unlock()

	ln, err := net.Listen("tcp", t.cfg.Addr)
	if err != nil {
		t.mu.Lock()
		t.started = false
		t.mu.Unlock()
		return err
	}

	go t.serve(ln)
	return nil
}

func (t *Transport) serve(ln net.Listener) {
	err := t.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		// The server only closes through Stop. Anything else bypassed the
		// shutdown path and leaves connections in an undefined state.
		if !t.isStopping() {
			panic("websocket: server closed without Stop")
		}
		return
	}
	slog.Error("websocket serve error", "error", err)
}

// Stop closes every live connection and shuts the server down. Idempotent;
// returns once shutdown is complete.
func (t *Transport) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.started || t.stopping {
		t.mu.Unlock()
		return nil
	}
	t.stopping = true
	conns := make([]*Conn, 0, len(t.conns))
	for _, conn := range t.conns {
		conns = append(conns, conn)
	}
	t.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	return t.server.Shutdown(ctx)
}

func (t *Transport) serveWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("upgrade error", "error", err)
		return
	}

	conn := newConn(uuid.New().String(), ws, t)
	if err := t.handler.HandleConnect(conn); err != nil {
		slog.Warn("connection rejected", "clientId", conn.ID(), "error", err)
		ws.Close()
		return
	}

	t.track(conn)
	conn.start()
}

func (t *Transport) track(conn *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[conn.id] = conn
}

func (t *Transport) untrack(conn *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, conn.id)
}

func (t *Transport) connCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

func (t *Transport) isStopping() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopping
}
