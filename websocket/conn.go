package websocket

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"inkboard-relay-server/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type Conn struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	limiter   *rate.Limiter
	transport *Transport
}

func newConn(id string, ws *websocket.Conn, t *Transport) *Conn {
	return &Conn{
		id:        id,
		ws:        ws,
		send:      make(chan []byte, 256),
		limiter:   rate.NewLimiter(t.cfg.MsgRate, t.cfg.MsgBurst),
		transport: t,
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Emit(name string, payload any) error {
	data, err := protocol.EncodeFrame(name, payload)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return websocket.ErrCloseSent
	}
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) start() {
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.transport.untrack(c)
		c.transport.handler.HandleDisconnect(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "clientId", c.id, "error", err)
			}
			return
		}

		if !c.limiter.Allow() {
			slog.Warn("message rate exceeded, dropping frame", "clientId", c.id)
			continue
		}

		msg, ok := c.transport.decoder.Decode(data)
		if !ok {
			slog.Debug("ignoring unrecognized frame", "clientId", c.id)
			continue
		}

		c.transport.handler.HandleMessage(c.id, msg)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
