package bridge

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/logger"
)

// Websocket timing, following the gorilla chat example.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // must be less than pongWait
	maxMessageSize = 64 * 1024
)

// Server upgrades HTTP requests to websocket sessions.
type Server struct {
	hub      *Hub
	handler  *Handler
	upgrader websocket.Upgrader
	log      *zap.Logger
	nextID   atomic.Int64
	ctx      context.Context
}

// NewServer creates a websocket server. allowedOrigins restricts upgrades by
// Origin prefix; an empty list accepts any origin. ctx bounds the lifetime
// of every session.
func NewServer(ctx context.Context, hub *Hub, handler *Handler, allowedOrigins []string, log *zap.Logger) *Server {
	s := &Server{hub: hub, handler: handler, log: logger.OrNop(log), ctx: ctx}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}
	return s
}

// checkOrigin accepts requests without an Origin header (CLI clients, tests)
// and origins matching an allowed prefix, so any port is accepted.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if strings.HasPrefix(origin, a) {
				return true
			}
		}
		return false
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		id:     "c" + strconv.FormatInt(s.nextID.Add(1), 10),
		server: s,
		conn:   conn,
		send:   make(chan any, sendBuffer),
	}
	s.hub.register(c)
	s.log.Debug("client connected", zap.String("client", c.id))

	go c.writePump()
	go c.readPump()
}

// client is one websocket session.
type client struct {
	id     string
	server *Server
	conn   *websocket.Conn

	mu     sync.Mutex
	send   chan any
	closed bool
}

// enqueue queues msg without blocking. Returns false if the queue is full
// or closed.
func (c *client) enqueue(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) readPump() {
	defer func() {
		c.server.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.server.log.Warn("websocket read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		if reply := c.server.handler.Handle(c.server.ctx, data); reply != nil {
			if !c.enqueue(reply) {
				c.server.log.Warn("client send queue full, dropping reply", zap.String("client", c.id))
			}
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.server.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.log.Warn("websocket write error", zap.String("client", c.id), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
