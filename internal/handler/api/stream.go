package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ADRFeed/internal/domain/models"
	xlogger "ADRFeed/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	streamSendBuffer   = 4
	streamReadLimit    = 512
	defaultStreamPing  = 30 * time.Second
	defaultStreamWrite = 10 * time.Second
)

// StreamHub pushes the market-data payload to WebSocket clients after every
// refresh cycle. It acts as a refresh sink.
type StreamHub struct {
	snapshot     func() *models.MarketSnapshot
	upgrader     websocket.Upgrader
	logger       *xlogger.Logger
	pingInterval time.Duration
	writeTimeout time.Duration
	now          func() time.Time

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewStreamHub creates a hub. snapshot provides the payload sent on connect;
// allowOrigin nil accepts every origin.
func NewStreamHub(
	snapshot func() *models.MarketSnapshot,
	allowOrigin func(string) bool,
	pingInterval, writeTimeout time.Duration,
	logger *xlogger.Logger,
) *StreamHub {
	if pingInterval <= 0 {
		pingInterval = defaultStreamPing
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultStreamWrite
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &StreamHub{
		snapshot:     snapshot,
		logger:       logger,
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		now:          time.Now,
		clients:      make(map[*streamClient]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowOrigin == nil {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			return allowOrigin(origin)
		},
	}
	return h
}

func (h *StreamHub) Name() string { return "stream" }

// Clients returns the number of connected clients.
func (h *StreamHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish broadcasts the snapshot. Clients whose buffer is full are dropped.
func (h *StreamHub) Publish(_ context.Context, ev models.RefreshEvent) error {
	if ev.Snapshot == nil {
		return nil
	}
	msg, err := json.Marshal(marketDataResponse(ev.Snapshot, h.now()))
	if err != nil {
		return fmt.Errorf("marshal stream payload: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			h.logger.Warn("stream client too slow, dropping")
			h.dropLocked(cl)
		}
	}
	return nil
}

// Close disconnects every client and rejects new ones.
func (h *StreamHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		h.dropLocked(cl)
	}
	return nil
}

// Handle upgrades the request and blocks until the client goes away.
func (h *StreamHub) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already answered the request.
		h.logger.Warn("stream upgrade failed", xlogger.Error(err))
		return nil
	}

	var first []byte
	if h.snapshot != nil {
		if msg, err := json.Marshal(marketDataResponse(h.snapshot(), h.now())); err == nil {
			first = msg
		}
	}

	cl := &streamClient{conn: conn, send: make(chan []byte, streamSendBuffer)}
	if !h.add(cl, first) {
		_ = conn.Close()
		return nil
	}
	h.logger.Debug("stream client connected", xlogger.String("remote", c.RealIP()))

	go h.writeLoop(cl)
	h.readLoop(cl)

	h.remove(cl)
	h.logger.Debug("stream client disconnected", xlogger.String("remote", c.RealIP()))
	return nil
}

// add registers cl with first already queued, so no publish can overtake it.
func (h *StreamHub) add(cl *streamClient, first []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if first != nil {
		select {
		case cl.send <- first:
		default:
		}
	}
	h.clients[cl] = struct{}{}
	return true
}

func (h *StreamHub) remove(cl *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(cl)
}

// dropLocked closes the send channel once; writeLoop then closes the conn.
func (h *StreamHub) dropLocked(cl *streamClient) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

// readLoop discards inbound frames and keeps the read deadline alive on pong.
func (h *StreamHub) readLoop(cl *streamClient) {
	cl.conn.SetReadLimit(streamReadLimit)
	_ = cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHub) writeLoop(cl *streamClient) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("stream write failed", xlogger.Error(err))
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
