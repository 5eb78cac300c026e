package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"seotools/db"
	"seotools/logging"
)

// Message types sent on the admin usage stream.
const (
	StreamMessageInitial = "initial"
	StreamMessageUsage   = "usage"
)

// StreamMessage is the envelope for every stream frame.
type StreamMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// usageEvent is one recorded tool request as clients see it.
type usageEvent struct {
	RequestID  string    `json:"requestId"`
	Tool       string    `json:"tool"`
	StatusCode int       `json:"statusCode"`
	DurationMS int64     `json:"durationMs"`
	IPAddress  string    `json:"ip"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StreamConfig tunes the websocket connections.
type StreamConfig struct {
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	// BufferSize applies to the broadcast queue and to each client's queue
	BufferSize int
}

// DefaultStreamConfig returns the settings used by the server.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 512,
		BufferSize:     256,
	}
}

type streamClient struct {
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string

	// closeCode and closeText are set by Run before send is closed and
	// read by writePump after it observes the close.
	closeCode int
	closeText string
}

// UsageStream pushes each recorded tool request to connected admin
// websocket clients. Run owns the client set; a client whose queue is full
// is disconnected rather than slowing the others.
type UsageStream struct {
	config   StreamConfig
	upgrader websocket.Upgrader
	logger   *logging.Logger

	register   chan *streamClient
	unregister chan *streamClient
	broadcast  chan []byte
	done       chan struct{}
	clients    atomic.Int64
}

// NewUsageStream creates a stream. allowedOrigin "*" accepts any Origin.
func NewUsageStream(config StreamConfig, allowedOrigin string, logger *logging.Logger) *UsageStream {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultStreamConfig().BufferSize
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &UsageStream{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
		logger:     logger.Named("stream"),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		broadcast:  make(chan []byte, config.BufferSize),
		done:       make(chan struct{}),
	}
}

// Run dispatches messages until ctx is cancelled, then disconnects every
// client.
func (u *UsageStream) Run(ctx context.Context) {
	clients := make(map[*streamClient]struct{})
	drop := func(c *streamClient, code int, text string) {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			u.clients.Store(int64(len(clients)))
			c.closeCode, c.closeText = code, text
			close(c.send)
		}
	}

	defer func() {
		for c := range clients {
			drop(c, websocket.CloseGoingAway, "server shutting down")
		}
		close(u.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-u.register:
			clients[c] = struct{}{}
			u.clients.Store(int64(len(clients)))
			u.logger.Info("usage stream client connected",
				zap.String("remote_addr", c.remoteAddr),
				zap.Int("clients", len(clients)))

		case c := <-u.unregister:
			drop(c, websocket.CloseNormalClosure, "")

		case msg := <-u.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					u.logger.Warn("usage stream client too slow, disconnecting",
						zap.String("remote_addr", c.remoteAddr))
					drop(c, websocket.CloseTryAgainLater, "client too slow")
				}
			}
		}
	}
}

// Clients returns the number of connected clients.
func (u *UsageStream) Clients() int {
	return int(u.clients.Load())
}

// Publish queues rec for every client. It never blocks; when the queue is
// full the event is dropped.
func (u *UsageStream) Publish(rec db.UsageRecord) {
	data, err := json.Marshal(StreamMessage{
		Type:      StreamMessageUsage,
		Timestamp: time.Now(),
		Data: usageEvent{
			RequestID:  rec.RequestID,
			Tool:       rec.Tool,
			StatusCode: rec.StatusCode,
			DurationMS: rec.DurationMS,
			IPAddress:  rec.IPAddress,
			CreatedAt:  rec.CreatedAt,
		},
	})
	if err != nil {
		return
	}
	select {
	case u.broadcast <- data:
	default:
		u.logger.Debug("usage stream queue full, dropping event", zap.String("tool", rec.Tool))
	}
}

// Serve upgrades the request and registers the client. initial, if
// non-nil, is the first frame the client receives.
func (u *UsageStream) Serve(w http.ResponseWriter, r *http.Request, initial *StreamMessage) {
	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		u.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &streamClient{
		conn:       conn,
		send:       make(chan []byte, u.config.BufferSize),
		remoteAddr: r.RemoteAddr,
	}
	if initial != nil {
		if data, err := json.Marshal(initial); err == nil {
			c.send <- data
		}
	}

	select {
	case u.register <- c:
	case <-u.done:
		conn.Close()
		return
	}

	go u.writePump(c)
	go u.readPump(c)
}

// readPump only consumes control frames; clients never send data.
func (u *UsageStream) readPump(c *streamClient) {
	defer func() {
		select {
		case u.unregister <- c:
		case <-u.done:
		}
	}()

	c.conn.SetReadLimit(u.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(u.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(u.config.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				u.logger.Debug("usage stream read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump is the only writer on c.conn.
func (u *UsageStream) writePump(c *streamClient) {
	ticker := time.NewTicker(u.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(u.config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(c.closeCode, c.closeText))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(u.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
