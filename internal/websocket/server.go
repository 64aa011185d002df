// Package websocket pushes auto-refreshed briefings to subscribed
// clients, replacing the polling timer a desktop front end would run.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eclewis/wxbrief/internal/briefing"
	"github.com/eclewis/wxbrief/internal/config"
	"github.com/eclewis/wxbrief/pkg/logger"
)

// Message types exchanged with clients
const (
	MessageTypeSubscribe      = "subscribe"       // client starts auto-refresh for a route
	MessageTypeUnsubscribe    = "unsubscribe"     // client stops auto-refresh
	MessageTypeBriefingUpdate = "briefing_update" // server pushes a rebuilt briefing
	MessageTypeError          = "error"           // server reports a bad request
)

// Message is one WebSocket frame
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// subscribeRequest is the payload of a subscribe message
type subscribeRequest struct {
	Departure       string `json:"departure"`
	Arrival         string `json:"arrival"`
	Alternate       string `json:"alternate"`
	IntervalSeconds int    `json:"interval_seconds"`
}

// Builder assembles briefings for subscribed routes
type Builder interface {
	Build(ctx context.Context, req briefing.Request) (*briefing.Result, error)
}

// Server upgrades connections and runs one refresh loop per
// subscribed client.
type Server struct {
	builder  Builder
	refresh  config.RefreshConfig
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewServer creates a new WebSocket server
func NewServer(builder Builder, refresh config.RefreshConfig, log *logger.Logger) *Server {
	return &Server{
		builder: builder,
		refresh: refresh,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		logger:  log.Named("web-socket"),
		clients: make(map[*Client]bool),
	}
}

// HandleConnection upgrades an HTTP request and starts the client pumps
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan *Message, 16),
		server: s,
	}

	s.mu.Lock()
	s.clients[client] = true
	count := len(s.clients)
	s.mu.Unlock()
	s.logger.Debug("Client registered", logger.Int("client_count", count))

	go client.readPump()
	go client.writePump()
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) removeClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
	}
}

// Client is one connected WebSocket client with at most one active
// briefing subscription.
type Client struct {
	conn   *websocket.Conn
	send   chan *Message
	server *Server

	mu            sync.Mutex
	closed        bool
	stopRefresher context.CancelFunc
}

// readPump consumes client frames until the connection drops
func (c *Client) readPump() {
	defer func() {
		c.close()
		c.server.removeClient(c)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.server.logger.Warn("Failed to parse WebSocket message", logger.Error(err))
			continue
		}

		switch msg.Type {
		case MessageTypeSubscribe:
			c.handleSubscribe(msg.Data)
		case MessageTypeUnsubscribe:
			c.stopRefresh()
		default:
			c.sendMessage(&Message{Type: MessageTypeError, Data: map[string]any{
				"message": "unknown message type: " + msg.Type,
			}})
		}
	}
}

// writePump sends queued frames to the client
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		data, err := json.Marshal(message)
		if err != nil {
			c.server.logger.Error("Failed to marshal message", logger.Error(err))
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// handleSubscribe validates the request and starts the refresh loop,
// replacing any previous subscription.
func (c *Client) handleSubscribe(data map[string]any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	var req subscribeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.sendMessage(&Message{Type: MessageTypeError, Data: map[string]any{
			"message": "malformed subscribe request",
		}})
		return
	}

	interval := req.IntervalSeconds
	if interval == 0 {
		interval = c.server.refresh.DefaultIntervalSecs
	}
	if interval < c.server.refresh.MinIntervalSecs {
		c.sendMessage(&Message{Type: MessageTypeError, Data: map[string]any{
			"message": "refresh interval below minimum",
		}})
		return
	}

	c.stopRefresh()

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.stopRefresher = cancel
	c.mu.Unlock()

	briefingReq := briefing.Request{
		Departure: req.Departure,
		Arrival:   req.Arrival,
		Alternate: req.Alternate,
	}

	c.server.logger.Info("Briefing subscription started",
		logger.String("departure", req.Departure),
		logger.String("arrival", req.Arrival),
		logger.String("alternate", req.Alternate),
		logger.Int("interval_seconds", interval))

	go c.refreshLoop(ctx, briefingReq, time.Duration(interval)*time.Second)
}

// refreshLoop pushes a fresh briefing immediately and then on every
// tick until the subscription is cancelled.
func (c *Client) refreshLoop(ctx context.Context, req briefing.Request, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.pushBriefing(ctx, req)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pushBriefing(ctx, req)
		}
	}
}

func (c *Client) pushBriefing(ctx context.Context, req briefing.Request) {
	result, err := c.server.builder.Build(ctx, req)
	if err != nil {
		c.sendMessage(&Message{Type: MessageTypeError, Data: map[string]any{
			"message": err.Error(),
		}})
		return
	}

	c.sendMessage(&Message{Type: MessageTypeBriefingUpdate, Data: map[string]any{
		"briefing": result,
	}})
}

// stopRefresh cancels the active subscription, if any
func (c *Client) stopRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopRefresher != nil {
		c.stopRefresher()
		c.stopRefresher = nil
	}
}

// sendMessage queues a message, dropping it if the client is backed up
func (c *Client) sendMessage(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// close stops the refresh loop and the write pump
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.stopRefresher != nil {
		c.stopRefresher()
		c.stopRefresher = nil
	}
	close(c.send)
}
