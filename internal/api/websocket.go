package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"mousemacros/internal/logging"
	"mousemacros/internal/protocol"
)

var (
	// ErrHubClosed is returned by Emit once the hub has stopped.
	ErrHubClosed = errors.New("websocket hub closed")

	// ErrBacklog is returned by Emit when the broadcast queue is full.
	ErrBacklog = errors.New("websocket broadcast queue full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the bridge only listens on loopback
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// InvokeFunc runs one command for a WebSocket client.
type InvokeFunc func(ctx context.Context, cmd protocol.InvokePayload) (protocol.ResultPayload, int)

// Hub fans notifications out to every connected front-end and routes their
// invoke messages to the server.
type Hub struct {
	log        zerolog.Logger
	clients    map[*wsClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	closeOnce  sync.Once

	invokeMu sync.RWMutex
	invoke   InvokeFunc
}

type wsClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	ip   string
}

// NewHub creates a hub. Call Run to start delivering.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:        logging.Subsystem(log, "ws"),
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
}

// Run delivers broadcasts until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeOnce.Do(func() { close(h.done) })

	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.log.Info().Str("client", client.id).Str("remote", client.ip).Int("clients", n).Msg("client connected")

		case client := <-h.unregister:
			h.drop(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ctx.Done():
			h.clientsMu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMu.Unlock()
			return
		}
	}
}

// Emit queues a notification for every connected client.
func (h *Hub) Emit(event string, payload any) error {
	msg, err := protocol.NewMessage(protocol.TypeEvent, "", protocol.EventPayload{
		Event:   event,
		Payload: payload,
	})
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- data:
		return nil
	default:
		return ErrBacklog
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) setInvoker(fn InvokeFunc) {
	h.invokeMu.Lock()
	h.invoke = fn
	h.invokeMu.Unlock()
}

func (h *Hub) drop(client *wsClient) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.log.Info().Str("client", client.id).Int("clients", len(h.clients)).Msg("client disconnected")
	}
}

func (h *Hub) broadcastMessage(message []byte) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			h.log.Warn().Str("client", client.id).Msg("client too slow, disconnecting")
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// sendTo queues message for one client if it is still connected.
func (h *Hub) sendTo(client *wsClient, message []byte) bool {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

func (h *Hub) handleWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "Service stopping", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := &wsClient{
		id:   xid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		ip:   r.RemoteAddr,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(ctx)
}

// readPump pumps messages from the websocket connection to the hub.
func (c *wsClient) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Str("client", c.id).Msg("read error")
			}
			break
		}

		c.handleMessage(ctx, message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) handleMessage(ctx context.Context, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.log.Warn().Err(err).Str("client", c.id).Msg("invalid message format")
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		c.reply(protocol.TypePing, msg.ID, nil)

	case protocol.TypeInvoke:
		var payload protocol.InvokePayload
		if err := msg.Decode(&payload); err != nil {
			c.reply(protocol.TypeResult, msg.ID, protocol.ResultPayload{Error: err.Error()})
			return
		}

		c.hub.invokeMu.RLock()
		invoke := c.hub.invoke
		c.hub.invokeMu.RUnlock()
		if invoke == nil {
			c.reply(protocol.TypeResult, msg.ID, protocol.ResultPayload{Error: "no command handler"})
			return
		}

		// moves and clicks block for their whole run
		go func() {
			res, _ := invoke(ctx, payload)
			c.reply(protocol.TypeResult, msg.ID, res)
		}()

	default:
		c.hub.log.Debug().Str("type", string(msg.Type)).Msg("ignoring message")
	}
}

func (c *wsClient) reply(t protocol.MessageType, id string, payload any) {
	msg, err := protocol.NewMessage(t, id, payload)
	if err != nil {
		c.hub.log.Error().Err(err).Msg("failed to encode reply")
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.log.Error().Err(err).Msg("failed to encode reply")
		return
	}
	if !c.hub.sendTo(c, data) {
		c.hub.log.Debug().Str("client", c.id).Msg("dropping reply for gone client")
	}
}
