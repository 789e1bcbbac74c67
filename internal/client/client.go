// Package client connects to a running service over its WebSocket bridge.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"mousemacros/internal/logging"
	"mousemacros/internal/protocol"
)

// ErrClosed is returned by Invoke after Close.
var ErrClosed = errors.New("client closed")

// Client handles the WebSocket connection to the service
type Client struct {
	addr  string
	token string
	log   zerolog.Logger

	// RetryDelay is the pause between reconnection attempts
	RetryDelay time.Duration

	// OnEvent is called for every notification the service emits
	OnEvent func(event string, payload json.RawMessage)

	// OnConnect is called after each successful connection
	OnConnect func()

	send chan protocol.Message
	done chan struct{}
	once sync.Once

	mu          sync.Mutex
	isConnected bool
	pending     map[string]chan protocol.ResultPayload
}

// New creates a client for the service listening on addr (host:port).
func New(addr, token string, log zerolog.Logger) *Client {
	return &Client{
		addr:       addr,
		token:      token,
		log:        logging.Subsystem(log, "client"),
		RetryDelay: 5 * time.Second,
		send:       make(chan protocol.Message, 100),
		done:       make(chan struct{}),
		pending:    make(map[string]chan protocol.ResultPayload),
	}
}

// Run keeps a connection open, reconnecting after failures, until ctx is
// cancelled or Close is called.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.connect(ctx); err != nil {
			c.log.Warn().Err(err).Msg("connection failed")
		}

		// If connect returns, it means we disconnected. Wait a bit and retry.
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case <-time.After(c.RetryDelay):
			c.log.Debug().Msg("attempting reconnection")
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: "/ws"}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()

	c.setConnected(true)
	defer c.setConnected(false)
	c.log.Info().Str("addr", c.addr).Msg("connected to service")
	if c.OnConnect != nil {
		c.OnConnect()
	}

	connDone := make(chan struct{})
	go func() {
		defer close(connDone)
		c.writePump(ctx, conn)
	}()

	// unblock the read pump on shutdown
	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
		case <-connDone:
		}
		conn.Close()
	}()

	c.readPump(conn)
	conn.Close()
	<-connDone
	return nil
}

func (c *Client) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("read error")
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn().Err(err).Msg("invalid message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				c.log.Warn().Err(err).Msg("write error")
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

type eventPayload struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func (c *Client) handleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeEvent:
		var ev eventPayload
		if err := msg.Decode(&ev); err != nil {
			c.log.Warn().Err(err).Msg("invalid event")
			return
		}
		if c.OnEvent != nil {
			c.OnEvent(ev.Event, ev.Payload)
		}

	case protocol.TypeResult:
		var res protocol.ResultPayload
		if err := msg.Decode(&res); err != nil {
			c.log.Warn().Err(err).Msg("invalid result")
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		delete(c.pending, msg.ID)
		c.mu.Unlock()
		if ok {
			ch <- res
		}
	}
}

// Invoke sends a command and waits for its result. Commands queue while the
// client is reconnecting.
func (c *Client) Invoke(ctx context.Context, command string, args any) (protocol.ResultPayload, error) {
	var raw json.RawMessage
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return protocol.ResultPayload{}, fmt.Errorf("encode args: %w", err)
		}
		raw = data
	}

	id := xid.New().String()
	msg, err := protocol.NewMessage(protocol.TypeInvoke, id, protocol.InvokePayload{Command: command, Args: raw})
	if err != nil {
		return protocol.ResultPayload{}, err
	}

	ch := make(chan protocol.ResultPayload, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	select {
	case c.send <- msg:
	case <-ctx.Done():
		return protocol.ResultPayload{}, ctx.Err()
	case <-c.done:
		return protocol.ResultPayload{}, ErrClosed
	}

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return protocol.ResultPayload{}, ctx.Err()
	case <-c.done:
		return protocol.ResultPayload{}, ErrClosed
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.isConnected = v
	c.mu.Unlock()
}

// IsConnected returns true if client is connected to the service
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

// Close stops the client
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}
