// Package stream pushes monitor poll batches to websocket subscribers as
// they arrive, so a UI can follow a session live instead of polling
// get_results.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"

	"splunk-mcp/internal/monitor"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 16),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// BatchMessage is the wire format sent to each subscriber.
type BatchMessage struct {
	Type  string            `json:"type"`
	Batch monitor.PollBatch `json:"batch"`
}

// Broadcaster fans poll batches out to connected websocket clients. It
// satisfies the monitor package's BatchSink interface.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	closed   bool
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			// The MCP server is bound to localhost by default and has no
			// browser origin of its own.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "stream").Logger(),
	}
}

// Publish sends one poll batch to every connected client. Clients whose
// send queue is full are disconnected rather than allowed to stall the
// monitor loop.
//
// The sends happen under the read lock: a send channel is only ever
// closed under the write lock (removeClient, Close), so a client present
// in the map here cannot have its channel closed mid-send.
func (b *Broadcaster) Publish(batch monitor.PollBatch) {
	data, err := json.Marshal(BatchMessage{Type: "poll_batch", Batch: batch})
	if err != nil {
		b.log.Error().Err(err).Msg("failed to encode poll batch")
		return
	}

	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		b.log.Warn().Msg("websocket client too slow, disconnecting")
		b.removeClient(c)
	}
}

// HandleWS upgrades the request and subscribes the connection to future
// poll batches until the peer disconnects.
func (b *Broadcaster) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(conn)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		c.close()
		return
	}
	b.clients[c] = true
	b.mu.Unlock()

	b.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client connected")

	go func() {
		defer func() {
			b.removeClient(c)
			b.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ClientCount reports how many subscribers are connected.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects all subscribers. New connections are rejected after.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
}

func (b *Broadcaster) removeClient(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
}
