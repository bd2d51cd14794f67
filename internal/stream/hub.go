package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans live sharing updates out to websocket watchers. Redis pub/sub
// carries the same payloads across instances so a watcher can connect to
// any node.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

// Client is one registered watcher. Send is never closed; after Unregister
// the Done channel is closed and writers drop the client.
type Client struct {
	SessionID string
	Send      chan []byte

	quit chan struct{}
	once sync.Once
}

// Done is closed when the client has been unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.quit
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
		quit:      make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

// Unregister removes the client and signals Done. Idempotent; safe to call
// while a broadcast is in flight.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if sessionClients, ok := h.clients[client.SessionID]; ok {
		delete(sessionClients, client)
		if len(sessionClients) == 0 {
			delete(h.clients, client.SessionID)
		}
	}
	h.mu.Unlock()

	client.once.Do(func() { close(client.quit) })
}

func (h *Hub) Broadcast(sessionID string, payload []byte) {
	for _, client := range h.snapshot(sessionID) {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(sessionID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// snapshot copies the session's client set under the read lock so senders
// never iterate the live map while Unregister mutates it.
func (h *Hub) snapshot(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := h.clients[sessionID]
	out := make([]*Client, 0, len(clients))
	for client := range clients {
		out = append(out, client)
	}
	return out
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, "sharing:*:broadcast")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		for _, client := range h.snapshot(sessionIDFromChannel(msg.Channel)) {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
	}
}

func redisChannel(sessionID string) string {
	return "sharing:" + sessionID + ":broadcast"
}

func sessionIDFromChannel(ch string) string {
	// sharing:{session}:broadcast
	const prefix = "sharing:"
	const suffix = ":broadcast"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
