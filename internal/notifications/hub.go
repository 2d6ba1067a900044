package notifications

import (
	"context"
	"errors"
	"sync"

	"appfeed/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	maxConnsPerApp = 256
	maxTotalConns  = 10000
)

var (
	ErrHubFull     = errors.New("server connection limit reached")
	ErrAppFull     = errors.New("app connection limit reached")
	ErrHubShutdown = errors.New("hub is shutting down")
)

// Hub maps appID to the websocket clients watching that app's feed.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	closed     bool
	presence   *Presence
	log        *observability.WSLogger
}

// NewHub creates a hub. The optional Redis client backs cross-process
// presence.
func NewHub(redisClients ...*redis.Client) *Hub {
	var rdb *redis.Client
	if len(redisClients) > 0 {
		rdb = redisClients[0]
	}
	return &Hub{
		conns:    make(map[string]map[*Client]struct{}),
		presence: NewPresence(rdb, PresenceConfig{}),
		log:      observability.NewWSLogger("feed hub"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "feed hub" }

// Presence exposes the hub's watch tracker.
func (h *Hub) Presence() *Presence { return h.presence }

// Register adds a viewer of appID.
func (h *Hub) Register(appID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubShutdown
	}
	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, ErrHubFull
	}
	m, ok := h.conns[appID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[appID] = m
	}
	if len(m) >= maxConnsPerApp {
		h.mu.Unlock()
		return nil, ErrAppFull
	}

	client := NewClient(h, conn, appID)
	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	observability.WebSocketAppConnections.WithLabelValues(appID).Inc()
	observability.WebSocketConnectionsTotal.Inc()
	h.presence.Watch(context.Background(), appID)
	h.log.LogConnect(context.Background(), appID)
	return client, nil
}

// UnregisterClient removes the client and closes its send channel.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.AppID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			close(client.Send)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.AppID)
		}
	}
	h.mu.Unlock()

	if removed {
		observability.WebSocketAppConnections.WithLabelValues(client.AppID).Dec()
		observability.WebSocketConnectionsTotal.Dec()
		h.presence.Unwatch(client.AppID)
	}
}

// Broadcast sends message to every viewer of appID.
func (h *Hub) Broadcast(appID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[appID] {
		c.TrySend(message)
	}
}

// Count returns the number of local viewers of appID.
func (h *Hub) Count(appID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[appID])
}

// IsWatched reports whether appID has a viewer on any process.
func (h *Hub) IsWatched(ctx context.Context, appID string) bool {
	return h.presence.IsWatched(ctx, appID)
}

// StartWiring subscribes to every app's feed channel and forwards payloads
// to that app's local viewers.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartFeedSubscriber(ctx, func(channel, payload string) {
		appID, ok := AppFromChannel(channel)
		if !ok {
			observability.GlobalLogger.Warn("invalid feed channel", "channel", channel)
			return
		}
		h.Broadcast(appID, []byte(payload))
	})
}

// Shutdown closes every connection with a going-away frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conns := h.conns
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	h.presence.Stop()

	for appID, clients := range conns {
		for client := range clients {
			observability.WebSocketAppConnections.WithLabelValues(appID).Dec()
			observability.WebSocketConnectionsTotal.Dec()
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				h.log.LogError(context.Background(), appID, err, "close")
			}
			_ = client.Conn.Close()
		}
	}
	return nil
}
