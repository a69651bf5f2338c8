package ws

import (
	"context"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// typingExpiry is how long a typing indicator stays up without a refresh.
const typingExpiry = 4 * time.Second

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan Event

	ctx    context.Context
	cancel context.CancelFunc
}

type typingKey struct {
	ChatID string
	UserID string
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	tmu    sync.Mutex
	typing map[typingKey]*time.Timer
}

func NewHub() *Hub {
	return &Hub{
		clients: map[string]map[*Client]struct{}{},
		typing:  map[typingKey]*time.Timer{},
	}
}

func (h *Hub) AddClient(userID string, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan Event, 64),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	go c.keepAliveLoop()

	h.broadcastPresence()
	return c
}

func (h *Hub) RemoveClient(c *Client) {
	c.cancel()

	h.mu.Lock()
	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()

	_ = c.Conn.Close(websocket.StatusNormalClosure, "bye")
	h.broadcastPresence()
}

// OnlineUserIDs returns ids of users with at least one open connection.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) BroadcastToUsers(userIDs []string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range userIDs {
		for c := range h.clients[uid] {
			select {
			case c.Send <- ev:
			default:
				// channel full, drop
			}
		}
	}
}

// BroadcastAll sends ev to every connected client.
func (h *Hub) BroadcastAll(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for c := range set {
			select {
			case c.Send <- ev:
			default:
			}
		}
	}
}

func (h *Hub) broadcastPresence() {
	h.BroadcastAll(Event{Type: "presence", Data: h.OnlineUserIDs()})
}

// SetTyping shows a typing indicator for (chatID, userID) to targets and
// arms a single-shot expiry timer. Repeated calls refresh the timer; the
// indicator is withdrawn when it fires.
func (h *Hub) SetTyping(chatID, userID string, targets []string) {
	key := typingKey{ChatID: chatID, UserID: userID}

	h.tmu.Lock()
	if t, ok := h.typing[key]; ok {
		t.Stop()
	}
	h.typing[key] = time.AfterFunc(typingExpiry, func() {
		h.tmu.Lock()
		delete(h.typing, key)
		h.tmu.Unlock()
		h.BroadcastToUsers(targets, Event{Type: "typing:stop", Data: map[string]string{"chat_id": chatID, "user_id": userID}})
	})
	h.tmu.Unlock()

	h.BroadcastToUsers(targets, Event{Type: "typing:start", Data: map[string]string{"chat_id": chatID, "user_id": userID}})
}

// StopTyping cancels a pending indicator early (e.g. the message was sent).
func (h *Hub) StopTyping(chatID, userID string, targets []string) {
	key := typingKey{ChatID: chatID, UserID: userID}

	h.tmu.Lock()
	t, ok := h.typing[key]
	if ok {
		t.Stop()
		delete(h.typing, key)
	}
	h.tmu.Unlock()

	if ok {
		h.BroadcastToUsers(targets, Event{Type: "typing:stop", Data: map[string]string{"chat_id": chatID, "user_id": userID}})
	}
}

func (c *Client) writeLoop() {
	defer close(c.Send)

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.Send:
			writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = wsjson.Write(writeCtx, c.Conn, ev)
			cancel()
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.Conn.Ping(pingCtx)
			cancel()
		}
	}
}
