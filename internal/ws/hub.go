package ws

import (
	"sync"

	"buzzchat_backend/internal/logger"
)

// MemberResolver reports the active member ids of a chat. The hub calls it
// on every fan-out; membership is never cached here, so a removed member
// stops receiving events immediately.
type MemberResolver func(chatID uint) ([]uint, error)

// Hub tracks connected clients keyed by user id. A user may hold several
// connections (multiple devices), each with its own send queue.
type Hub struct {
	clients    map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	resolveMembers MemberResolver
}

func NewHub(resolveMembers MemberResolver) *Hub {
	return &Hub{
		clients:        make(map[uint]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		resolveMembers: resolveMembers,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			logger.Debug("ws client registered", "user_id", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.UserID]; ok {
				if conns[client] {
					delete(conns, client)
					close(client.send)
				}
				if len(conns) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
			logger.Debug("ws client unregistered", "user_id", client.UserID)
		}
	}
}

// Broadcast fans an event out to the current active members of a chat.
func (h *Hub) Broadcast(chatID uint, event Event) {
	if h == nil {
		return
	}
	memberIDs, err := h.resolveMembers(chatID)
	if err != nil {
		logger.Error("ws broadcast: failed to resolve chat members", "chat_id", chatID, "error", err)
		return
	}
	h.BroadcastToUsers(memberIDs, event)
}

// BroadcastToUsers delivers an event to every connection of the given users.
func (h *Hub) BroadcastToUsers(userIDs []uint, event Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		for client := range h.clients[userID] {
			select {
			case client.send <- event:
			default:
				// Send queue is full, drop the connection.
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}
