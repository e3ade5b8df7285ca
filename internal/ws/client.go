package ws

import (
	"encoding/json"
	"time"

	"buzzchat_backend/internal/logger"
	chatService "buzzchat_backend/internal/services/chat"

	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// IncomingMessage is the client-to-server frame: an action name plus a raw
// payload decoded per action.
type IncomingMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type Client struct {
	UserID uint
	conn   *websocket.Conn
	send   chan Event

	hub *Hub
	db  *gorm.DB
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msgBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read error", "user_id", c.UserID, "error", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			logger.Debug("ws: failed to parse incoming frame", "user_id", c.UserID, "error", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				logger.Debug("ws write error", "user_id", c.UserID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg IncomingMessage) {
	switch msg.Action {

	case "typing":
		var payload struct {
			ChatID uint `json:"chat_id"`
			Typing bool `json:"typing"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			logger.Debug("ws: invalid typing payload", "user_id", c.UserID, "error", err)
			return
		}
		// Only members may signal typing; GetChat enforces membership.
		svc := chatService.NewChatService(c.db)
		if _, err := svc.GetChat(payload.ChatID, c.UserID); err != nil {
			return
		}
		c.hub.Broadcast(payload.ChatID, Event{
			Type:   EventTyping,
			ChatID: payload.ChatID,
			Payload: map[string]any{
				"user_id": c.UserID,
				"typing":  payload.Typing,
			},
		})

	case "mark_as_read":
		var payload struct {
			ChatID     uint   `json:"chat_id"`
			MessageIDs []uint `json:"message_ids"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			logger.Debug("ws: invalid mark_as_read payload", "user_id", c.UserID, "error", err)
			return
		}
		// Same membership gate as typing: only members may emit read
		// events into a chat's stream.
		if _, err := chatService.NewChatService(c.db).GetChat(payload.ChatID, c.UserID); err != nil {
			return
		}
		svc := chatService.NewReadReceiptService(c.db)
		if err := svc.MarkAsRead(payload.MessageIDs, c.UserID); err != nil {
			logger.Warn("ws: failed to mark messages as read", "user_id", c.UserID, "error", err)
			return
		}
		c.hub.Broadcast(payload.ChatID, Event{
			Type:   EventMessagesRead,
			ChatID: payload.ChatID,
			Payload: map[string]any{
				"user_id":     c.UserID,
				"message_ids": payload.MessageIDs,
			},
		})

	default:
		logger.Debug("ws: unhandled action", "user_id", c.UserID, "action", msg.Action)
	}
}
