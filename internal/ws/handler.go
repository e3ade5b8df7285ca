package ws

import (
	"net/http"
	"strings"

	"buzzchat_backend/internal/auth"
	"buzzchat_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades authenticated connections and attaches them to the hub.
// Browsers cannot set headers on websocket upgrades, so the token is also
// accepted as a query parameter.
type Handler struct {
	hub    *Hub
	tokens *auth.TokenManager
	db     *gorm.DB
}

func NewHandler(hub *Hub, tokens *auth.TokenManager, db *gorm.DB) *Handler {
	return &Handler{
		hub:    hub,
		tokens: tokens,
		db:     db,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.Serve)
}

func (h *Handler) Serve(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.GetHeader("Authorization")
		tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	claims, err := h.tokens.Parse(tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := &Client{
		UserID: claims.UserID,
		conn:   conn,
		send:   make(chan Event, sendQueueSize),
		hub:    h.hub,
		db:     h.db,
	}

	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
