package handlers

import (
	"errors"
	"net/http"

	"buzzchat_backend/internal/auth"
	"buzzchat_backend/internal/middleware"
	"buzzchat_backend/internal/repositories"
	chatService "buzzchat_backend/internal/services/chat"
	"buzzchat_backend/internal/ws"
	"buzzchat_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// InternalHandler serves service-to-service endpoints used by the realtime
// gateway. All routes are guarded by a static API key, not user tokens.
type InternalHandler struct {
	*BaseHandler
	tokens *auth.TokenManager
	hub    *ws.Hub
	apiKey string
}

func NewInternalHandler(base *BaseHandler, tokens *auth.TokenManager, hub *ws.Hub, apiKey string) *InternalHandler {
	return &InternalHandler{
		BaseHandler: base,
		tokens:      tokens,
		hub:         hub,
		apiKey:      apiKey,
	}
}

func (h *InternalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	internal := rg.Group("/internal")
	internal.Use(middleware.InternalAPIMiddleware(h.apiKey))
	{
		internal.POST("/auth/validate", h.ValidateToken)
		internal.GET("/users/:userID", h.GetUser)
		internal.GET("/users/:userID/presence", h.GetUserPresence)
		internal.GET("/chats/:chatID/members", h.GetChatMemberIDs)
	}
}

// ValidateToken lets the gateway exchange a client token for a user id.
func (h *InternalHandler) ValidateToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	claims, err := h.tokens.Parse(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "user_id": claims.UserID})
}

func (h *InternalHandler) GetUser(c *gin.Context) {
	userID, err := ParseParamID(c, "userID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	users := repositories.NewUserRepository(h.GetDB(c))
	user, err := users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			h.HandleServiceError(c, apperrors.ErrUserNotFound(userID))
			return
		}
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "display_name": user.DisplayName()})
}

// GetUserPresence reports whether the user has at least one open connection,
// along with the total number of connected clients.
func (h *InternalHandler) GetUserPresence(c *gin.Context) {
	userID, err := ParseParamID(c, "userID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":           userID,
		"online":            h.hub.IsUserConnected(userID),
		"connected_clients": h.hub.ClientCount(),
	})
}

// GetChatMemberIDs reports the active member ids of a chat. The gateway
// calls this on every fan-out so membership is never cached.
func (h *InternalHandler) GetChatMemberIDs(c *gin.Context) {
	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	memberIDs, err := svc.ActiveMemberIDs(chatID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_id": chatID, "member_ids": memberIDs})
}
