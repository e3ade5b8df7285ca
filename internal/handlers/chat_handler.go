package handlers

import (
	"net/http"

	"buzzchat_backend/internal/logger"
	modelChat "buzzchat_backend/internal/models/chat"
	chatService "buzzchat_backend/internal/services/chat"
	"buzzchat_backend/internal/services/dto"
	"buzzchat_backend/internal/ws"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves chat CRUD and membership management. Services are
// built per request from the request-scoped db so tests can run every
// handler inside a transaction.
type ChatHandler struct {
	*BaseHandler
	hub *ws.Hub
}

func NewChatHandler(base *BaseHandler, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{
		BaseHandler: base,
		hub:         hub,
	}
}

func (h *ChatHandler) RegisterRoutes(rg *gin.RouterGroup) {
	chats := rg.Group("/chats")
	{
		chats.POST("/direct", h.CreateDirectChat)
		chats.POST("/group", h.CreateGroupChat)
		chats.GET("", h.GetUserChats)
		chats.GET("/:chatID", h.GetChat)
		chats.PUT("/:chatID", h.UpdateChat)
		chats.DELETE("/:chatID", h.DeleteChat)
		chats.POST("/:chatID/leave", h.LeaveChat)

		chats.GET("/:chatID/members", h.GetChatMembers)
		chats.POST("/:chatID/members", h.AddMembers)
		chats.DELETE("/:chatID/members/:userID", h.RemoveMember)
		chats.PUT("/:chatID/members/:userID/role", h.UpdateMemberRole)
	}
}

func (h *ChatHandler) CreateDirectChat(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateDirectChatRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	chat, err := svc.CreateDirectChat(userID, req.UserID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) CreateGroupChat(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateGroupChatRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	chat, err := svc.CreateGroupChat(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.hub.Broadcast(chat.ID, ws.Event{Type: ws.EventChatCreated, ChatID: chat.ID, Payload: chat})
	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) GetUserChats(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	chats, err := svc.GetUserChats(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats, "total": len(chats)})
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	chat, err := svc.GetChat(chatID, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) UpdateChat(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.UpdateChatRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	chat, err := svc.UpdateChat(chatID, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.hub.Broadcast(chatID, ws.Event{Type: ws.EventChatUpdated, ChatID: chatID, Payload: chat})
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) DeleteChat(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))

	// Members are resolved before deletion, the cascade removes them.
	memberIDs, memberErr := svc.ActiveMemberIDs(chatID)
	if memberErr != nil {
		logger.CtxWarn(c.Request.Context(), "failed to resolve members before chat deletion, skipping broadcast",
			"chat_id", chatID, "error", memberErr)
	}

	if err := svc.DeleteChat(chatID, userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if memberErr == nil {
		h.hub.BroadcastToUsers(memberIDs, ws.Event{Type: ws.EventChatDeleted, ChatID: chatID})
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted"})
}

func (h *ChatHandler) LeaveChat(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	if err := svc.LeaveChat(chatID, userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.hub.Broadcast(chatID, ws.Event{
		Type:    ws.EventMemberLeft,
		ChatID:  chatID,
		Payload: gin.H{"user_id": userID},
	})
	c.JSON(http.StatusOK, gin.H{"message": "Left chat"})
}

func (h *ChatHandler) GetChatMembers(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.ChatMembersListRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	members, total, err := svc.GetChatMembers(chatID, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": members,
		"total":   total,
		"page":    req.Page,
		"limit":   req.Limit,
	})
}

func (h *ChatHandler) AddMembers(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.AddMembersRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	chat, err := svc.AddMembers(chatID, userID, req.UserIDs)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.hub.Broadcast(chatID, ws.Event{
		Type:    ws.EventMemberAdded,
		ChatID:  chatID,
		Payload: gin.H{"user_ids": req.UserIDs},
	})
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) RemoveMember(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	targetID, err := ParseParamID(c, "userID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	if err := svc.RemoveMember(chatID, userID, targetID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.hub.Broadcast(chatID, ws.Event{
		Type:    ws.EventMemberRemoved,
		ChatID:  chatID,
		Payload: gin.H{"user_id": targetID},
	})
	// The removed user no longer resolves as a member, notify directly.
	h.hub.BroadcastToUsers([]uint{targetID}, ws.Event{
		Type:    ws.EventMemberRemoved,
		ChatID:  chatID,
		Payload: gin.H{"user_id": targetID},
	})
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

func (h *ChatHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	targetID, err := ParseParamID(c, "userID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.UpdateMemberRoleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	svc := chatService.NewChatService(h.GetDB(c))
	member, err := svc.UpdateMemberRole(chatID, userID, targetID, modelChat.MemberRole(req.Role))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.hub.Broadcast(chatID, ws.Event{
		Type:    ws.EventMemberRoleUpdated,
		ChatID:  chatID,
		Payload: member,
	})
	c.JSON(http.StatusOK, member)
}
