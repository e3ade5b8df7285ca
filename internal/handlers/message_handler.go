package handlers

import (
	"net/http"

	chatService "buzzchat_backend/internal/services/chat"
	"buzzchat_backend/internal/services/dto"
	"buzzchat_backend/internal/ws"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves the message lifecycle plus reactions, read
// receipts, search and mentions.
type MessageHandler struct {
	*BaseHandler
	hub *ws.Hub
}

func NewMessageHandler(base *BaseHandler, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{
		BaseHandler: base,
		hub:         hub,
	}
}

func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	messages := rg.Group("/messages")
	{
		messages.POST("", h.SendMessage)
		messages.GET("/search", h.SearchMessages)
		messages.GET("/mentions", h.GetMentions)
		messages.POST("/read", h.MarkAsRead)
		messages.GET("/:messageID", h.GetMessage)
		messages.PUT("/:messageID", h.UpdateMessage)
		messages.DELETE("/:messageID", h.DeleteMessage)

		messages.POST("/:messageID/reactions", h.AddReaction)
		messages.DELETE("/:messageID/reactions/:emoji", h.RemoveReaction)
		messages.GET("/:messageID/reactions", h.GetReactions)
		messages.GET("/:messageID/read-receipts", h.GetReadReceipts)
	}

	chats := rg.Group("/chats")
	{
		chats.GET("/:chatID/messages", h.GetMessages)
		chats.GET("/:chatID/unread-count", h.GetUnreadCount)
	}
}

func (h *MessageHandler) messageService(c *gin.Context) *chatService.MessageService {
	return chatService.NewMessageService(h.GetDB(c), chatService.NewMentionService())
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	msg, err := h.messageService(c).SendMessage(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.hub.Broadcast(msg.ChatID, ws.Event{Type: ws.EventMessageCreated, ChatID: msg.ChatID, Payload: msg})
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) GetMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messageID, err := ParseParamID(c, "messageID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	msg, err := h.messageService(c).GetMessage(messageID, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messageID, err := ParseParamID(c, "messageID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.UpdateMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	msg, err := h.messageService(c).UpdateMessage(messageID, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.hub.Broadcast(msg.ChatID, ws.Event{Type: ws.EventMessageUpdated, ChatID: msg.ChatID, Payload: msg})
	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messageID, err := ParseParamID(c, "messageID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	msg, err := h.messageService(c).DeleteMessage(messageID, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.hub.Broadcast(msg.ChatID, ws.Event{
		Type:    ws.EventMessageDeleted,
		ChatID:  msg.ChatID,
		Payload: gin.H{"message_id": msg.ID},
	})
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.MessageListRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	messages, err := h.messageService(c).GetMessages(chatID, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

func (h *MessageHandler) SearchMessages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SearchMessagesRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	messages, err := h.messageService(c).SearchMessages(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

func (h *MessageHandler) GetMentions(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	limit := ParseQueryInt(c, "limit", 50)

	messages, err := h.messageService(c).GetMentions(userID, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, err := ParseParamID(c, "chatID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	count, err := h.messageService(c).GetUnreadCount(chatID, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_id": chatID, "unread_count": count})
}

func (h *MessageHandler) AddReaction(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messageID, err := ParseParamID(c, "messageID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.AddReactionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	svc := chatService.NewReactionService(h.GetDB(c))
	if err := svc.AddReaction(messageID, userID, req.Emoji); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if msg, err := h.messageService(c).GetMessage(messageID, userID); err == nil {
		h.hub.Broadcast(msg.ChatID, ws.Event{
			Type:    ws.EventReactionAdded,
			ChatID:  msg.ChatID,
			Payload: gin.H{"message_id": messageID, "user_id": userID, "emoji": req.Emoji},
		})
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reaction added"})
}

func (h *MessageHandler) RemoveReaction(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messageID, err := ParseParamID(c, "messageID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	emoji := c.Param("emoji")

	svc := chatService.NewReactionService(h.GetDB(c))
	if err := svc.RemoveReaction(messageID, userID, emoji); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if msg, err := h.messageService(c).GetMessage(messageID, userID); err == nil {
		h.hub.Broadcast(msg.ChatID, ws.Event{
			Type:    ws.EventReactionRemoved,
			ChatID:  msg.ChatID,
			Payload: gin.H{"message_id": messageID, "user_id": userID, "emoji": emoji},
		})
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reaction removed"})
}

func (h *MessageHandler) GetReactions(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messageID, err := ParseParamID(c, "messageID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	svc := chatService.NewReactionService(h.GetDB(c))
	reactions, err := svc.GetReactions(messageID, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": reactions, "count": len(reactions)})
}

func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.MarkAsReadRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	svc := chatService.NewReadReceiptService(h.GetDB(c))
	if err := svc.MarkAsRead(req.MessageIDs, userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read"})
}

func (h *MessageHandler) GetReadReceipts(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messageID, err := ParseParamID(c, "messageID")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	svc := chatService.NewReadReceiptService(h.GetDB(c))
	receipts, err := svc.GetReadReceipts(messageID, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"receipts": receipts, "count": len(receipts)})
}
