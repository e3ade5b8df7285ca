package ws

// Event types pushed to connected clients.
const (
	EventChatCreated       = "chat.created"
	EventChatUpdated       = "chat.updated"
	EventChatDeleted       = "chat.deleted"
	EventMemberAdded       = "member.added"
	EventMemberRemoved     = "member.removed"
	EventMemberLeft        = "member.left"
	EventMemberRoleUpdated = "member.role_updated"
	EventMessageCreated    = "message.created"
	EventMessageUpdated    = "message.updated"
	EventMessageDeleted    = "message.deleted"
	EventReactionAdded     = "reaction.added"
	EventReactionRemoved   = "reaction.removed"
	EventMessagesRead      = "messages.read"
	EventTyping            = "typing"
)

type Event struct {
	Type    string `json:"type"`
	ChatID  uint   `json:"chat_id,omitempty"`
	Payload any    `json:"payload,omitempty"`
}
