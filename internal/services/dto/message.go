package dto

type SendMessageRequest struct {
	ChatID    uint    `json:"chat_id" binding:"required" validate:"required,min=1"`
	Text      string  `json:"text" binding:"required" validate:"required,min=1,max=5000"`
	ReplyToID *uint   `json:"reply_to_id,omitempty" validate:"omitempty,min=1"`
	Type      *string `json:"type,omitempty" validate:"omitempty,oneof=text file image system"`
}

type UpdateMessageRequest struct {
	Text string `json:"text" binding:"required" validate:"required,min=1,max=5000"`
}

type MessageListRequest struct {
	BeforeID *uint `form:"before_id" validate:"omitempty,min=1"`
	Limit    int   `form:"limit" validate:"omitempty,min=1,max=100"`
}

func (r *MessageListRequest) Normalize() {
	if r.Limit < 1 {
		r.Limit = 50
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
}

type AddReactionRequest struct {
	Emoji string `json:"emoji" binding:"required" validate:"required,min=1,max=16"`
}

type MarkAsReadRequest struct {
	MessageIDs []uint `json:"message_ids" binding:"required" validate:"required,min=1,dive,min=1"`
}

type SearchMessagesRequest struct {
	Query  string `form:"q" binding:"required" validate:"required,min=1,max=255"`
	ChatID *uint  `form:"chat_id" validate:"omitempty,min=1"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

func (r *SearchMessagesRequest) Normalize() {
	if r.Limit < 1 {
		r.Limit = 50
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
}
