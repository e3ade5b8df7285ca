package chat

import (
	"time"

	modelChat "buzzchat_backend/internal/models/chat"
	repoChat "buzzchat_backend/internal/repositories/chat"
	"buzzchat_backend/internal/services/dto"
	"buzzchat_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// MessageService owns the message lifecycle:
//
//	(none) --send--> active --edit--> active (repeatable)
//	active --delete--> deleted (terminal, further edits and deletes rejected)
//
// Membership is checked fresh against the store on every operation, since a
// leave or removal can land between any two calls.
type MessageService struct {
	db       *gorm.DB
	mentions *MentionService
}

func NewMessageService(db *gorm.DB, mentions *MentionService) *MessageService {
	return &MessageService{db: db, mentions: mentions}
}

// SendMessage stores a new message. A reply reference is attached only when
// the referenced message lives in the same chat; otherwise the link is
// dropped without error.
func (s *MessageService) SendMessage(authorID uint, req *dto.SendMessageRequest) (*modelChat.Message, error) {
	var result *modelChat.Message
	err := s.db.Transaction(func(tx *gorm.DB) error {
		chats := repoChat.NewChatRepository(tx)
		c, err := chats.FindByID(req.ChatID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if c == nil {
			return apperrors.ErrChatNotFound(req.ChatID)
		}

		members := repoChat.NewChatMemberRepository(tx)
		isMember, err := members.IsMemberOfChat(req.ChatID, authorID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if !isMember {
			return apperrors.ErrNotChatMember()
		}

		msgType := modelChat.MessageTypeText
		if req.Type != nil {
			msgType = modelChat.MessageType(*req.Type)
			if !msgType.Valid() {
				return apperrors.ErrInvalidChatOperation("Unknown message type")
			}
		}

		text := req.Text
		message := &modelChat.Message{
			ChatID: req.ChatID,
			UserID: authorID,
			Type:   msgType,
			Text:   &text,
		}

		messages := repoChat.NewMessageRepository(tx)
		if req.ReplyToID != nil {
			replyTo, err := messages.FindByID(*req.ReplyToID)
			if err != nil {
				return apperrors.InternalError(err)
			}
			if replyTo != nil && replyTo.ChatID == req.ChatID {
				message.ReplyToID = &replyTo.ID
			}
		}

		mentionIDs, err := s.mentions.ExtractMentions(tx, text)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if err := message.SetMentions(mentionIDs); err != nil {
			return apperrors.InternalError(err)
		}

		if err := messages.Create(message); err != nil {
			return apperrors.InternalError(err)
		}
		result = message
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateMessage edits the text. Author only; a deleted message is immutable.
func (s *MessageService) UpdateMessage(messageID, actorID uint, req *dto.UpdateMessageRequest) (*modelChat.Message, error) {
	var result *modelChat.Message
	err := s.db.Transaction(func(tx *gorm.DB) error {
		messages := repoChat.NewMessageRepository(tx)
		message, err := messages.FindByID(messageID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if message == nil {
			return apperrors.ErrMessageNotFound(messageID)
		}
		if message.UserID != actorID {
			return apperrors.ErrNotMessageAuthor("edit")
		}
		if message.IsDeleted() {
			return apperrors.ErrEditDeletedMessage()
		}

		now := time.Now()
		text := req.Text
		message.Text = &text
		message.EditedAt = &now
		message.UpdatedAt = now

		mentionIDs, err := s.mentions.ExtractMentions(tx, text)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if err := message.SetMentions(mentionIDs); err != nil {
			return apperrors.InternalError(err)
		}

		if err := messages.Save(message); err != nil {
			return apperrors.InternalError(err)
		}
		result = message
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteMessage soft-deletes. Author only. Reactions and receipts stay in
// place so the chat can still render "message deleted". Re-deleting an
// already-deleted message is rejected.
func (s *MessageService) DeleteMessage(messageID, actorID uint) (*modelChat.Message, error) {
	var result *modelChat.Message
	err := s.db.Transaction(func(tx *gorm.DB) error {
		messages := repoChat.NewMessageRepository(tx)
		message, err := messages.FindByID(messageID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if message == nil {
			return apperrors.ErrMessageNotFound(messageID)
		}
		if message.UserID != actorID {
			return apperrors.ErrNotMessageAuthor("delete")
		}
		if message.IsDeleted() {
			return apperrors.ErrMessageAlreadyDeleted()
		}

		now := time.Now()
		message.DeletedAt = &now
		message.UpdatedAt = now

		if err := messages.Save(message); err != nil {
			return apperrors.InternalError(err)
		}
		result = message
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetMessages pages non-deleted messages newest first, strictly before the
// cursor. Requires active membership.
func (s *MessageService) GetMessages(chatID, actorID uint, req *dto.MessageListRequest) ([]modelChat.Message, error) {
	if err := s.requireMembership(chatID, actorID); err != nil {
		return nil, err
	}

	req.Normalize()
	messages, err := repoChat.NewMessageRepository(s.db).FindByChat(chatID, req.BeforeID, req.Limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return messages, nil
}

// GetMessage returns a single message after a membership check on its chat.
func (s *MessageService) GetMessage(messageID, actorID uint) (*modelChat.Message, error) {
	message, err := repoChat.NewMessageRepository(s.db).FindByID(messageID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if message == nil {
		return nil, apperrors.ErrMessageNotFound(messageID)
	}
	if err := s.requireMembership(message.ChatID, actorID); err != nil {
		return nil, err
	}
	return message, nil
}

// SearchMessages matches text, membership-checked when scoped to a chat.
func (s *MessageService) SearchMessages(actorID uint, req *dto.SearchMessagesRequest) ([]modelChat.Message, error) {
	if req.ChatID != nil {
		if err := s.requireMembership(*req.ChatID, actorID); err != nil {
			return nil, err
		}
	}

	req.Normalize()
	messages, err := repoChat.NewMessageRepository(s.db).Search(req.Query, req.ChatID, req.Limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return messages, nil
}

// GetMentions lists recent messages mentioning the user.
func (s *MessageService) GetMentions(userID uint, limit int) ([]modelChat.Message, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	messages, err := repoChat.NewMessageRepository(s.db).FindMentions(userID, limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return messages, nil
}

// GetUnreadCount counts unread messages in a chat for the user.
func (s *MessageService) GetUnreadCount(chatID, userID uint) (int64, error) {
	if err := s.requireMembership(chatID, userID); err != nil {
		return 0, err
	}
	count, err := repoChat.NewMessageRepository(s.db).CountUnread(chatID, userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

func (s *MessageService) requireMembership(chatID, userID uint) error {
	isMember, err := repoChat.NewChatMemberRepository(s.db).IsMemberOfChat(chatID, userID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if !isMember {
		return apperrors.ErrNotChatMember()
	}
	return nil
}
