package chat

import (
	modelChat "buzzchat_backend/internal/models/chat"
	repoChat "buzzchat_backend/internal/repositories/chat"
	"buzzchat_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// ReactionService maintains the per-message reaction ledger.
type ReactionService struct {
	db *gorm.DB
}

func NewReactionService(db *gorm.DB) *ReactionService {
	return &ReactionService{db: db}
}

// AddReaction stores the (message, user, emoji) triple. Adding the same
// triple twice is a no-op, not an error.
func (s *ReactionService) AddReaction(messageID, userID uint, emoji string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		messages := repoChat.NewMessageRepository(tx)
		message, err := messages.FindByID(messageID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if message == nil {
			return apperrors.ErrMessageNotFound(messageID)
		}

		members := repoChat.NewChatMemberRepository(tx)
		isMember, err := members.IsMemberOfChat(message.ChatID, userID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if !isMember {
			return apperrors.ErrNotChatMember()
		}

		reactions := repoChat.NewMessageReactionRepository(tx)
		exists, err := reactions.Exists(messageID, userID, emoji)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if exists {
			return nil
		}

		reaction := &modelChat.MessageReaction{
			MessageID: messageID,
			UserID:    userID,
			Emoji:     emoji,
		}
		if err := reactions.Add(reaction); err != nil {
			return apperrors.InternalError(err)
		}
		return nil
	})
}

// RemoveReaction deletes the triple; removing an absent one is a no-op.
func (s *ReactionService) RemoveReaction(messageID, userID uint, emoji string) error {
	if err := repoChat.NewMessageReactionRepository(s.db).Remove(messageID, userID, emoji); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// GetReactions lists reactions on a message, membership-checked.
func (s *ReactionService) GetReactions(messageID, userID uint) ([]modelChat.MessageReaction, error) {
	message, err := repoChat.NewMessageRepository(s.db).FindByID(messageID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if message == nil {
		return nil, apperrors.ErrMessageNotFound(messageID)
	}

	isMember, err := repoChat.NewChatMemberRepository(s.db).IsMemberOfChat(message.ChatID, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !isMember {
		return nil, apperrors.ErrNotChatMember()
	}

	reactions, err := repoChat.NewMessageReactionRepository(s.db).FindByMessage(messageID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return reactions, nil
}
