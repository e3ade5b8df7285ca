package chat

import (
	"errors"

	"buzzchat_backend/internal/models/chat"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

// FindByID returns the chat or nil when it does not exist.
func (r *ChatRepository) FindByID(id uint) (*chat.Chat, error) {
	var c chat.Chat
	err := r.DB.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindDirectChatBetween looks up the direct chat for a user pair via the
// canonical direct key.
func (r *ChatRepository) FindDirectChatBetween(userA, userB uint) (*chat.Chat, error) {
	var c chat.Chat
	key := chat.DirectKeyFor(userA, userB)
	err := r.DB.First(&c, "direct_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persists the chat together with any attached member rows.
func (r *ChatRepository) Create(c *chat.Chat) error {
	return r.DB.Create(c).Error
}

func (r *ChatRepository) Save(c *chat.Chat) error {
	return r.DB.Save(c).Error
}

// DeleteCascade removes the chat with its members, messages, reactions and
// read receipts. Explicit deletes keep the behavior identical across
// backends regardless of FK enforcement.
func (r *ChatRepository) DeleteCascade(chatID uint) error {
	var messageIDs []uint
	if err := r.DB.Model(&chat.Message{}).Where("chat_id = ?", chatID).Pluck("id", &messageIDs).Error; err != nil {
		return err
	}

	if len(messageIDs) > 0 {
		if err := r.DB.Where("message_id IN ?", messageIDs).Delete(&chat.MessageReaction{}).Error; err != nil {
			return err
		}
		if err := r.DB.Where("message_id IN ?", messageIDs).Delete(&chat.MessageReadReceipt{}).Error; err != nil {
			return err
		}
		if err := r.DB.Where("chat_id = ?", chatID).Delete(&chat.Message{}).Error; err != nil {
			return err
		}
	}

	if err := r.DB.Where("chat_id = ?", chatID).Delete(&chat.ChatMember{}).Error; err != nil {
		return err
	}
	return r.DB.Delete(&chat.Chat{}, "id = ?", chatID).Error
}

// FindUserChats returns all chats where the user is an active member,
// most recently updated first.
func (r *ChatRepository) FindUserChats(userID uint) ([]chat.Chat, error) {
	var chats []chat.Chat
	err := r.DB.
		Joins("JOIN chat_members cm ON cm.chat_id = chats.id").
		Where("cm.user_id = ? AND cm.left_at IS NULL", userID).
		Order("chats.updated_at DESC").
		Find(&chats).Error
	return chats, err
}
