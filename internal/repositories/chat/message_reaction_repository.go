package chat

import (
	"buzzchat_backend/internal/models/chat"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageReactionRepository struct {
	DB *gorm.DB
}

func NewMessageReactionRepository(db *gorm.DB) *MessageReactionRepository {
	return &MessageReactionRepository{DB: db}
}

// Add inserts the reaction. ON CONFLICT DO NOTHING rides the composite
// unique index, so a concurrent duplicate cannot produce a second row.
func (r *MessageReactionRepository) Add(reaction *chat.MessageReaction) error {
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(reaction).Error
}

// Remove deletes the triple; deleting a missing row is not an error.
func (r *MessageReactionRepository) Remove(messageID, userID uint, emoji string) error {
	return r.DB.
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&chat.MessageReaction{}).Error
}

func (r *MessageReactionRepository) Exists(messageID, userID uint, emoji string) (bool, error) {
	var count int64
	err := r.DB.Model(&chat.MessageReaction{}).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Count(&count).Error
	return count > 0, err
}

func (r *MessageReactionRepository) FindByMessage(messageID uint) ([]chat.MessageReaction, error) {
	var reactions []chat.MessageReaction
	err := r.DB.
		Where("message_id = ?", messageID).
		Order("id ASC").
		Find(&reactions).Error
	return reactions, err
}
