package chat

import "time"

// MessageReaction is a (message, user, emoji) triple. The composite unique
// index makes duplicate submissions a storage-level no-op candidate rather
// than a second row.
type MessageReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:uniq_message_user_emoji" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uniq_message_user_emoji" json:"user_id"`
	Emoji     string    `gorm:"type:varchar(16);not null;uniqueIndex:uniq_message_user_emoji" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

func (MessageReaction) TableName() string {
	return "message_reactions"
}
