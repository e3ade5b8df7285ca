package chat

import "time"

// MessageReadReceipt marks a message read by a user. One row per
// (message, user); ReadAt is set on first creation and never updated.
type MessageReadReceipt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:uniq_message_user" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uniq_message_user" json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

func (MessageReadReceipt) TableName() string {
	return "message_read_receipts"
}
