package chat

import (
	"buzzchat_backend/internal/models/chat"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageReadReceiptRepository struct {
	DB *gorm.DB
}

func NewMessageReadReceiptRepository(db *gorm.DB) *MessageReadReceiptRepository {
	return &MessageReadReceiptRepository{DB: db}
}

// CreateMany inserts receipts. Concurrent duplicates are swallowed by the
// unique index, keeping the first ReadAt.
func (r *MessageReadReceiptRepository) CreateMany(receipts []chat.MessageReadReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&receipts).Error
}

func (r *MessageReadReceiptRepository) Exists(messageID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&chat.MessageReadReceipt{}).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *MessageReadReceiptRepository) FindByMessage(messageID uint) ([]chat.MessageReadReceipt, error) {
	var receipts []chat.MessageReadReceipt
	err := r.DB.
		Where("message_id = ?", messageID).
		Order("read_at ASC").
		Find(&receipts).Error
	return receipts, err
}
