package chat

import (
	"errors"
	"fmt"

	"buzzchat_backend/internal/models/chat"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) Create(m *chat.Message) error {
	return r.DB.Create(m).Error
}

func (r *MessageRepository) Save(m *chat.Message) error {
	return r.DB.Save(m).Error
}

// FindByID returns the message or nil; soft-deleted rows are still returned
// so callers can report the right failure.
func (r *MessageRepository) FindByID(id uint) (*chat.Message, error) {
	var m chat.Message
	err := r.DB.First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByChat pages through non-deleted messages, newest first, strictly
// before the cursor id when given. Descending id order coincides with
// creation order, so no timestamp sort is needed.
func (r *MessageRepository) FindByChat(chatID uint, beforeID *uint, limit int) ([]chat.Message, error) {
	q := r.DB.
		Preload("ReplyTo").
		Preload("Reactions").
		Where("chat_id = ? AND deleted_at IS NULL", chatID).
		Order("id DESC").
		Limit(limit)

	if beforeID != nil {
		q = q.Where("id < ?", *beforeID)
	}

	var messages []chat.Message
	err := q.Find(&messages).Error
	return messages, err
}

// CountUnread counts non-deleted messages authored by others that carry no
// read receipt from the user.
func (r *MessageRepository) CountUnread(chatID, userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&chat.Message{}).
		Where("chat_id = ? AND user_id != ? AND deleted_at IS NULL", chatID, userID).
		Where("NOT EXISTS (SELECT 1 FROM message_read_receipts r WHERE r.message_id = messages.id AND r.user_id = ?)", userID).
		Count(&count).Error
	return count, err
}

// Search matches message text, optionally scoped to one chat.
func (r *MessageRepository) Search(query string, chatID *uint, limit int) ([]chat.Message, error) {
	q := r.DB.
		Where("deleted_at IS NULL").
		Where("text LIKE ?", "%"+query+"%").
		Order("id DESC").
		Limit(limit)

	if chatID != nil {
		q = q.Where("chat_id = ?", *chatID)
	}

	var messages []chat.Message
	err := q.Find(&messages).Error
	return messages, err
}

// FindMentions returns non-deleted messages whose mentions array contains
// the user id. Postgres stores the column as JSONB and uses native
// containment; JSONArrayQuery covers the sqlite dialect used in tests.
func (r *MessageRepository) FindMentions(userID uint, limit int) ([]chat.Message, error) {
	q := r.DB.Where("deleted_at IS NULL")
	if r.DB.Dialector.Name() == "postgres" {
		q = q.Where("mentions @> ?", datatypes.JSON(fmt.Sprintf("[%d]", userID)))
	} else {
		q = q.Where(datatypes.JSONArrayQuery("mentions").Contains(userID))
	}

	var messages []chat.Message
	err := q.
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// FindLastInChat returns the newest non-deleted message or nil.
func (r *MessageRepository) FindLastInChat(chatID uint) (*chat.Message, error) {
	var m chat.Message
	err := r.DB.
		Where("chat_id = ? AND deleted_at IS NULL", chatID).
		Order("id DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
