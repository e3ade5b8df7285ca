package chat

import (
	"errors"
	"time"

	"buzzchat_backend/internal/models/chat"

	"gorm.io/gorm"
)

type ChatMemberRepository struct {
	DB *gorm.DB
}

func NewChatMemberRepository(db *gorm.DB) *ChatMemberRepository {
	return &ChatMemberRepository{DB: db}
}

// FindActiveByChatAndUser returns the current membership row or nil.
// Historical rows (left_at set) are never returned: they grant nothing.
func (r *ChatMemberRepository) FindActiveByChatAndUser(chatID, userID uint) (*chat.ChatMember, error) {
	var m chat.ChatMember
	err := r.DB.
		Where("chat_id = ? AND user_id = ? AND left_at IS NULL", chatID, userID).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// IsMemberOfChat reports active membership.
func (r *ChatMemberRepository) IsMemberOfChat(chatID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&chat.ChatMember{}).
		Where("chat_id = ? AND user_id = ? AND left_at IS NULL", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

// ActiveUserIDs returns the ids of all active members of a chat.
func (r *ChatMemberRepository) ActiveUserIDs(chatID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&chat.ChatMember{}).
		Where("chat_id = ? AND left_at IS NULL", chatID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ChatMemberRepository) CountActiveByChat(chatID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&chat.ChatMember{}).
		Where("chat_id = ? AND left_at IS NULL", chatID).
		Count(&count).Error
	return count, err
}

func (r *ChatMemberRepository) Create(m *chat.ChatMember) error {
	return r.DB.Create(m).Error
}

func (r *ChatMemberRepository) CreateMany(members []chat.ChatMember) error {
	if len(members) == 0 {
		return nil
	}
	return r.DB.Create(&members).Error
}

// MarkLeft stamps left_at on the row, turning it historical.
func (r *ChatMemberRepository) MarkLeft(memberID uint, at time.Time) error {
	return r.DB.Model(&chat.ChatMember{}).
		Where("id = ?", memberID).
		Update("left_at", at).Error
}

func (r *ChatMemberRepository) UpdateRole(memberID uint, role chat.MemberRole) error {
	return r.DB.Model(&chat.ChatMember{}).
		Where("id = ?", memberID).
		Update("role", role).Error
}

// FindActiveWithPagination lists active members with an optional role filter.
func (r *ChatMemberRepository) FindActiveWithPagination(chatID uint, offset, limit int, role *chat.MemberRole) ([]chat.ChatMember, int64, error) {
	q := r.DB.Model(&chat.ChatMember{}).
		Where("chat_id = ? AND left_at IS NULL", chatID)
	if role != nil {
		q = q.Where("role = ?", *role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []chat.ChatMember
	err := q.Order("joined_at ASC").Offset(offset).Limit(limit).Find(&members).Error
	return members, total, err
}
