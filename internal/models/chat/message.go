package chat

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// MessageType is a closed enum.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeFile   MessageType = "file"
	MessageTypeImage  MessageType = "image"
	MessageTypeSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeFile, MessageTypeImage, MessageTypeSystem:
		return true
	}
	return false
}

// Message id assignment is the auto-increment primary key, so ids are
// monotonic in creation order. The beforeId cursor pagination contract
// depends on that.
type Message struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	ChatID uint        `gorm:"not null;index" json:"chat_id"`
	UserID uint        `gorm:"not null;index" json:"user_id"`
	Type   MessageType `gorm:"type:varchar(20);not null;default:'text'" json:"type"`
	Text   *string     `gorm:"type:text" json:"text,omitempty"`

	// ReplyToID always points into the same chat; cross-chat references are
	// dropped before the message is stored.
	ReplyToID *uint `gorm:"index" json:"reply_to_id,omitempty"`

	// Mentions is a JSON array of user ids extracted from the text.
	Mentions datatypes.JSON `json:"mentions,omitempty"`

	EditedAt  *time.Time `json:"edited_at,omitempty"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	ReplyTo      *Message             `gorm:"foreignKey:ReplyToID" json:"reply_to,omitempty"`
	Reactions    []MessageReaction    `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"reactions,omitempty"`
	ReadReceipts []MessageReadReceipt `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"read_receipts,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// IsDeleted reports whether the message was soft-deleted. Deleted messages
// are immutable.
func (m *Message) IsDeleted() bool {
	return m.DeletedAt != nil
}

// SetMentions stores the user ids as JSON, or clears the column when empty.
func (m *Message) SetMentions(userIDs []uint) error {
	if len(userIDs) == 0 {
		m.Mentions = nil
		return nil
	}
	raw, err := json.Marshal(userIDs)
	if err != nil {
		return err
	}
	m.Mentions = datatypes.JSON(raw)
	return nil
}

// MentionedUserIDs decodes the mentions column. A broken column yields nil.
func (m *Message) MentionedUserIDs() []uint {
	if len(m.Mentions) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(m.Mentions, &ids); err != nil {
		return nil
	}
	return ids
}
