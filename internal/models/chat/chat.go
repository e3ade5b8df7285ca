package chat

import (
	"fmt"
	"time"
)

// ChatType is a closed enum. The type of a chat is fixed at creation.
type ChatType string

const (
	TypeDirect ChatType = "direct"
	TypeGroup  ChatType = "group"
)

type Chat struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Type        ChatType `gorm:"type:varchar(20);not null;index" json:"type"`
	Name        *string  `gorm:"size:255" json:"name,omitempty"`
	Description *string  `gorm:"size:500" json:"description,omitempty"`
	PhotoURL    *string  `gorm:"size:255" json:"photo_url,omitempty"`

	// DirectKey is "<minUserID>:<maxUserID>" for direct chats, NULL for
	// groups. The unique index closes the duplicate-creation race at the
	// storage layer.
	DirectKey *string `gorm:"size:64;uniqueIndex" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Members []ChatMember `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

func (Chat) TableName() string {
	return "chats"
}

func (c *Chat) IsDirect() bool {
	return c.Type == TypeDirect
}

// DirectKeyFor builds the canonical pair key regardless of argument order.
func DirectKeyFor(userA, userB uint) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d:%d", userA, userB)
}
