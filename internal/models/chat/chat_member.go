package chat

import "time"

// MemberRole is a closed enum: owner > admin > member.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

func (r MemberRole) Valid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// ChatMember is one (chat, user) membership row. Leaving or being removed
// sets LeftAt; the row is kept for history and a rejoin creates a new row.
// Uniqueness of the active pairing is enforced by a partial unique index on
// (chat_id, user_id) WHERE left_at IS NULL, created in the migration.
type ChatMember struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	ChatID   uint       `gorm:"not null;index:idx_chat_members_active" json:"chat_id"`
	UserID   uint       `gorm:"not null;index" json:"user_id"`
	Role     MemberRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `gorm:"index:idx_chat_members_active" json:"left_at,omitempty"`
}

func (ChatMember) TableName() string {
	return "chat_members"
}

// IsActive reports whether the membership is current.
func (m *ChatMember) IsActive() bool {
	return m.LeftAt == nil
}

func (m *ChatMember) IsOwner() bool {
	return m.Role == RoleOwner
}

// CanManageChat reports whether the member may add/remove members and edit
// chat metadata. Only meaningful on active rows; historical rows never grant
// permissions.
func (m *ChatMember) CanManageChat() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}
