package models

import "time"

// User is an identity record. The chat core only reads users; it never
// mutates them.
type User struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Phone     *string `gorm:"size:20;uniqueIndex" json:"phone,omitempty"`
	Email     *string `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	FirstName string  `gorm:"size:100;not null" json:"first_name"`
	LastName  string  `gorm:"size:100;not null" json:"last_name"`
	IsActive  bool    `gorm:"default:false;index" json:"is_active"`

	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
