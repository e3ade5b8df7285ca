package dto

// CreateDirectChatRequest targets one other user; the actor comes from the
// session.
type CreateDirectChatRequest struct {
	UserID uint `json:"user_id" binding:"required" validate:"required,min=1"`
}

type CreateGroupChatRequest struct {
	Name        string  `json:"name" binding:"required" validate:"required,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	MemberIDs   []uint  `json:"member_ids" validate:"omitempty,dive,min=1"`
}

type UpdateChatRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	PhotoURL    *string `json:"photo_url,omitempty" validate:"omitempty,max=255"`
}

type AddMembersRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required" validate:"required,min=1,dive,min=1"`
}

type UpdateMemberRoleRequest struct {
	// Owner cannot be assigned here; ownership is fixed at creation.
	Role string `json:"role" binding:"required" validate:"required,oneof=admin member"`
}

type ChatMembersListRequest struct {
	Page  int     `form:"page" validate:"omitempty,min=1"`
	Limit int     `form:"limit" validate:"omitempty,min=1,max=100"`
	Role  *string `form:"role" validate:"omitempty,oneof=owner admin member"`
}

func (r *ChatMembersListRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = 50
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
}

func (r *ChatMembersListRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}
