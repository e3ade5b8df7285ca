package chat

import (
	"errors"
	"time"

	"buzzchat_backend/internal/logger"
	modelChat "buzzchat_backend/internal/models/chat"
	"buzzchat_backend/internal/repositories"
	repoChat "buzzchat_backend/internal/repositories/chat"
	"buzzchat_backend/internal/services/dto"
	"buzzchat_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// ChatService is the facade enforcing the membership state machine. Every
// mutating operation runs in one transaction: a rejected operation leaves
// the store untouched, an accepted one commits atomically.
//
// Role transitions per user, per chat:
//
//	(none) --add--> member --promote--> admin --demote--> member
//	member/admin --leave/remove--> left (terminal)
//	owner --delete chat--> chat removed
//
// Owner is assigned only at group creation; nothing promotes to owner.
type ChatService struct {
	db *gorm.DB
}

// errDirectChatRaced aborts the creation transaction when the unique
// direct_key insert loses to a concurrent creation.
var errDirectChatRaced = errors.New("direct chat created concurrently")

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// CreateDirectChat returns the existing direct chat between the two users,
// or creates one with both as plain members. Idempotent by content.
func (s *ChatService) CreateDirectChat(actorID, otherID uint) (*modelChat.Chat, error) {
	if actorID == otherID {
		return nil, apperrors.ErrDirectChatWithSelf()
	}

	var result *modelChat.Chat
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users := repositories.NewUserRepository(tx)
		if _, err := users.FindByID(otherID); err != nil {
			if apperrors.Is(err, repositories.ErrUserNotFound) {
				return apperrors.ErrUserNotFound(otherID)
			}
			return apperrors.InternalError(err)
		}

		chats := repoChat.NewChatRepository(tx)
		existing, err := chats.FindDirectChatBetween(actorID, otherID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if existing != nil {
			result = existing
			return nil
		}

		now := time.Now()
		key := modelChat.DirectKeyFor(actorID, otherID)
		c := &modelChat.Chat{
			Type:      modelChat.TypeDirect,
			DirectKey: &key,
			Members: []modelChat.ChatMember{
				{UserID: actorID, Role: modelChat.RoleMember, JoinedAt: now},
				{UserID: otherID, Role: modelChat.RoleMember, JoinedAt: now},
			},
		}
		if err := chats.Create(c); err != nil {
			// A concurrent creation may have won the unique direct_key
			// race; everything else is a storage fault.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDirectChatRaced
			}
			return apperrors.InternalError(err)
		}

		result = c
		return nil
	})
	if errors.Is(err, errDirectChatRaced) {
		// The competing transaction committed first; hand back its chat.
		existing, lookupErr := repoChat.NewChatRepository(s.db).FindDirectChatBetween(actorID, otherID)
		if lookupErr != nil {
			return nil, apperrors.InternalError(lookupErr)
		}
		if existing == nil {
			return nil, apperrors.InternalError(err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateGroupChat creates a group with the actor as owner and each valid
// member id as a plain member. User validation is all-or-nothing: every
// missing id is reported before any row is written.
func (s *ChatService) CreateGroupChat(actorID uint, req *dto.CreateGroupChatRequest) (*modelChat.Chat, error) {
	var result *modelChat.Chat
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users := repositories.NewUserRepository(tx)

		memberIDs := dedupeIDs(req.MemberIDs, actorID)
		if _, missing, err := users.FindByIDs(memberIDs); err != nil {
			return apperrors.InternalError(err)
		} else if len(missing) > 0 {
			return apperrors.ErrUsersNotFound(missing)
		}

		now := time.Now()
		members := make([]modelChat.ChatMember, 0, len(memberIDs)+1)
		members = append(members, modelChat.ChatMember{
			UserID:   actorID,
			Role:     modelChat.RoleOwner,
			JoinedAt: now,
		})
		for _, id := range memberIDs {
			members = append(members, modelChat.ChatMember{
				UserID:   id,
				Role:     modelChat.RoleMember,
				JoinedAt: now,
			})
		}

		c := &modelChat.Chat{
			Type:        modelChat.TypeGroup,
			Name:        &req.Name,
			Description: req.Description,
			Members:     members,
		}
		if err := repoChat.NewChatRepository(tx).Create(c); err != nil {
			return apperrors.InternalError(err)
		}

		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("group chat created", "chat_id", result.ID, "owner_id", actorID, "members", len(result.Members))
	return result, nil
}

// UpdateChat updates group metadata. Requires canManageChat.
func (s *ChatService) UpdateChat(chatID, actorID uint, req *dto.UpdateChatRequest) (*modelChat.Chat, error) {
	var result *modelChat.Chat
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, _, err := s.loadChatForManagement(tx, chatID, actorID, "update chat")
		if err != nil {
			return err
		}

		if req.Name != nil {
			c.Name = req.Name
		}
		if req.Description != nil {
			c.Description = req.Description
		}
		if req.PhotoURL != nil {
			c.PhotoURL = req.PhotoURL
		}

		if err := repoChat.NewChatRepository(tx).Save(c); err != nil {
			return apperrors.InternalError(err)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddMembers adds users to a group chat. Ids already active in the chat are
// silently skipped; unknown ids fail the whole operation.
func (s *ChatService) AddMembers(chatID, actorID uint, userIDs []uint) (*modelChat.Chat, error) {
	var result *modelChat.Chat
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, _, err := s.loadChatForManagement(tx, chatID, actorID, "add members")
		if err != nil {
			return err
		}

		users := repositories.NewUserRepository(tx)
		ids := dedupeIDs(userIDs, 0)
		if _, missing, err := users.FindByIDs(ids); err != nil {
			return apperrors.InternalError(err)
		} else if len(missing) > 0 {
			return apperrors.ErrUsersNotFound(missing)
		}

		members := repoChat.NewChatMemberRepository(tx)
		now := time.Now()
		var rows []modelChat.ChatMember
		for _, id := range ids {
			active, err := members.IsMemberOfChat(chatID, id)
			if err != nil {
				return apperrors.InternalError(err)
			}
			if active {
				continue
			}
			rows = append(rows, modelChat.ChatMember{
				ChatID:   chatID,
				UserID:   id,
				Role:     modelChat.RoleMember,
				JoinedAt: now,
			})
		}
		if err := members.CreateMany(rows); err != nil {
			return apperrors.InternalError(err)
		}

		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveMember marks the target's membership row as left. The owner cannot
// be removed, and self-removal must go through LeaveChat.
func (s *ChatService) RemoveMember(chatID, actorID, targetID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if targetID == actorID {
			return apperrors.ErrCannotRemoveSelf()
		}

		_, _, err := s.loadChatForManagement(tx, chatID, actorID, "remove members")
		if err != nil {
			return err
		}

		members := repoChat.NewChatMemberRepository(tx)
		target, err := members.FindActiveByChatAndUser(chatID, targetID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if target == nil {
			return apperrors.ErrUserNotMember(targetID)
		}
		if target.IsOwner() {
			return apperrors.ErrCannotRemoveOwner()
		}

		if err := members.MarkLeft(target.ID, time.Now()); err != nil {
			return apperrors.InternalError(err)
		}
		return nil
	})
}

// LeaveChat marks the actor's own membership as left. Owners must transfer
// or delete instead; direct chats never lose members.
func (s *ChatService) LeaveChat(chatID, actorID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, member, err := s.loadChatWithMembership(tx, chatID, actorID)
		if err != nil {
			return err
		}
		if c.IsDirect() {
			return apperrors.ErrCannotModifyDirectChat()
		}
		if member.IsOwner() {
			return apperrors.ErrOwnerCannotLeave()
		}

		if err := repoChat.NewChatMemberRepository(tx).MarkLeft(member.ID, time.Now()); err != nil {
			return apperrors.InternalError(err)
		}
		return nil
	})
}

// UpdateMemberRole promotes or demotes between admin and member. Only the
// owner may do this, never on themselves, never on the owner row, and never
// to owner.
func (s *ChatService) UpdateMemberRole(chatID, actorID, targetID uint, role modelChat.MemberRole) (*modelChat.ChatMember, error) {
	if !role.Valid() || role == modelChat.RoleOwner {
		return nil, apperrors.ErrInvalidChatOperation("Role must be admin or member")
	}

	var result *modelChat.ChatMember
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if targetID == actorID {
			return apperrors.ErrCannotChangeOwnRole()
		}

		c, actor, err := s.loadChatWithMembership(tx, chatID, actorID)
		if err != nil {
			return err
		}
		if c.IsDirect() {
			return apperrors.ErrCannotModifyDirectChat()
		}
		if !actor.IsOwner() {
			return apperrors.ErrChatActionDenied("change member roles")
		}

		members := repoChat.NewChatMemberRepository(tx)
		target, err := members.FindActiveByChatAndUser(chatID, targetID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if target == nil {
			return apperrors.ErrUserNotMember(targetID)
		}
		if target.IsOwner() {
			return apperrors.ErrCannotChangeOwnerRole()
		}

		if err := members.UpdateRole(target.ID, role); err != nil {
			return apperrors.InternalError(err)
		}
		target.Role = role
		result = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteChat removes a group chat with all members, messages, reactions and
// receipts. Owner only.
func (s *ChatService) DeleteChat(chatID, actorID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, member, err := s.loadChatWithMembership(tx, chatID, actorID)
		if err != nil {
			return err
		}
		if c.IsDirect() {
			return apperrors.ErrCannotModifyDirectChat()
		}
		if !member.IsOwner() {
			return apperrors.ErrChatActionDenied("delete chat")
		}

		if err := repoChat.NewChatRepository(tx).DeleteCascade(chatID); err != nil {
			return apperrors.InternalError(err)
		}
		logger.Info("chat deleted", "chat_id", chatID, "actor_id", actorID)
		return nil
	})
}

// GetChat returns the chat after an active-membership check.
func (s *ChatService) GetChat(chatID, actorID uint) (*modelChat.Chat, error) {
	c, _, err := s.loadChatWithMembership(s.db, chatID, actorID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetUserChats lists chats the user is an active member of.
// ChatSummary is one row of the chat list: the chat plus the preview data
// clients render without opening it.
type ChatSummary struct {
	Chat        modelChat.Chat     `json:"chat"`
	LastMessage *modelChat.Message `json:"last_message,omitempty"`
	UnreadCount int64              `json:"unread_count"`
	MemberCount int64              `json:"member_count"`
}

func (s *ChatService) GetUserChats(userID uint) ([]ChatSummary, error) {
	chats, err := repoChat.NewChatRepository(s.db).FindUserChats(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	messages := repoChat.NewMessageRepository(s.db)
	members := repoChat.NewChatMemberRepository(s.db)

	summaries := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		last, err := messages.FindLastInChat(c.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		unread, err := messages.CountUnread(c.ID, userID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		memberCount, err := members.CountActiveByChat(c.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		summaries = append(summaries, ChatSummary{
			Chat:        c,
			LastMessage: last,
			UnreadCount: unread,
			MemberCount: memberCount,
		})
	}
	return summaries, nil
}

// GetChatMembers lists active members with pagination and optional role
// filter. Requires active membership.
func (s *ChatService) GetChatMembers(chatID, actorID uint, req *dto.ChatMembersListRequest) ([]modelChat.ChatMember, int64, error) {
	if _, _, err := s.loadChatWithMembership(s.db, chatID, actorID); err != nil {
		return nil, 0, err
	}

	req.Normalize()
	var role *modelChat.MemberRole
	if req.Role != nil {
		r := modelChat.MemberRole(*req.Role)
		role = &r
	}

	members, total, err := repoChat.NewChatMemberRepository(s.db).
		FindActiveWithPagination(chatID, req.Offset(), req.Limit, role)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return members, total, nil
}

// ActiveMemberIDs is the membership authority used by the event gateway.
// Always resolved fresh; never cached.
func (s *ChatService) ActiveMemberIDs(chatID uint) ([]uint, error) {
	return repoChat.NewChatMemberRepository(s.db).ActiveUserIDs(chatID)
}

// loadChatWithMembership loads the chat and the actor's active membership,
// failing with NotFound or AccessDenied. This is the single authorization
// gate: historical rows never pass it.
func (s *ChatService) loadChatWithMembership(tx *gorm.DB, chatID, actorID uint) (*modelChat.Chat, *modelChat.ChatMember, error) {
	c, err := repoChat.NewChatRepository(tx).FindByID(chatID)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	if c == nil {
		return nil, nil, apperrors.ErrChatNotFound(chatID)
	}

	member, err := repoChat.NewChatMemberRepository(tx).FindActiveByChatAndUser(chatID, actorID)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	if member == nil {
		return nil, nil, apperrors.ErrChatAccessDenied()
	}
	return c, member, nil
}

// loadChatForManagement additionally rejects direct chats and members below
// admin.
func (s *ChatService) loadChatForManagement(tx *gorm.DB, chatID, actorID uint, action string) (*modelChat.Chat, *modelChat.ChatMember, error) {
	c, member, err := s.loadChatWithMembership(tx, chatID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if c.IsDirect() {
		return nil, nil, apperrors.ErrCannotModifyDirectChat()
	}
	if !member.CanManageChat() {
		return nil, nil, apperrors.ErrChatActionDenied(action)
	}
	return c, member, nil
}

// dedupeIDs drops duplicates and the excluded id (0 excludes nothing).
func dedupeIDs(ids []uint, exclude uint) []uint {
	seen := make(map[uint]bool, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
