package chat

import (
	"testing"

	modelChat "buzzchat_backend/internal/models/chat"
	repoChat "buzzchat_backend/internal/repositories/chat"
	"buzzchat_backend/internal/services/dto"
	"buzzchat_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateDirectChat(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	chat, err := svc.CreateDirectChat(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, modelChat.TypeDirect, chat.Type)
	assert.Len(t, chat.Members, 2)
	for _, m := range chat.Members {
		assert.Equal(t, modelChat.RoleMember, m.Role)
	}

	// Same pair again, in either order, resolves to the same chat.
	again, err := svc.CreateDirectChat(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)

	reversed, err := svc.CreateDirectChat(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, reversed.ID)

	var count int64
	require.NoError(t, db.Model(&modelChat.Chat{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateDirectChat_WithSelf(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)
	alice := createUser(t, db, "alice")

	_, err := svc.CreateDirectChat(alice.ID, alice.ID)
	requireAppError(t, err, apperrors.CodeInvalidOperation)
}

func TestCreateDirectChat_UnknownUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)
	alice := createUser(t, db, "alice")

	_, err := svc.CreateDirectChat(alice.ID, 9999)
	requireAppError(t, err, apperrors.CodeNotFound)

	var count int64
	require.NoError(t, db.Model(&modelChat.Chat{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreateDirectChat_StorageFaultIsInternal(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	// Any insert into chats now fails like a storage fault would.
	require.NoError(t, db.Exec(`CREATE TRIGGER chats_fail_insert BEFORE INSERT ON chats
		BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END`).Error)

	_, err := svc.CreateDirectChat(alice.ID, bob.ID)
	requireAppError(t, err, apperrors.CodeInternalError)

	require.NoError(t, db.Exec(`DROP TRIGGER chats_fail_insert`).Error)
	var count int64
	require.NoError(t, db.Model(&modelChat.Chat{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreateDirectChat_DuplicateKeyTranslated(t *testing.T) {
	db := setupTestDB(t)
	repo := repoChat.NewChatRepository(db)

	key := modelChat.DirectKeyFor(1, 2)
	require.NoError(t, repo.Create(&modelChat.Chat{Type: modelChat.TypeDirect, DirectKey: &key}))

	// A losing concurrent insert surfaces as ErrDuplicatedKey, which the
	// creation path resolves by re-reading the winner's chat.
	dup := key
	err := repo.Create(&modelChat.Chat{Type: modelChat.TypeDirect, DirectKey: &dup})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCreateGroupChat(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	// The owner's id in the member list is ignored, not duplicated.
	chat, err := svc.CreateGroupChat(owner.ID, &dto.CreateGroupChatRequest{
		Name:      "project",
		MemberIDs: []uint{bob.ID, carol.ID, owner.ID, bob.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, modelChat.TypeGroup, chat.Type)
	require.Len(t, chat.Members, 3)

	roles := map[uint]modelChat.MemberRole{}
	for _, m := range chat.Members {
		roles[m.UserID] = m.Role
	}
	assert.Equal(t, modelChat.RoleOwner, roles[owner.ID])
	assert.Equal(t, modelChat.RoleMember, roles[bob.ID])
	assert.Equal(t, modelChat.RoleMember, roles[carol.ID])
}

func TestCreateGroupChat_MissingUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")

	// Every missing id is reported and nothing is created.
	_, err := svc.CreateGroupChat(owner.ID, &dto.CreateGroupChatRequest{
		Name:      "project",
		MemberIDs: []uint{bob.ID, 777, 888},
	})
	requireAppError(t, err, apperrors.CodeNotFound)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []uint{777, 888}, details["missing_ids"])

	var count int64
	require.NoError(t, db.Model(&modelChat.Chat{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAddMembers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	chat := createGroup(t, db, owner.ID, bob.ID)

	// Already-active ids are skipped silently.
	_, err := svc.AddMembers(chat.ID, owner.ID, []uint{bob.ID, carol.ID})
	require.NoError(t, err)

	ids, err := svc.ActiveMemberIDs(chat.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{owner.ID, bob.ID, carol.ID}, ids)

	var rows int64
	require.NoError(t, db.Model(&modelChat.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chat.ID, bob.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestAddMembers_RequiresManagementRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	chat := createGroup(t, db, owner.ID, bob.ID)

	_, err := svc.AddMembers(chat.ID, bob.ID, []uint{carol.ID})
	requireAppError(t, err, apperrors.CodeForbidden)

	// Promoted to admin, bob can add members.
	_, err = svc.UpdateMemberRole(chat.ID, owner.ID, bob.ID, modelChat.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.AddMembers(chat.ID, bob.ID, []uint{carol.ID})
	require.NoError(t, err)
}

func TestAddMembers_RejectsDirectChat(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	direct, err := svc.CreateDirectChat(alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.AddMembers(direct.ID, alice.ID, []uint{carol.ID})
	requireAppError(t, err, apperrors.CodeInvalidOperation)
}

func TestRemoveMember(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)

	require.NoError(t, svc.RemoveMember(chat.ID, owner.ID, bob.ID))

	// The row survives with left_at set; bob no longer resolves as active.
	ids, err := svc.ActiveMemberIDs(chat.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{owner.ID}, ids)

	var member modelChat.ChatMember
	require.NoError(t, db.Where("chat_id = ? AND user_id = ?", chat.ID, bob.ID).First(&member).Error)
	assert.NotNil(t, member.LeftAt)

	_, err = svc.GetChat(chat.ID, bob.ID)
	requireAppError(t, err, apperrors.CodeForbidden)
}

func TestRemoveMember_Rules(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	admin := createUser(t, db, "admin")
	bob := createUser(t, db, "bob")
	outsider := createUser(t, db, "outsider")
	chat := createGroup(t, db, owner.ID, admin.ID, bob.ID)

	_, err := svc.UpdateMemberRole(chat.ID, owner.ID, admin.ID, modelChat.RoleAdmin)
	require.NoError(t, err)

	// Self-removal goes through LeaveChat.
	err = svc.RemoveMember(chat.ID, owner.ID, owner.ID)
	requireAppError(t, err, apperrors.CodeInvalidOperation)

	// The owner cannot be removed, even by an admin.
	err = svc.RemoveMember(chat.ID, admin.ID, owner.ID)
	requireAppError(t, err, apperrors.CodeInvalidOperation)

	// A plain member cannot remove anyone.
	err = svc.RemoveMember(chat.ID, bob.ID, admin.ID)
	requireAppError(t, err, apperrors.CodeForbidden)

	// Removing someone who is not an active member is rejected.
	err = svc.RemoveMember(chat.ID, owner.ID, outsider.ID)
	requireAppError(t, err, apperrors.CodeInvalidOperation)
}

func TestLeaveChat(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)

	err := svc.LeaveChat(chat.ID, owner.ID)
	requireAppError(t, err, apperrors.CodeInvalidOperation)

	require.NoError(t, svc.LeaveChat(chat.ID, bob.ID))
	_, err = svc.GetChat(chat.ID, bob.ID)
	requireAppError(t, err, apperrors.CodeForbidden)

	// Leaving twice fails the membership gate, not the state machine.
	err = svc.LeaveChat(chat.ID, bob.ID)
	requireAppError(t, err, apperrors.CodeForbidden)
}

func TestLeaveChat_RejoinStartsFresh(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)

	_, err := svc.UpdateMemberRole(chat.ID, owner.ID, bob.ID, modelChat.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, svc.LeaveChat(chat.ID, bob.ID))

	// Re-adding creates a new membership as plain member; the admin role of
	// the closed row does not carry over.
	_, err = svc.AddMembers(chat.ID, owner.ID, []uint{bob.ID})
	require.NoError(t, err)

	var rows []modelChat.ChatMember
	require.NoError(t, db.Where("chat_id = ? AND user_id = ?", chat.ID, bob.ID).
		Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].IsActive())
	assert.True(t, rows[1].IsActive())
	assert.Equal(t, modelChat.RoleAdmin, rows[0].Role)
	assert.Equal(t, modelChat.RoleMember, rows[1].Role)
}

func TestLeaveChat_DirectRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	direct, err := svc.CreateDirectChat(alice.ID, bob.ID)
	require.NoError(t, err)

	err = svc.LeaveChat(direct.ID, alice.ID)
	requireAppError(t, err, apperrors.CodeInvalidOperation)
}

func TestUpdateMemberRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	chat := createGroup(t, db, owner.ID, bob.ID, carol.ID)

	member, err := svc.UpdateMemberRole(chat.ID, owner.ID, bob.ID, modelChat.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, modelChat.RoleAdmin, member.Role)

	member, err = svc.UpdateMemberRole(chat.ID, owner.ID, bob.ID, modelChat.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, modelChat.RoleMember, member.Role)

	// Only the owner changes roles; admins cannot.
	_, err = svc.UpdateMemberRole(chat.ID, owner.ID, bob.ID, modelChat.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.UpdateMemberRole(chat.ID, bob.ID, carol.ID, modelChat.RoleAdmin)
	requireAppError(t, err, apperrors.CodeForbidden)

	// Nobody is promoted to owner.
	_, err = svc.UpdateMemberRole(chat.ID, owner.ID, carol.ID, modelChat.RoleOwner)
	requireAppError(t, err, apperrors.CodeInvalidOperation)

	// The owner's own row is untouchable, in both directions.
	_, err = svc.UpdateMemberRole(chat.ID, owner.ID, owner.ID, modelChat.RoleAdmin)
	requireAppError(t, err, apperrors.CodeInvalidOperation)
}

func TestDeleteChat(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)

	msg := sendText(t, db, chat.ID, bob.ID, "hello")
	require.NoError(t, NewReactionService(db).AddReaction(msg.ID, owner.ID, "👍"))

	err := svc.DeleteChat(chat.ID, bob.ID)
	requireAppError(t, err, apperrors.CodeForbidden)

	require.NoError(t, svc.DeleteChat(chat.ID, owner.ID))

	// Chat, memberships, messages and reactions are all gone.
	for model, name := range map[interface{}]string{
		&modelChat.Chat{}:            "chats",
		&modelChat.ChatMember{}:      "members",
		&modelChat.Message{}:         "messages",
		&modelChat.MessageReaction{}: "reactions",
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error, name)
		assert.EqualValues(t, 0, count, name)
	}
}

func TestGetUserChats(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	group := createGroup(t, db, alice.ID, bob.ID)
	_, err := svc.CreateDirectChat(alice.ID, carol.ID)
	require.NoError(t, err)
	sendText(t, db, group.ID, bob.ID, "hi alice")

	chats, err := svc.GetUserChats(alice.ID)
	require.NoError(t, err)
	require.Len(t, chats, 2)

	var groupSummary *ChatSummary
	for i := range chats {
		if chats[i].Chat.ID == group.ID {
			groupSummary = &chats[i]
		}
	}
	require.NotNil(t, groupSummary)
	require.NotNil(t, groupSummary.LastMessage)
	require.NotNil(t, groupSummary.LastMessage.Text)
	assert.Equal(t, "hi alice", *groupSummary.LastMessage.Text)
	assert.EqualValues(t, 1, groupSummary.UnreadCount)
	assert.EqualValues(t, 2, groupSummary.MemberCount)

	// After leaving, the group no longer shows up for bob.
	require.NoError(t, svc.LeaveChat(group.ID, bob.ID))
	chats, err = svc.GetUserChats(bob.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 0)
}

func TestGetChatMembers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChatService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	outsider := createUser(t, db, "outsider")
	chat := createGroup(t, db, owner.ID, bob.ID, carol.ID)

	_, _, err := svc.GetChatMembers(chat.ID, outsider.ID, &dto.ChatMembersListRequest{})
	requireAppError(t, err, apperrors.CodeForbidden)

	members, total, err := svc.GetChatMembers(chat.ID, bob.ID, &dto.ChatMembersListRequest{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, members, 2)

	ownerRole := string(modelChat.RoleOwner)
	members, total, err = svc.GetChatMembers(chat.ID, bob.ID, &dto.ChatMembersListRequest{Role: &ownerRole})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, members, 1)
	assert.Equal(t, owner.ID, members[0].UserID)
}
