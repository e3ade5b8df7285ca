package chat

import (
	"testing"

	modelChat "buzzchat_backend/internal/models/chat"
	"buzzchat_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddReaction_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReactionService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)
	msg := sendText(t, db, chat.ID, bob.ID, "hello")

	require.NoError(t, svc.AddReaction(msg.ID, owner.ID, "👍"))
	require.NoError(t, svc.AddReaction(msg.ID, owner.ID, "👍"))

	var count int64
	require.NoError(t, db.Model(&modelChat.MessageReaction{}).
		Where("message_id = ? AND user_id = ?", msg.ID, owner.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Same user, different emoji is a distinct reaction. Same emoji from
	// another user too.
	require.NoError(t, svc.AddReaction(msg.ID, owner.ID, "🎉"))
	require.NoError(t, svc.AddReaction(msg.ID, bob.ID, "👍"))

	reactions, err := svc.GetReactions(msg.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, reactions, 3)
}

func TestAddReaction_Rules(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReactionService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	outsider := createUser(t, db, "outsider")
	chat := createGroup(t, db, owner.ID, bob.ID)
	msg := sendText(t, db, chat.ID, bob.ID, "hello")

	err := svc.AddReaction(msg.ID, outsider.ID, "👍")
	requireAppError(t, err, apperrors.CodeForbidden)

	err = svc.AddReaction(9999, owner.ID, "👍")
	requireAppError(t, err, apperrors.CodeNotFound)
}

func TestRemoveReaction(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReactionService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)
	msg := sendText(t, db, chat.ID, bob.ID, "hello")

	require.NoError(t, svc.AddReaction(msg.ID, owner.ID, "👍"))
	require.NoError(t, svc.RemoveReaction(msg.ID, owner.ID, "👍"))

	reactions, err := svc.GetReactions(msg.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, reactions, 0)

	// Removing what is not there is a no-op.
	require.NoError(t, svc.RemoveReaction(msg.ID, owner.ID, "👍"))
}

func TestReactions_SurviveMessageDeletion(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReactionService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)
	msg := sendText(t, db, chat.ID, bob.ID, "hello")

	require.NoError(t, svc.AddReaction(msg.ID, owner.ID, "👍"))

	_, err := NewMessageService(db, NewMentionService()).DeleteMessage(msg.ID, bob.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&modelChat.MessageReaction{}).
		Where("message_id = ?", msg.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
