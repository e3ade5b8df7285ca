package chat

import (
	"testing"

	modelChat "buzzchat_backend/internal/models/chat"
	"buzzchat_backend/internal/services/dto"
	"buzzchat_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)

	msg, err := svc.SendMessage(bob.ID, &dto.SendMessageRequest{ChatID: chat.ID, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, chat.ID, msg.ChatID)
	assert.Equal(t, bob.ID, msg.UserID)
	assert.Equal(t, modelChat.MessageTypeText, msg.Type)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "hello", *msg.Text)
	assert.Nil(t, msg.EditedAt)
	assert.Nil(t, msg.DeletedAt)
}

func TestSendMessage_RequiresMembership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	outsider := createUser(t, db, "outsider")
	chat := createGroup(t, db, owner.ID, bob.ID)

	_, err := svc.SendMessage(outsider.ID, &dto.SendMessageRequest{ChatID: chat.ID, Text: "hi"})
	requireAppError(t, err, apperrors.CodeForbidden)

	_, err = svc.SendMessage(bob.ID, &dto.SendMessageRequest{ChatID: 9999, Text: "hi"})
	requireAppError(t, err, apperrors.CodeNotFound)

	// A member who left writes no more.
	require.NoError(t, NewChatService(db).LeaveChat(chat.ID, bob.ID))
	_, err = svc.SendMessage(bob.ID, &dto.SendMessageRequest{ChatID: chat.ID, Text: "hi"})
	requireAppError(t, err, apperrors.CodeForbidden)
}

func TestSendMessage_ReplyLink(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)
	other := createGroup(t, db, owner.ID, bob.ID)

	original := sendText(t, db, chat.ID, owner.ID, "question")

	reply, err := svc.SendMessage(bob.ID, &dto.SendMessageRequest{
		ChatID:    chat.ID,
		Text:      "answer",
		ReplyToID: &original.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyToID)
	assert.Equal(t, original.ID, *reply.ReplyToID)

	// A reference into another chat is dropped, the message still lands.
	foreign := sendText(t, db, other.ID, owner.ID, "elsewhere")
	msg, err := svc.SendMessage(bob.ID, &dto.SendMessageRequest{
		ChatID:    chat.ID,
		Text:      "cross-chat reply",
		ReplyToID: &foreign.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, msg.ReplyToID)

	// Same for a reference that resolves to nothing.
	ghost := uint(9999)
	msg, err = svc.SendMessage(bob.ID, &dto.SendMessageRequest{
		ChatID:    chat.ID,
		Text:      "ghost reply",
		ReplyToID: &ghost,
	})
	require.NoError(t, err)
	assert.Nil(t, msg.ReplyToID)
}

func TestUpdateMessage(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)
	msg := sendText(t, db, chat.ID, bob.ID, "first")

	updated, err := svc.UpdateMessage(msg.ID, bob.ID, &dto.UpdateMessageRequest{Text: "second"})
	require.NoError(t, err)
	require.NotNil(t, updated.Text)
	assert.Equal(t, "second", *updated.Text)
	assert.NotNil(t, updated.EditedAt)

	// Author only.
	_, err = svc.UpdateMessage(msg.ID, owner.ID, &dto.UpdateMessageRequest{Text: "hijack"})
	requireAppError(t, err, apperrors.CodeForbidden)

	_, err = svc.UpdateMessage(9999, bob.ID, &dto.UpdateMessageRequest{Text: "x"})
	requireAppError(t, err, apperrors.CodeNotFound)
}

func TestDeleteMessage(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)
	msg := sendText(t, db, chat.ID, bob.ID, "temp")

	_, err := svc.DeleteMessage(msg.ID, owner.ID)
	requireAppError(t, err, apperrors.CodeForbidden)

	deleted, err := svc.DeleteMessage(msg.ID, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)

	// A deleted message is immutable: no edit, no second delete, and the
	// stored text stays as it was.
	_, err = svc.UpdateMessage(msg.ID, bob.ID, &dto.UpdateMessageRequest{Text: "revive"})
	requireAppError(t, err, apperrors.CodeInvalidOperation)

	var stored modelChat.Message
	require.NoError(t, db.First(&stored, msg.ID).Error)
	require.NotNil(t, stored.Text)
	assert.Equal(t, "temp", *stored.Text)
	assert.Nil(t, stored.EditedAt)

	_, err = svc.DeleteMessage(msg.ID, bob.ID)
	requireAppError(t, err, apperrors.CodeInvalidOperation)
}

func TestGetMessages_CursorPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)

	var ids []uint
	for i := 0; i < 10; i++ {
		msg := sendText(t, db, chat.ID, bob.ID, "msg")
		ids = append(ids, msg.ID)
	}

	// Newest first, strictly before the cursor, no overlap between pages.
	page1, err := svc.GetMessages(chat.ID, owner.ID, &dto.MessageListRequest{Limit: 4})
	require.NoError(t, err)
	require.Len(t, page1, 4)
	assert.Equal(t, ids[9], page1[0].ID)
	assert.Equal(t, ids[6], page1[3].ID)

	cursor := page1[len(page1)-1].ID
	page2, err := svc.GetMessages(chat.ID, owner.ID, &dto.MessageListRequest{BeforeID: &cursor, Limit: 4})
	require.NoError(t, err)
	require.Len(t, page2, 4)
	assert.Equal(t, ids[5], page2[0].ID)
	assert.Equal(t, ids[2], page2[3].ID)

	cursor = page2[len(page2)-1].ID
	page3, err := svc.GetMessages(chat.ID, owner.ID, &dto.MessageListRequest{BeforeID: &cursor, Limit: 4})
	require.NoError(t, err)
	require.Len(t, page3, 2)

	// Asking the same pages again yields identical results.
	again, err := svc.GetMessages(chat.ID, owner.ID, &dto.MessageListRequest{Limit: 4})
	require.NoError(t, err)
	require.Len(t, again, 4)
	for i := range page1 {
		assert.Equal(t, page1[i].ID, again[i].ID)
	}
}

func TestGetMessages_ExcludesDeleted(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	outsider := createUser(t, db, "outsider")
	chat := createGroup(t, db, owner.ID, bob.ID)

	keep := sendText(t, db, chat.ID, bob.ID, "keep")
	drop := sendText(t, db, chat.ID, bob.ID, "drop")
	_, err := svc.DeleteMessage(drop.ID, bob.ID)
	require.NoError(t, err)

	messages, err := svc.GetMessages(chat.ID, owner.ID, &dto.MessageListRequest{})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, keep.ID, messages[0].ID)

	_, err = svc.GetMessages(chat.ID, outsider.ID, &dto.MessageListRequest{})
	requireAppError(t, err, apperrors.CodeForbidden)
}

func TestSendMessage_Mentions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bobby")
	chat := createGroup(t, db, owner.ID, bob.ID)

	msg, err := svc.SendMessage(owner.ID, &dto.SendMessageRequest{
		ChatID: chat.ID,
		Text:   "ping @bobby and @nobodyatall",
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, msg.MentionedUserIDs())

	mentions, err := svc.GetMentions(bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, msg.ID, mentions[0].ID)
}

func TestSearchMessages(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	outsider := createUser(t, db, "outsider")
	chat := createGroup(t, db, owner.ID, bob.ID)

	sendText(t, db, chat.ID, bob.ID, "the quarterly report is ready")
	sendText(t, db, chat.ID, bob.ID, "lunch anyone?")

	results, err := svc.SearchMessages(owner.ID, &dto.SearchMessagesRequest{Query: "report", ChatID: &chat.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = svc.SearchMessages(outsider.ID, &dto.SearchMessagesRequest{Query: "report", ChatID: &chat.ID})
	requireAppError(t, err, apperrors.CodeForbidden)
}

func TestGetUnreadCount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db, NewMentionService())
	receipts := NewReadReceiptService(db)

	owner := createUser(t, db, "owner")
	bob := createUser(t, db, "bob")
	chat := createGroup(t, db, owner.ID, bob.ID)

	m1 := sendText(t, db, chat.ID, bob.ID, "one")
	sendText(t, db, chat.ID, bob.ID, "two")
	// Own messages never count as unread.
	sendText(t, db, chat.ID, owner.ID, "mine")

	count, err := svc.GetUnreadCount(chat.ID, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, receipts.MarkAsRead([]uint{m1.ID}, owner.ID))
	count, err = svc.GetUnreadCount(chat.ID, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
