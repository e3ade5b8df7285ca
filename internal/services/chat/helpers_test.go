package chat

import (
	"fmt"
	"sync/atomic"
	"testing"

	"buzzchat_backend/database"
	"buzzchat_backend/internal/models"
	modelChat "buzzchat_backend/internal/models/chat"
	"buzzchat_backend/internal/services/dto"
	"buzzchat_backend/pkg/apperrors"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var userSeq uint64

// setupTestDB opens an isolated in-memory database with the full schema.
// A single connection keeps the whole test on the same sqlite memory store.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, firstName string) *models.User {
	t.Helper()

	n := atomic.AddUint64(&userSeq, 1)
	email := fmt.Sprintf("%s_%d@test.local", firstName, n)
	user := &models.User{
		Email:     &email,
		FirstName: firstName,
		LastName:  "Tester",
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createGroup(t *testing.T, db *gorm.DB, ownerID uint, memberIDs ...uint) *modelChat.Chat {
	t.Helper()

	svc := NewChatService(db)
	chat, err := svc.CreateGroupChat(ownerID, &dto.CreateGroupChatRequest{
		Name:      "test group",
		MemberIDs: memberIDs,
	})
	require.NoError(t, err)
	return chat
}

func sendText(t *testing.T, db *gorm.DB, chatID, authorID uint, text string) *modelChat.Message {
	t.Helper()

	svc := NewMessageService(db, NewMentionService())
	msg, err := svc.SendMessage(authorID, &dto.SendMessageRequest{ChatID: chatID, Text: text})
	require.NoError(t, err)
	return msg
}

func requireAppError(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
}
