package database

import (
	"fmt"

	"buzzchat_backend/internal/config"
	"buzzchat_backend/internal/logger"
	"buzzchat_backend/internal/models"
	chatmodels "buzzchat_backend/internal/models/chat"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var gormDB *gorm.DB

func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()
	dsn := cfg.Database.DSN

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// Migrate runs the schema migration against the given connection. Tests call
// it with an sqlite handle; the server calls it through AutoMigrate.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&chatmodels.Chat{},
		&chatmodels.ChatMember{},
		&chatmodels.Message{},
		&chatmodels.MessageReaction{},
		&chatmodels.MessageReadReceipt{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// One active membership row per (chat, user). Left rows keep their
	// left_at and never collide; a rejoin inserts a fresh row. The partial
	// index syntax is shared by postgres and sqlite.
	err = db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_chat_members_active
		 ON chat_members (chat_id, user_id) WHERE left_at IS NULL`,
	).Error
	if err != nil {
		return fmt.Errorf("create active membership index: %w", err)
	}

	return nil
}

// AutoMigrate connects with the configured DSN and migrates the schema.
func AutoMigrate() error {
	db, err := ConnectGorm()
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	logger.Info("database migration completed")
	return nil
}
