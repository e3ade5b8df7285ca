package chat

import (
	"time"

	modelChat "buzzchat_backend/internal/models/chat"
	repoChat "buzzchat_backend/internal/repositories/chat"
	"buzzchat_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// ReadReceiptService maintains the read-receipt ledger. Marking is
// idempotent: ReadAt is stamped once and never changed by later calls.
type ReadReceiptService struct {
	db *gorm.DB
}

func NewReadReceiptService(db *gorm.DB) *ReadReceiptService {
	return &ReadReceiptService{db: db}
}

// MarkAsRead creates receipts for each message id that exists and has none
// for this user yet. Unknown ids are skipped, not errored: the batch is
// partial-tolerant by contract.
func (s *ReadReceiptService) MarkAsRead(messageIDs []uint, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		messages := repoChat.NewMessageRepository(tx)
		receipts := repoChat.NewMessageReadReceiptRepository(tx)

		now := time.Now()
		var rows []modelChat.MessageReadReceipt

		for _, messageID := range messageIDs {
			message, err := messages.FindByID(messageID)
			if err != nil {
				return apperrors.InternalError(err)
			}
			if message == nil {
				continue
			}

			exists, err := receipts.Exists(messageID, userID)
			if err != nil {
				return apperrors.InternalError(err)
			}
			if exists {
				continue
			}

			rows = append(rows, modelChat.MessageReadReceipt{
				MessageID: messageID,
				UserID:    userID,
				ReadAt:    now,
			})
		}

		if err := receipts.CreateMany(rows); err != nil {
			return apperrors.InternalError(err)
		}
		return nil
	})
}

// GetReadReceipts lists who read a message, membership-checked.
func (s *ReadReceiptService) GetReadReceipts(messageID, userID uint) ([]modelChat.MessageReadReceipt, error) {
	message, err := repoChat.NewMessageRepository(s.db).FindByID(messageID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if message == nil {
		return nil, apperrors.ErrMessageNotFound(messageID)
	}

	isMember, err := repoChat.NewChatMemberRepository(s.db).IsMemberOfChat(message.ChatID, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !isMember {
		return nil, apperrors.ErrNotChatMember()
	}

	list, err := repoChat.NewMessageReadReceiptRepository(s.db).FindByMessage(messageID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return list, nil
}
