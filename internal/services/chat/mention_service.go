package chat

import (
	"regexp"

	"buzzchat_backend/internal/repositories"

	"gorm.io/gorm"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// MentionService resolves @tokens in message text to user ids. Resolution is
// best effort: tokens that match nobody are dropped silently.
type MentionService struct{}

func NewMentionService() *MentionService {
	return &MentionService{}
}

// ExtractMentions returns the deduplicated user ids mentioned in text.
func (s *MentionService) ExtractMentions(tx *gorm.DB, text string) ([]uint, error) {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	users := repositories.NewUserRepository(tx)
	seenTokens := make(map[string]bool, len(matches))
	seenIDs := make(map[uint]bool)
	var ids []uint

	for _, match := range matches {
		token := match[1]
		if seenTokens[token] {
			continue
		}
		seenTokens[token] = true

		user, err := users.SearchByMentionToken(token)
		if err != nil {
			return nil, err
		}
		if user == nil || seenIDs[user.ID] {
			continue
		}
		seenIDs[user.ID] = true
		ids = append(ids, user.ID)
	}
	return ids, nil
}
