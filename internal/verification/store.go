package verification

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound means no pending code exists for the contact (never
// issued, already consumed, or expired).
var ErrCodeNotFound = errors.New("verification code not found")

// CodeStore keeps hashed verification codes and refresh tokens in Redis.
// TTLs replace any cleanup job: expired entries simply vanish.
type CodeStore struct {
	rdb        *redis.Client
	codeTTL    time.Duration
	refreshTTL time.Duration
}

func NewCodeStore(rdb *redis.Client, codeTTL, refreshTTL time.Duration) *CodeStore {
	return &CodeStore{
		rdb:        rdb,
		codeTTL:    codeTTL,
		refreshTTL: refreshTTL,
	}
}

func codeKey(contact string) string {
	return "verification:code:" + contact
}

func refreshKey(token string) string {
	return "auth:refresh:" + token
}

// SaveCode stores the hashed code for the contact, replacing any previous
// one and restarting the TTL.
func (s *CodeStore) SaveCode(ctx context.Context, contact, codeHash string) error {
	return s.rdb.Set(ctx, codeKey(contact), codeHash, s.codeTTL).Err()
}

// GetCodeHash returns the stored hash or ErrCodeNotFound.
func (s *CodeStore) GetCodeHash(ctx context.Context, contact string) (string, error) {
	hash, err := s.rdb.Get(ctx, codeKey(contact)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// DeleteCode consumes the code after a successful verification.
func (s *CodeStore) DeleteCode(ctx context.Context, contact string) error {
	return s.rdb.Del(ctx, codeKey(contact)).Err()
}

// SaveRefreshToken binds an opaque refresh token to a user id.
func (s *CodeStore) SaveRefreshToken(ctx context.Context, token string, userID uint) error {
	return s.rdb.Set(ctx, refreshKey(token), userID, s.refreshTTL).Err()
}

// GetRefreshTokenUser resolves a refresh token to its user id, or
// ErrCodeNotFound when unknown or expired.
func (s *CodeStore) GetRefreshTokenUser(ctx context.Context, token string) (uint, error) {
	id, err := s.rdb.Get(ctx, refreshKey(token)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCodeNotFound
	}
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// DeleteRefreshToken revokes a refresh token (logout or rotation).
func (s *CodeStore) DeleteRefreshToken(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, refreshKey(token)).Err()
}
