package services

import (
	"context"
	"errors"

	"buzzchat_backend/internal/auth"
	"buzzchat_backend/internal/config"
	"buzzchat_backend/internal/logger"
	"buzzchat_backend/internal/models"
	"buzzchat_backend/internal/repositories"
	"buzzchat_backend/internal/services/dto"
	"buzzchat_backend/internal/verification"
	"buzzchat_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// AuthService implements passwordless registration and login: a code is
// delivered over the configured channel, verifying it activates the account
// and yields a token pair.
type AuthService struct {
	users  repositories.UserRepository
	codes  *verification.CodeStore
	sender verification.Sender
	tokens *auth.TokenManager
	cfg    *config.Config
}

func NewAuthService(
	users repositories.UserRepository,
	codes *verification.CodeStore,
	sender verification.Sender,
	tokens *auth.TokenManager,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		users:  users,
		codes:  codes,
		sender: sender,
		tokens: tokens,
		cfg:    cfg,
	}
}

// Register creates an inactive user and sends a verification code to the
// given contact. The account stays inactive until the code is verified.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.VerificationSentResponse, error) {
	contact, err := s.contactOf(req.Phone, req.Email)
	if err != nil {
		return nil, err
	}

	if existing, _ := s.findByContact(contact); existing != nil && existing.IsActive {
		return nil, apperrors.ErrUserAlreadyExists(contact)
	} else if existing == nil {
		user := &models.User{
			Phone:     req.Phone,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			IsActive:  false,
		}
		if err := s.users.Create(user); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	if err := s.issueCode(ctx, contact); err != nil {
		return nil, err
	}
	return &dto.VerificationSentResponse{Contact: contact, Sent: true}, nil
}

// RequestLoginCode sends a login code to an existing user's contact.
func (s *AuthService) RequestLoginCode(ctx context.Context, req *dto.RequestLoginCodeRequest) (*dto.VerificationSentResponse, error) {
	user, err := s.findByContact(req.Contact)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		// An inactive user may still finish registration
		logger.CtxDebug(ctx, "login code requested for inactive user", "user_id", user.ID)
	}

	if err := s.issueCode(ctx, req.Contact); err != nil {
		return nil, err
	}
	return &dto.VerificationSentResponse{Contact: req.Contact, Sent: true}, nil
}

// VerifyCode checks the code, activates the account on first verification,
// and issues an access/refresh token pair.
func (s *AuthService) VerifyCode(ctx context.Context, req *dto.VerifyCodeRequest) (*dto.TokenResponse, error) {
	hash, err := s.codes.GetCodeHash(ctx, req.Contact)
	if err != nil {
		if errors.Is(err, verification.ErrCodeNotFound) {
			return nil, apperrors.ErrInvalidVerificationCode()
		}
		return nil, apperrors.InternalError(err)
	}
	if !auth.CheckCode(hash, req.Code) {
		return nil, apperrors.ErrInvalidVerificationCode()
	}

	user, err := s.findByContact(req.Contact)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		if err := s.users.Activate(user.ID); err != nil {
			return nil, apperrors.InternalError(err)
		}
		logger.CtxInfo(ctx, "account activated", "user_id", user.ID)
	}

	if err := s.codes.DeleteCode(ctx, req.Contact); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates a refresh token into a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, err := s.codes.GetRefreshTokenUser(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, verification.ErrCodeNotFound) {
			return nil, apperrors.NewUnauthorizedError("Invalid refresh token")
		}
		return nil, apperrors.InternalError(err)
	}

	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid refresh token")
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive()
	}

	if err := s.codes.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.issueTokens(ctx, userID)
}

// Logout revokes a refresh token. Revoking an unknown token is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.codes.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *AuthService) issueCode(ctx context.Context, contact string) error {
	code, err := auth.GenerateCode(s.cfg.Verification.CodeLength)
	if err != nil {
		return apperrors.InternalError(err)
	}
	hash, err := auth.HashCode(code)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.codes.SaveCode(ctx, contact, hash); err != nil {
		return apperrors.InternalError(err)
	}

	// Delivery failures are logged, not surfaced: the code can be re-requested.
	if err := s.sender.Send(contact, code); err != nil {
		logger.CtxWithError(ctx, "failed to deliver verification code", err, "contact", contact)
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, userID uint) (*dto.TokenResponse, error) {
	accessToken, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	refreshToken := uuid.New().String()
	if err := s.codes.SaveRefreshToken(ctx, refreshToken, userID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *AuthService) findByContact(contact string) (*models.User, error) {
	user, err := s.users.FindByEmail(contact)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.InternalError(err)
	}

	user, err = s.users.FindByPhone(contact)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewUnauthorizedError("No account for this contact")
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *AuthService) contactOf(phone, email *string) (string, error) {
	switch {
	case phone != nil && *phone != "":
		return *phone, nil
	case email != nil && *email != "":
		return *email, nil
	default:
		return "", apperrors.NewBadRequestError("Either phone or email is required")
	}
}
