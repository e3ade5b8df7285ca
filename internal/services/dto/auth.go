package dto

// RegisterRequest accepts phone or email; exactly one is required.
type RegisterRequest struct {
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string  `json:"first_name" binding:"required" validate:"required,min=1,max=100"`
	LastName  string  `json:"last_name" binding:"required" validate:"required,min=1,max=100"`
}

type RequestLoginCodeRequest struct {
	Contact string `json:"contact" binding:"required" validate:"required,min=3,max=255"`
}

type VerifyCodeRequest struct {
	Contact string `json:"contact" binding:"required" validate:"required,min=3,max=255"`
	Code    string `json:"code" binding:"required" validate:"required,min=4,max=10"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type VerificationSentResponse struct {
	Contact string `json:"contact"`
	Sent    bool   `json:"sent"`
}
