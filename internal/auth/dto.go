package auth

import (
	"github.com/google/uuid"

	"github.com/law23sum/trader-exchange/internal/accounts"
)

// SignupRequest creates a USER account. Name falls back to the email local part.
type SignupRequest struct {
	Name     string `json:"name" validate:"max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// SigninRequest captures the credentials sent to the signin endpoint.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// BecomeProviderRequest optionally names the provider record.
type BecomeProviderRequest struct {
	Name string `json:"name" validate:"max=120"`
}

// SessionResponse is returned by signup and signin.
type SessionResponse struct {
	Token string               `json:"token"`
	User  *accounts.AccountDTO `json:"user"`
}

// BecomeProviderResponse carries a fresh token minted with the upgraded role.
type BecomeProviderResponse struct {
	OK         bool                 `json:"ok"`
	User       *accounts.AccountDTO `json:"user"`
	ProviderID uuid.UUID            `json:"providerId"`
	Token      string               `json:"token"`
}
