package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/law23sum/trader-exchange/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AccountID  uuid.UUID
	Role       enums.AccountRole
	ProviderID *uuid.UUID
	// JTI doubles as the session key; empty mints a fresh one.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	AccountID  uuid.UUID         `json:"account_id"`
	Role       enums.AccountRole `json:"role"`
	ProviderID *uuid.UUID        `json:"provider_id,omitempty"`
	jwt.RegisteredClaims
}
