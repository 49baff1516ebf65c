package auth

import (
	"github.com/google/uuid"

	"github.com/law23sum/trader-exchange/pkg/enums"
)

// Identity is the caller resolved from a live session. Name, Email, Role and
// ProviderID come from the account row, not the token.
type Identity struct {
	AccountID  uuid.UUID
	Name       string
	Email      string
	Role       enums.AccountRole
	ProviderID *uuid.UUID
	SessionID  string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == enums.AccountRoleAdmin
}

// OwnsProvider reports whether the identity is linked to providerID.
func (i *Identity) OwnsProvider(providerID uuid.UUID) bool {
	return i != nil && i.ProviderID != nil && *i.ProviderID == providerID
}
