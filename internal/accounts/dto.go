package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

// AccountDTO is the transport shape that omits credentials.
type AccountDTO struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Role        enums.AccountRole `json:"role"`
	ProviderID  *uuid.UUID        `json:"providerId,omitempty"`
	LastLoginAt *time.Time        `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// CreateAccountDTO holds the data required to persist a new account.
type CreateAccountDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.AccountRole
}

func FromModel(a *models.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Role:        enums.NormalizeAccountRole(string(a.Role)),
		ProviderID:  a.ProviderID,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

func (c CreateAccountDTO) ToModel() *models.Account {
	role := c.Role
	if !role.IsValid() {
		role = enums.AccountRoleUser
	}
	return &models.Account{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(c.Name),
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		Role:         role,
	}
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultName derives a display name from the local part of an address.
func DefaultName(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	if local == "" {
		return "Customer"
	}
	return local
}
