package enums

import (
	"fmt"
	"strings"
)

// AccountRole represents the marketplace-wide permission role of an account.
type AccountRole string

const (
	AccountRoleUser   AccountRole = "USER"
	AccountRoleTrader AccountRole = "TRADER"
	AccountRoleAdmin  AccountRole = "ADMIN"
)

var validAccountRoles = []AccountRole{
	AccountRoleUser,
	AccountRoleTrader,
	AccountRoleAdmin,
}

// String implements fmt.Stringer.
func (a AccountRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AccountRole.
func (a AccountRole) IsValid() bool {
	for _, candidate := range validAccountRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// CanManageOrders reports whether the role may act on orders as a provider.
func (a AccountRole) CanManageOrders() bool {
	return a == AccountRoleTrader || a == AccountRoleAdmin
}

// NormalizeAccountRole uppercases raw input and falls back to USER when empty.
func NormalizeAccountRole(value string) AccountRole {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return AccountRoleUser
	}
	return AccountRole(trimmed)
}

// ParseAccountRole converts raw input into an AccountRole. Matching is case-insensitive.
func ParseAccountRole(value string) (AccountRole, error) {
	normalized := NormalizeAccountRole(value)
	for _, candidate := range validAccountRoles {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account role %q", value)
}
