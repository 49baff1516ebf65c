package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/db/dbtest"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

func TestRepositoryCreateAndFindByEmailIgnoresCase(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateAccountDTO{
		Name:         " Ada ",
		Email:        " Ada@Example.com ",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.Equal(t, "Ada", created.Name)
	assert.Equal(t, enums.AccountRoleUser, created.Role)

	found, err := repo.FindByEmail(ctx, "ADA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryLinkProviderUpgradesRole(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateAccountDTO{Name: "u", Email: "u@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	admin, err := repo.Create(ctx, CreateAccountDTO{Name: "a", Email: "a@example.com", PasswordHash: "h", Role: enums.AccountRoleAdmin})
	require.NoError(t, err)

	providerID := uuid.New()
	require.NoError(t, repo.LinkProvider(ctx, user.ID, providerID))
	require.NoError(t, repo.LinkProvider(ctx, admin.ID, providerID))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AccountRoleTrader, reloaded.Role)
	require.NotNil(t, reloaded.ProviderID)
	assert.Equal(t, providerID, *reloaded.ProviderID)

	reloadedAdmin, err := repo.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AccountRoleTrader, reloadedAdmin.Role)

	linked, err := repo.ListByProvider(ctx, providerID)
	require.NoError(t, err)
	assert.Len(t, linked, 2)
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	account, err := repo.Create(ctx, CreateAccountDTO{Name: "u", Email: "u@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, account.ID, at))

	reloaded, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(at))
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "jane.doe", DefaultName("Jane.Doe@example.com"))
	assert.Equal(t, "Customer", DefaultName("@example.com"))
}
