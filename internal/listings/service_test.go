package listings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/db/dbtest"
	"github.com/law23sum/trader-exchange/pkg/enums"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func trader() *auth.Identity {
	providerID := uuid.New()
	return &auth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleTrader, ProviderID: &providerID}
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc := newTestService(t)
	actor := trader()

	created, err := svc.Create(context.Background(), actor, CreateListingInput{Tags: " plumbing, ,Repairs ,"})
	require.NoError(t, err)
	assert.Equal(t, "Untitled", created.Title)
	assert.Equal(t, enums.ListingStatusListed, created.Status)
	assert.Equal(t, "plumbing,Repairs", created.Tags)
	assert.Equal(t, *actor.ProviderID, created.ProviderID)
	assert.True(t, created.Price.IsZero())
}

func TestCreateRequiresProvider(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), &auth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleUser}, CreateListingInput{Title: "x"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestUpdateAndDeleteEnforceOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := trader()
	price := decimal.RequireFromString("45.50")

	created, err := svc.Create(ctx, owner, CreateListingInput{Title: "Fence repair", Price: &price})
	require.NoError(t, err)

	title := "Stolen"
	_, err = svc.Update(ctx, trader(), created.ID, UpdateListingInput{Title: &title})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	newTitle := "Fence and gate repair"
	status := "unlisted"
	updated, err := svc.Update(ctx, owner, created.ID, UpdateListingInput{Title: &newTitle, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, enums.ListingStatusUnlisted, updated.Status)
	assert.True(t, updated.Price.Equal(price))

	admin := &auth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleAdmin}
	require.NoError(t, svc.Delete(ctx, admin, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListFiltersByProvider(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a, b := trader(), trader()

	_, err := svc.Create(ctx, a, CreateListingInput{Title: "A1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, b, CreateListingInput{Title: "B1"})
	require.NoError(t, err)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyA, err := svc.List(ctx, a.ProviderID)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, "A1", onlyA[0].Title)
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc := newTestService(t)
	price := decimal.NewFromInt(-1)
	_, err := svc.Create(context.Background(), trader(), CreateListingInput{Price: &price})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
