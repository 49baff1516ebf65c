package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/db/dbtest"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

func newOrderRow(providerID uuid.UUID, accountID *uuid.UUID, userName string) *models.Order {
	return &models.Order{
		ID:         uuid.New(),
		AccountID:  accountID,
		UserName:   userName,
		Service:    "Gutter cleaning",
		ProviderID: providerID,
		Status:     enums.OrderStatusDiscuss,
	}
}

func TestMarkJobsCountedIsCompareAndSet(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order, err := repo.Create(ctx, newOrderRow(uuid.New(), nil, "ada"))
	require.NoError(t, err)

	first, err := repo.MarkJobsCounted(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.MarkJobsCounted(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, second)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.JobsCountedAt)
}

func TestAttachConversationKeepsFirstLink(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order, err := repo.Create(ctx, newOrderRow(uuid.New(), nil, "ada"))
	require.NoError(t, err)

	first, second := uuid.New(), uuid.New()
	attached, err := repo.AttachConversation(ctx, order.ID, first)
	require.NoError(t, err)
	assert.True(t, attached)

	attached, err = repo.AttachConversation(ctx, order.ID, second)
	require.NoError(t, err)
	assert.False(t, attached)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ConversationID)
	assert.Equal(t, first, *reloaded.ConversationID)
}

func TestUpdateMissingOrderReturnsNotFound(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	err := repo.Update(context.Background(), uuid.New(), map[string]any{"status": enums.OrderStatusDenied})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListForAccountFallsBackToUserNameOnlyWithoutAccount(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	provider := models.Provider{ID: uuid.New(), Name: "Ace"}
	require.NoError(t, db.Create(&provider).Error)

	me := uuid.New()
	someoneElse := uuid.New()

	linked, err := repo.Create(ctx, newOrderRow(provider.ID, &me, "Ada"))
	require.NoError(t, err)
	legacy, err := repo.Create(ctx, newOrderRow(provider.ID, nil, "ADA@Example.com"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newOrderRow(provider.ID, &someoneElse, "ada"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newOrderRow(provider.ID, nil, "bob"))
	require.NoError(t, err)

	rows, err := repo.ListForAccount(ctx, me, []string{"ada", "ada@example.com"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	ids := map[uuid.UUID]string{}
	for _, row := range rows {
		ids[row.ID] = row.ProviderName
	}
	assert.Equal(t, "Ace", ids[linked.ID])
	assert.Equal(t, "Ace", ids[legacy.ID])
}

func TestFindLatestForPairScopesByListing(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	providerID := uuid.New()
	listingID := uuid.New()

	withListing := newOrderRow(providerID, nil, "ada")
	withListing.ListingID = &listingID
	withListing.CreatedAt = time.Now().Add(-time.Hour)
	_, err := repo.Create(ctx, withListing)
	require.NoError(t, err)

	newer := newOrderRow(providerID, nil, "ada")
	newer.Status = enums.OrderStatusApproved
	_, err = repo.Create(ctx, newer)
	require.NoError(t, err)

	found, err := repo.FindLatestForPair(ctx, providerID, &listingID)
	require.NoError(t, err)
	assert.Equal(t, withListing.ID, found.ID)

	anyListing, err := repo.FindLatestForPair(ctx, providerID, nil)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, anyListing.ID)
}
