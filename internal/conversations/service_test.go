package conversations

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/internal/accounts"
	"github.com/law23sum/trader-exchange/internal/favorites"
	"github.com/law23sum/trader-exchange/internal/providers"
	"github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/db/dbtest"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
	"github.com/law23sum/trader-exchange/pkg/logger"
)

type fixture struct {
	db       *gorm.DB
	svc      Service
	provider uuid.UUID
	trader   *auth.Identity
	customer *auth.Identity
	stranger *auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	ctx := context.Background()
	accountsRepo := accounts.NewRepository(db)

	provider := models.Provider{ID: uuid.New(), Name: "Ace", Rating: decimal.NewFromInt(5)}
	require.NoError(t, db.Create(&provider).Error)
	trader, err := accountsRepo.Create(ctx, accounts.CreateAccountDTO{Name: "Tess", Email: "tess@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	require.NoError(t, accountsRepo.LinkProvider(ctx, trader.ID, provider.ID))

	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(db),
		Tx:           dbtest.TxRunner{DB: db},
		Providers:    providers.NewDirectory(providers.NewRepository(db)),
		Traders:      accountsRepo,
		Interactions: favorites.NewRepository(db),
		Logger:       logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)

	providerID := provider.ID
	return &fixture{
		db:       db,
		svc:      svc,
		provider: providerID,
		trader:   &auth.Identity{AccountID: trader.ID, Name: "Tess", Role: enums.AccountRoleTrader, ProviderID: &providerID},
		customer: &auth.Identity{AccountID: uuid.New(), Name: "Ada", Role: enums.AccountRoleUser},
		stranger: &auth.Identity{AccountID: uuid.New(), Name: "Eve", Role: enums.AccountRoleUser},
	}
}

func TestCreateAddsProviderTraders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.svc.Create(ctx, f.customer, CreateInput{ProviderID: &f.provider})
	require.NoError(t, err)
	assert.Equal(t, "Chat", conv.Title)
	assert.Equal(t, enums.ConversationKindChat, conv.Kind)

	mine, err := f.svc.List(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := f.svc.List(ctx, f.trader)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, conv.ID, theirs[0].ID)
}

func TestCreateUnknownProvider(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()
	_, err := f.svc.Create(context.Background(), f.customer, CreateInput{ProviderID: &missing, Title: "Quote"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestMessagesRequireMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv, err := f.svc.Create(ctx, f.customer, CreateInput{ProviderID: &f.provider, Title: "Leak"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.stranger, conv.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Equal(t, "no access", pkgerrors.As(err).Message())

	_, err = f.svc.PostMessage(ctx, f.stranger, conv.ID, MessageInput{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	admin := &auth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleAdmin}
	thread, err := f.svc.Get(ctx, admin, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, thread.Messages)
}

func TestPostMessageUpdatesPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv, err := f.svc.Create(ctx, f.customer, CreateInput{ProviderID: &f.provider})
	require.NoError(t, err)

	_, err = f.svc.PostMessage(ctx, f.customer, conv.ID, MessageInput{Text: " Is Tuesday ok? "})
	require.NoError(t, err)
	msg, err := f.svc.PostMessage(ctx, f.trader, conv.ID, MessageInput{Text: "Tuesday works"})
	require.NoError(t, err)
	assert.Equal(t, "Tess", msg.SenderName)

	thread, err := f.svc.Get(ctx, f.trader, conv.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, "Is Tuesday ok?", thread.Messages[0].Text)
	assert.Equal(t, "Tuesday works", thread.Conversation.LastMessage)

	var interactions int64
	require.NoError(t, f.db.Table("interactions").Where("kind = ?", enums.InteractionKindMessage).Count(&interactions).Error)
	assert.Equal(t, int64(1), interactions)

	_, err = f.svc.PostMessage(ctx, f.customer, conv.ID, MessageInput{Text: "   "})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestGetMissingConversation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), f.customer, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
