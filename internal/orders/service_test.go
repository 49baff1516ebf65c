package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/internal/favorites"
	"github.com/law23sum/trader-exchange/internal/listings"
	"github.com/law23sum/trader-exchange/internal/providers"
	"github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/db/dbtest"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
	"github.com/law23sum/trader-exchange/pkg/logger"
	"github.com/law23sum/trader-exchange/pkg/metrics"
	"github.com/law23sum/trader-exchange/pkg/outbox"
)

type harness struct {
	db         *gorm.DB
	svc        Service
	providerID uuid.UUID
	owner      *auth.Identity
	admin      *auth.Identity
	customer   *auth.Identity
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.Open(t)

	provider := models.Provider{ID: uuid.New(), Name: "Ace Plumbing", Rating: decimal.NewFromInt(5)}
	require.NoError(t, db.Create(&provider).Error)

	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(db),
		Tx:           dbtest.TxRunner{DB: db},
		Outbox:       outbox.NewService(outbox.NewRepository(db), nil),
		Providers:    providers.NewDirectory(providers.NewRepository(db)),
		Listings:     listings.NewRepository(db),
		Interactions: favorites.NewRepository(db),
		Metrics:      metrics.NewOrderMetrics(prometheus.NewRegistry()),
		Logger:       logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)

	providerID := provider.ID
	return &harness{
		db:         db,
		svc:        svc,
		providerID: providerID,
		owner:      &auth.Identity{AccountID: uuid.New(), Name: "Tess", Role: enums.AccountRoleTrader, ProviderID: &providerID},
		admin:      &auth.Identity{AccountID: uuid.New(), Name: "Root", Role: enums.AccountRoleAdmin},
		customer:   &auth.Identity{AccountID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: enums.AccountRoleUser},
	}
}

func (h *harness) request(t *testing.T) *OrderView {
	t.Helper()
	view, err := h.svc.Request(context.Background(), h.customer, RequestInput{
		ProviderID: h.providerID,
		Details:    "Kitchen sink leaks",
		Date:       "2026-03-02",
		Time:       "10:00",
	})
	require.NoError(t, err)
	return view
}

func (h *harness) jobs(t *testing.T) int64 {
	t.Helper()
	var provider models.Provider
	require.NoError(t, h.db.First(&provider, "id = ?", h.providerID).Error)
	return provider.Jobs
}

func (h *harness) events(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestRequestCreatesDiscussOrder(t *testing.T) {
	h := newHarness(t)
	view := h.request(t)

	assert.Equal(t, enums.OrderStatusDiscuss, view.Status)
	assert.True(t, view.Amount.IsZero())
	assert.False(t, view.Request.Ack)
	assert.Equal(t, "Ada", view.UserName)
	assert.Equal(t, "Service request", view.Service)
	require.NotNil(t, view.AccountID)
	assert.Equal(t, h.customer.AccountID, *view.AccountID)
	assert.Equal(t, int64(1), h.events(t, enums.EventOrderRequested))

	var interactions int64
	require.NoError(t, h.db.Model(&models.Interaction{}).Where("account_id = ? AND kind = ?", h.customer.AccountID, enums.InteractionKindRequest).Count(&interactions).Error)
	assert.Equal(t, int64(1), interactions)
}

func TestRequestValidatesTarget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Request(ctx, h.customer, RequestInput{ProviderID: uuid.New()})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = h.svc.Request(ctx, h.customer, RequestInput{})
	requireCode(t, err, pkgerrors.CodeValidation)

	foreign := models.Listing{ID: uuid.New(), ProviderID: uuid.New(), Title: "Other", Status: enums.ListingStatusListed}
	require.NoError(t, h.db.Create(&foreign).Error)
	_, err = h.svc.Request(ctx, h.customer, RequestInput{ProviderID: h.providerID, ListingID: &foreign.ID})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.Request(ctx, nil, RequestInput{ProviderID: h.providerID})
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestAckIsMonotonic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.request(t)

	view, err := h.svc.Apply(ctx, h.owner, order.ID, "discuss")
	require.NoError(t, err)
	assert.False(t, view.Request.Ack)

	view, err = h.svc.Apply(ctx, h.owner, order.ID, "APPROVE")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusApproved, view.Status)
	assert.True(t, view.Request.Ack)

	for _, action := range []string{"discuss", "exchange", "deny", "refund"} {
		view, err = h.svc.Apply(ctx, h.owner, order.ID, action)
		require.NoError(t, err)
		assert.True(t, view.Request.Ack, "ack cleared by %s", action)
	}
	assert.Equal(t, enums.OrderStatusRefunded, view.Status)
	assert.Equal(t, int64(6), h.events(t, enums.EventOrderStatusChanged))
}

func TestCompletionCountsJobsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.request(t)

	_, err := h.svc.Apply(ctx, h.owner, order.ID, "approve")
	require.NoError(t, err)
	_, err = h.svc.Apply(ctx, h.owner, order.ID, "complete")
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.jobs(t))

	_, err = h.svc.Apply(ctx, h.owner, order.ID, "complete")
	require.NoError(t, err)
	_, err = h.svc.Apply(ctx, h.owner, order.ID, "discuss")
	require.NoError(t, err)
	_, err = h.svc.CompleteWithDetails(ctx, h.admin, order.ID, CompletionInput{Notes: "again"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), h.jobs(t))
	assert.Equal(t, int64(1), h.events(t, enums.EventOrderCompleted))

	second := h.request(t)
	_, err = h.svc.CompleteWithDetails(ctx, h.owner, second.ID, CompletionInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.jobs(t))
}

func TestUnknownActionChangesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.request(t)

	_, err := h.svc.Apply(ctx, h.owner, order.ID, "teleport")
	requireCode(t, err, pkgerrors.CodeInvalidAction)

	var stored models.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusDiscuss, stored.Status)
	assert.False(t, stored.ReqAck)
	assert.Equal(t, int64(0), h.events(t, enums.EventOrderStatusChanged))
}

func TestApplyAuthorization(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.request(t)

	_, err := h.svc.Apply(ctx, h.customer, order.ID, "approve")
	requireCode(t, err, pkgerrors.CodeForbidden)

	otherProvider := uuid.New()
	stranger := &auth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleTrader, ProviderID: &otherProvider}
	_, err = h.svc.Apply(ctx, stranger, order.ID, "approve")
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = h.svc.CompleteWithDetails(ctx, h.customer, order.ID, CompletionInput{Notes: "done"})
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = h.svc.Apply(ctx, nil, order.ID, "approve")
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	var stored models.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusDiscuss, stored.Status)
	assert.False(t, stored.ReqAck)
	assert.Nil(t, stored.JobsCountedAt)
	assert.Equal(t, "Kitchen sink leaks", stored.ReqDetails)
	assert.Equal(t, int64(0), h.events(t, enums.EventOrderStatusChanged))
	assert.Equal(t, int64(0), h.jobs(t))

	view, err := h.svc.Apply(ctx, h.admin, order.ID, "approve")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusApproved, view.Status)

	_, err = h.svc.Apply(ctx, h.owner, uuid.New(), "approve")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestCompleteWithDetailsAppendsLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.request(t)

	view, err := h.svc.CompleteWithDetails(ctx, h.owner, order.ID, CompletionInput{
		Notes:    "Replaced the trap",
		PhotoURL: "https://cdn.example.com/sink.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusComplete, view.Status)
	assert.Equal(t, "Kitchen sink leaks\nCompletion notes: Replaced the trap\nPhoto: https://cdn.example.com/sink.jpg", view.Request.Details)
}

func TestAppendCompletionDetails(t *testing.T) {
	assert.Equal(t, "Completion notes: ok", appendCompletionDetails("", "ok", ""))
	assert.Equal(t, "Photo: p.jpg", appendCompletionDetails("\n\n", " ", "p.jpg"))
	assert.Equal(t, "keep", appendCompletionDetails("keep", "", "  "))
}

func TestScheduleConsultationFirstConversationWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.request(t)
	first, second := uuid.New(), uuid.New()

	view, err := h.svc.ScheduleConsultation(ctx, h.customer, order.ID, ScheduleInput{ConversationID: &first, Date: "2026-03-05", Time: "09:30"})
	require.NoError(t, err)
	require.NotNil(t, view.ConversationID)
	assert.Equal(t, first, *view.ConversationID)
	assert.Equal(t, "2026-03-05", view.Request.Date)

	view, err = h.svc.ScheduleConsultation(ctx, h.customer, order.ID, ScheduleInput{ConversationID: &second, Date: "2026-03-06", Time: "14:00"})
	require.NoError(t, err)
	assert.Equal(t, first, *view.ConversationID)
	assert.Equal(t, "2026-03-06", view.Request.Date)
	assert.Equal(t, "14:00", view.Request.Time)

	_, err = h.svc.ScheduleConsultation(ctx, h.customer, uuid.New(), ScheduleInput{})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestConversationIDIsStoredWithoutLookup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	unknown := uuid.New()

	view, err := h.svc.Request(ctx, h.customer, RequestInput{
		ProviderID:     h.providerID,
		Details:        "Boiler check",
		ConversationID: &unknown,
	})
	require.NoError(t, err)
	require.NotNil(t, view.ConversationID)
	assert.Equal(t, unknown, *view.ConversationID)

	var conversations int64
	require.NoError(t, h.db.Model(&models.Conversation{}).Where("id = ?", unknown).Count(&conversations).Error)
	assert.Equal(t, int64(0), conversations)

	order := h.request(t)
	other := uuid.New()
	scheduled, err := h.svc.ScheduleConsultation(ctx, h.customer, order.ID, ScheduleInput{ConversationID: &other})
	require.NoError(t, err)
	require.NotNil(t, scheduled.ConversationID)
	assert.Equal(t, other, *scheduled.ConversationID)
}

func TestCheckoutCreatesApprovedOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	listing := models.Listing{ID: uuid.New(), ProviderID: h.providerID, Title: "Drain unclog", Price: decimal.RequireFromString("80.00"), Status: enums.ListingStatusListed}
	require.NoError(t, h.db.Create(&listing).Error)

	view, err := h.svc.Checkout(ctx, h.customer, CheckoutInput{ListingID: &listing.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusApproved, view.Status)
	assert.True(t, view.Request.Ack)
	assert.True(t, view.Amount.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, "Drain unclog", view.Service)
	assert.Equal(t, h.providerID, view.ProviderID)
	assert.Equal(t, int64(1), h.events(t, enums.EventOrderPurchased))

	amount := decimal.RequireFromString("25")
	guest, err := h.svc.Checkout(ctx, nil, CheckoutInput{ProviderID: h.providerID, Amount: &amount, Email: "Guest@Example.com"})
	require.NoError(t, err)
	assert.Nil(t, guest.AccountID)
	assert.Equal(t, "guest@example.com", guest.UserName)

	_, err = h.svc.Checkout(ctx, nil, CheckoutInput{ProviderID: h.providerID, Amount: &amount})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.Checkout(ctx, h.customer, CheckoutInput{ProviderID: h.providerID})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestStatusReportsLatestOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	status, err := h.svc.Status(ctx, h.customer, h.providerID, nil)
	require.NoError(t, err)
	assert.False(t, status.Found)
	assert.Equal(t, "none", status.Status)

	order := h.request(t)
	_, err = h.svc.Apply(ctx, h.owner, order.ID, "approve")
	require.NoError(t, err)

	status, err = h.svc.Status(ctx, h.customer, h.providerID, nil)
	require.NoError(t, err)
	assert.True(t, status.Found)
	assert.Equal(t, "approved", status.Status)
	assert.True(t, status.Ack)
}

func TestListMineAndTraderScopes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.request(t)

	legacy := newOrderRow(h.providerID, nil, "ADA@example.com")
	require.NoError(t, h.db.Create(legacy).Error)

	mine, err := h.svc.ListMine(ctx, h.customer)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, row := range mine {
		assert.Equal(t, "Ace Plumbing", row.ProviderName)
	}

	traderView, err := h.svc.ListForTrader(ctx, h.owner)
	require.NoError(t, err)
	assert.Len(t, traderView, 2)

	otherProvider := uuid.New()
	stranger := &auth.Identity{AccountID: uuid.New(), Role: enums.AccountRoleTrader, ProviderID: &otherProvider}
	strangerView, err := h.svc.ListForTrader(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, strangerView)

	adminView, err := h.svc.ListForTrader(ctx, h.admin)
	require.NoError(t, err)
	assert.Len(t, adminView, 2)

	_, err = h.svc.ListForTrader(ctx, h.customer)
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
