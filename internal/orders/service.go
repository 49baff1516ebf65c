package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
	"github.com/law23sum/trader-exchange/pkg/logger"
	"github.com/law23sum/trader-exchange/pkg/metrics"
	"github.com/law23sum/trader-exchange/pkg/outbox"
	"github.com/law23sum/trader-exchange/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProviderDirectory is the slice of the provider directory the order engine
// writes to. Calls run on the engine's transaction.
type ProviderDirectory interface {
	Exists(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (bool, error)
	IncrementJobs(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (int64, error)
}

// ListingReader resolves the listing a request or checkout refers to.
type ListingReader interface {
	FindListing(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error)
}

// InteractionRecorder feeds the favorites ranking and history.
type InteractionRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, accountID, providerID uuid.UUID, kind enums.InteractionKind) error
}

// Service owns the order state machine.
type Service interface {
	Request(ctx context.Context, actor *auth.Identity, input RequestInput) (*OrderView, error)
	Checkout(ctx context.Context, actor *auth.Identity, input CheckoutInput) (*OrderView, error)
	Apply(ctx context.Context, actor *auth.Identity, orderID uuid.UUID, action string) (*OrderView, error)
	ScheduleConsultation(ctx context.Context, actor *auth.Identity, orderID uuid.UUID, input ScheduleInput) (*OrderView, error)
	CompleteWithDetails(ctx context.Context, actor *auth.Identity, orderID uuid.UUID, input CompletionInput) (*OrderView, error)
	Status(ctx context.Context, actor *auth.Identity, providerID uuid.UUID, listingID *uuid.UUID) (*StatusView, error)
	ListMine(ctx context.Context, actor *auth.Identity) ([]MineView, error)
	ListForTrader(ctx context.Context, actor *auth.Identity) ([]OrderView, error)
}

// ServiceParams bundles the dependencies required to build the order engine.
type ServiceParams struct {
	Repo         Repository
	Tx           txRunner
	Outbox       outbox.Emitter
	Providers    ProviderDirectory
	Listings     ListingReader
	Interactions InteractionRecorder
	Metrics      *metrics.OrderMetrics
	Logger       *logger.Logger
}

type service struct {
	repo         Repository
	tx           txRunner
	outbox       outbox.Emitter
	providers    ProviderDirectory
	listings     ListingReader
	interactions InteractionRecorder
	metrics      *metrics.OrderMetrics
	logg         *logger.Logger
	now          func() time.Time
}

// NewService builds the order engine. Metrics are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Providers == nil {
		return nil, fmt.Errorf("provider directory required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("listing reader required")
	}
	if params.Interactions == nil {
		return nil, fmt.Errorf("interaction recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		outbox:       params.Outbox,
		providers:    params.Providers,
		listings:     params.Listings,
		interactions: params.Interactions,
		metrics:      params.Metrics,
		logg:         params.Logger,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Request(ctx context.Context, actor *auth.Identity, input RequestInput) (*OrderView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var view OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		providerID, listing, err := s.resolveTarget(ctx, tx, input.ProviderID, input.ListingID)
		if err != nil {
			return err
		}

		accountID := actor.AccountID
		order := &models.Order{
			ID:             uuid.New(),
			AccountID:      &accountID,
			UserName:       displayName(actor),
			Service:        serviceTitle(input.Title, listing),
			ProviderID:     providerID,
			ListingID:      input.ListingID,
			ConversationID: input.ConversationID,
			Status:         enums.OrderStatusDiscuss,
			Amount:         decimal.Zero,
			ReqDetails:     strings.TrimSpace(input.Details),
			ReqDate:        strings.TrimSpace(input.Date),
			ReqTime:        strings.TrimSpace(input.Time),
			ReqAck:         false,
		}
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.interactions.Record(ctx, tx, accountID, providerID, enums.InteractionKindRequest); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record interaction")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRequested,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actor),
			Data: payloads.OrderRequestedEvent{
				OrderID:    order.ID,
				ProviderID: providerID,
				AccountID:  order.AccountID,
				ReqDate:    order.ReqDate,
				ReqTime:    order.ReqTime,
			},
		}); err != nil {
			return err
		}

		created, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		view = toView(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated("request")
	s.logg.Info(s.orderContext(ctx, &view), "order.requested")
	return &view, nil
}

// Checkout creates an approved order. Anonymous buyers must give a name or email.
func (s *service) Checkout(ctx context.Context, actor *auth.Identity, input CheckoutInput) (*OrderView, error) {
	authenticated := actor != nil && actor.AccountID != uuid.Nil
	guestName := strings.TrimSpace(input.Name)
	if guestName == "" {
		guestName = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if !authenticated && guestName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name or email is required for guest checkout")
	}

	var view OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		providerID, listing, err := s.resolveTarget(ctx, tx, input.ProviderID, input.ListingID)
		if err != nil {
			return err
		}
		amount, err := checkoutAmount(listing, input.Amount)
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:         uuid.New(),
			UserName:   guestName,
			Service:    serviceTitle(input.Service, listing),
			ProviderID: providerID,
			ListingID:  input.ListingID,
			Status:     enums.OrderStatusApproved,
			Amount:     amount,
			ReqDetails: strings.TrimSpace(input.Details),
			ReqAck:     true,
		}
		if authenticated {
			accountID := actor.AccountID
			order.AccountID = &accountID
			order.UserName = displayName(actor)
		}

		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if authenticated {
			if err := s.interactions.Record(ctx, tx, actor.AccountID, providerID, enums.InteractionKindOrder); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record interaction")
			}
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPurchased,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actor),
			Data: payloads.OrderPurchasedEvent{
				OrderID:    order.ID,
				ProviderID: providerID,
				ListingID:  order.ListingID,
				AccountID:  order.AccountID,
				Amount:     amount,
			},
		}); err != nil {
			return err
		}

		created, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		view = toView(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated("checkout")
	s.logg.Info(s.orderContext(ctx, &view), "order.purchased")
	return &view, nil
}

// Apply moves an order to the status the action names. Unknown actions are
// rejected before anything is read or written.
func (s *service) Apply(ctx context.Context, actor *auth.Identity, orderID uuid.UUID, rawAction string) (*OrderView, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	action, err := enums.ParseOrderAction(rawAction)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidAction, err, "invalid action").
			WithDetails(map[string]any{"action": rawAction})
	}
	return s.runTransition(ctx, actor, orderID, action, nil)
}

// CompleteWithDetails appends completion notes and forces the order to complete.
func (s *service) CompleteWithDetails(ctx context.Context, actor *auth.Identity, orderID uuid.UUID, input CompletionInput) (*OrderView, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	extra := func(order *models.Order) map[string]any {
		details := appendCompletionDetails(order.ReqDetails, input.Notes, input.PhotoURL)
		if details == order.ReqDetails {
			return nil
		}
		return map[string]any{"req_details": details}
	}
	return s.runTransition(ctx, actor, orderID, enums.OrderActionComplete, extra)
}

type transitionOutcome struct {
	view        OrderView
	action      enums.OrderAction
	from        enums.OrderStatus
	to          enums.OrderStatus
	jobsCounted bool
	jobs        int64
}

func (s *service) runTransition(
	ctx context.Context,
	actor *auth.Identity,
	orderID uuid.UUID,
	action enums.OrderAction,
	extra func(order *models.Order) map[string]any,
) (*OrderView, error) {
	target, _ := action.Target()

	var outcome transitionOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := lockOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := ensureOwner(actor, order); err != nil {
			return err
		}

		updates := map[string]any{"status": target}
		if extra != nil {
			for column, value := range extra(order) {
				updates[column] = value
			}
		}
		// ack latches on the first approval and is never cleared
		if target == enums.OrderStatusApproved {
			updates["req_ack"] = true
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		outcome.action = action
		outcome.from = order.Status
		outcome.to = target

		if target == enums.OrderStatusComplete {
			counted, err := repo.MarkJobsCounted(ctx, order.ID, s.now())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark jobs counted")
			}
			if counted {
				jobs, err := s.providers.IncrementJobs(ctx, tx, order.ProviderID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
					}
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment provider jobs")
				}
				outcome.jobsCounted = true
				outcome.jobs = jobs
			}
		}

		ref := actorRef(actor)
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         ref,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				ProviderID: order.ProviderID,
				Action:     action,
				From:       outcome.from,
				To:         target,
			},
		}); err != nil {
			return err
		}
		if outcome.jobsCounted {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCompleted,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         ref,
				Data: payloads.OrderCompletedEvent{
					OrderID:    order.ID,
					ProviderID: order.ProviderID,
					Jobs:       outcome.jobs,
				},
			}); err != nil {
				return err
			}
		}

		updated, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		outcome.view = toView(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, &outcome)
	return &outcome.view, nil
}

func (s *service) recordTransition(ctx context.Context, outcome *transitionOutcome) {
	s.metrics.IncTransition(string(outcome.to))
	logCtx := s.logg.WithFields(s.orderContext(ctx, &outcome.view), map[string]any{
		"action": string(outcome.action),
		"from":   string(outcome.from),
		"to":     string(outcome.to),
	})
	s.logg.Info(logCtx, "order.transitioned")
	if outcome.jobsCounted {
		s.metrics.IncJobCounted()
		s.logg.Info(s.logg.WithField(logCtx, "jobs", outcome.jobs), "order.completed")
	}
}

// ScheduleConsultation replaces the proposed slot. The conversation link is
// first-write-wins.
func (s *service) ScheduleConsultation(ctx context.Context, actor *auth.Identity, orderID uuid.UUID, input ScheduleInput) (*OrderView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var view OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := lockOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, order.ID, map[string]any{
			"req_date": strings.TrimSpace(input.Date),
			"req_time": strings.TrimSpace(input.Time),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update consultation slot")
		}
		if input.ConversationID != nil && *input.ConversationID != uuid.Nil {
			if _, err := repo.AttachConversation(ctx, order.ID, *input.ConversationID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach conversation")
			}
		}
		updated, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		view = toView(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.orderContext(ctx, &view), "order.consultation_scheduled")
	return &view, nil
}

// Status reports the newest order between the provider and listing.
func (s *service) Status(ctx context.Context, actor *auth.Identity, providerID uuid.UUID, listingID *uuid.UUID) (*StatusView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "providerId is required")
	}
	order, err := s.repo.FindLatestForPair(ctx, providerID, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &StatusView{Found: false, Status: statusNone, Ack: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order status")
	}
	updatedAt := order.UpdatedAt
	return &StatusView{
		Found:          true,
		Status:         string(order.Status),
		Ack:            order.ReqAck,
		ConversationID: order.ConversationID,
		UpdatedAt:      &updatedAt,
	}, nil
}

// ListMine returns the caller's orders. Orders without an account link are
// matched on the caller's name or email.
func (s *service) ListMine(ctx context.Context, actor *auth.Identity) ([]MineView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForAccount(ctx, actor.AccountID, matchNames(actor))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]MineView, 0, len(rows))
	for i := range rows {
		name := rows[i].ProviderName
		if strings.TrimSpace(name) == "" {
			name = defaultProviderName
		}
		out = append(out, MineView{OrderView: toView(&rows[i].Order), ProviderName: name})
	}
	return out, nil
}

// ListForTrader returns every order for admins and the provider's own orders
// for traders.
func (s *service) ListForTrader(ctx context.Context, actor *auth.Identity) ([]OrderView, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	var scope *uuid.UUID
	if !actor.IsAdmin() {
		if actor.ProviderID == nil {
			return []OrderView{}, nil
		}
		scope = actor.ProviderID
	}
	rows, err := s.repo.ListByProvider(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderView, 0, len(rows))
	for i := range rows {
		out = append(out, toView(&rows[i]))
	}
	return out, nil
}

// resolveTarget validates the provider and optional listing. The provider may
// be inferred from the listing.
func (s *service) resolveTarget(ctx context.Context, tx *gorm.DB, providerID uuid.UUID, listingID *uuid.UUID) (uuid.UUID, *models.Listing, error) {
	var listing *models.Listing
	if listingID != nil && *listingID != uuid.Nil {
		found, err := s.listings.FindListing(ctx, tx, *listingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if providerID == uuid.Nil {
			providerID = found.ProviderID
		}
		if found.ProviderID != providerID {
			return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "listing does not belong to provider")
		}
		listing = found
	}
	if providerID == uuid.Nil {
		return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "providerId is required")
	}
	ok, err := s.providers.Exists(ctx, tx, providerID)
	if err != nil {
		return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if !ok {
		return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
	}
	return providerID, listing, nil
}

func (s *service) orderContext(ctx context.Context, view *OrderView) context.Context {
	ctx = s.logg.WithOrderID(ctx, view.ID.String())
	return s.logg.WithProviderID(ctx, view.ProviderID.String())
}

func lockOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func checkoutAmount(listing *models.Listing, requested *decimal.Decimal) (decimal.Decimal, error) {
	if listing != nil && listing.Price.IsPositive() {
		return listing.Price, nil
	}
	if requested != nil && requested.IsPositive() {
		return *requested, nil
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
}

func serviceTitle(requested string, listing *models.Listing) string {
	if title := strings.TrimSpace(requested); title != "" {
		return title
	}
	if listing != nil && strings.TrimSpace(listing.Title) != "" {
		return listing.Title
	}
	return defaultService
}

func displayName(actor *auth.Identity) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(actor.Email); email != "" {
		return email
	}
	return defaultCustomerName
}

func matchNames(actor *auth.Identity) []string {
	var names []string
	seen := map[string]bool{}
	for _, candidate := range []string{actor.Name, actor.Email} {
		value := strings.ToLower(strings.TrimSpace(candidate))
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		names = append(names, value)
	}
	return names
}

func requireActor(actor *auth.Identity) error {
	if actor == nil || actor.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func requireManager(actor *auth.Identity) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.Role.CanManageOrders() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "trader or admin role required")
	}
	return nil
}

// ensureOwner lets admins act on any order and traders only on their own.
func ensureOwner(actor *auth.Identity, order *models.Order) error {
	if actor.IsAdmin() || actor.OwnsProvider(order.ProviderID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another provider")
}

func actorRef(actor *auth.Identity) *outbox.ActorRef {
	if actor == nil || actor.AccountID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{AccountID: actor.AccountID, Role: string(actor.Role)}
}
