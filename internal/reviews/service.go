package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// ProviderRater is the slice of the provider directory that owns the rating.
type ProviderRater interface {
	LockForRating(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (*models.Provider, error)
	SetRating(ctx context.Context, tx *gorm.DB, providerID uuid.UUID, rating decimal.Decimal) error
}

// Service records reviews and keeps the provider rating equal to their mean.
type Service interface {
	SubmitForOrder(ctx context.Context, actor *auth.Identity, orderID uuid.UUID, input SubmitInput) (*Result, error)
	SubmitForProvider(ctx context.Context, actor *auth.Identity, providerID uuid.UUID, input SubmitInput) (*Result, error)
	List(ctx context.Context, providerID uuid.UUID) ([]ReviewDTO, error)
}

// ServiceParams bundles the review engine dependencies. Metrics are optional.
type ServiceParams struct {
	Repo      *Repository
	Tx        txRunner
	Providers ProviderRater
	Outbox    outbox.Emitter
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      *Repository
	tx        txRunner
	providers ProviderRater
	outbox    outbox.Emitter
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Providers == nil {
		return nil, fmt.Errorf("provider rater required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		providers: params.Providers,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// SubmitForOrder reviews the provider the order was placed with.
func (s *service) SubmitForOrder(ctx context.Context, actor *auth.Identity, orderID uuid.UUID, input SubmitInput) (*Result, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	resolve := func(ctx context.Context, tx *gorm.DB) (uuid.UUID, error) {
		providerID, err := s.repo.WithTx(tx).OrderProvider(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if providerID == uuid.Nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no provider")
		}
		return providerID, nil
	}
	return s.submit(ctx, actor, &orderID, input, resolve)
}

// SubmitForProvider reviews a provider directly.
func (s *service) SubmitForProvider(ctx context.Context, actor *auth.Identity, providerID uuid.UUID, input SubmitInput) (*Result, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	resolve := func(context.Context, *gorm.DB) (uuid.UUID, error) {
		return providerID, nil
	}
	return s.submit(ctx, actor, nil, input, resolve)
}

func (s *service) submit(
	ctx context.Context,
	actor *auth.Identity,
	orderID *uuid.UUID,
	input SubmitInput,
	resolve func(ctx context.Context, tx *gorm.DB) (uuid.UUID, error),
) (*Result, error) {
	rating := ClampRating(input.Rating)

	var result Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		providerID, err := resolve(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := s.providers.LockForRating(ctx, tx, providerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock provider")
		}

		repo := s.repo.WithTx(tx)
		accountID := actor.AccountID
		review := &models.ProviderReview{
			ID:         uuid.New(),
			ProviderID: providerID,
			OrderID:    orderID,
			AccountID:  &accountID,
			Author:     authorName(actor),
			Rating:     rating,
			Text:       strings.TrimSpace(input.Text),
		}
		if err := repo.Create(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}

		count, total, err := repo.Totals(ctx, providerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate reviews")
		}
		mean := Mean(total, count)
		if err := s.providers.SetRating(ctx, tx, providerID, mean); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update provider rating")
		}

		result = Result{
			ReviewID:       review.ID,
			ProviderID:     providerID,
			Rating:         rating,
			ProviderRating: mean,
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{AccountID: actor.AccountID, Role: string(actor.Role)},
			Data: payloads.ReviewSubmittedEvent{
				ReviewID:   review.ID,
				ProviderID: providerID,
				OrderID:    orderID,
				Rating:     rating,
				NewMean:    mean,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncReview()
	logCtx := s.logg.WithFields(s.logg.WithProviderID(ctx, result.ProviderID.String()), map[string]any{
		"review_id":       result.ReviewID.String(),
		"rating":          result.Rating,
		"provider_rating": result.ProviderRating.String(),
	})
	s.logg.Info(logCtx, "review.recorded")
	return &result, nil
}

func (s *service) List(ctx context.Context, providerID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func authorName(actor *auth.Identity) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(actor.Email); email != "" {
		return email
	}
	return defaultAuthor
}

func requireActor(actor *auth.Identity) error {
	if actor == nil || actor.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}
