package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/internal/accounts"
	"github.com/law23sum/trader-exchange/pkg/auth"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
	"github.com/law23sum/trader-exchange/pkg/logger"
	"github.com/law23sum/trader-exchange/pkg/outbox"
	"github.com/law23sum/trader-exchange/pkg/outbox/payloads"
)

var defaultRating = decimal.NewFromInt(5)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type listingLister interface {
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Listing, error)
}

type interactionRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, accountID, providerID uuid.UUID, kind enums.InteractionKind) error
}

// Service exposes provider directory operations.
type Service interface {
	List(ctx context.Context) ([]ProviderDTO, error)
	Detail(ctx context.Context, viewer *auth.Identity, id uuid.UUID) (*ProviderDetail, error)
	Profile(ctx context.Context, actor *auth.Identity) (*ProviderDTO, error)
	SaveProfile(ctx context.Context, actor *auth.Identity, input ProfileInput) (*ProviderDTO, error)
	BecomeProvider(ctx context.Context, accountID uuid.UUID, name string) (*BecomeProviderResult, error)
}

// ServiceParams bundles the dependencies required to build a provider service.
type ServiceParams struct {
	Repo         *Repository
	Accounts     accounts.Store
	Listings     listingLister
	Interactions interactionRecorder
	Tx           txRunner
	Outbox       outbox.Emitter
	Logger       *logger.Logger
}

type service struct {
	repo         *Repository
	accounts     accounts.Store
	listings     listingLister
	interactions interactionRecorder
	tx           txRunner
	outbox       outbox.Emitter
	logg         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("providers repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("listing lister required")
	}
	if params.Interactions == nil {
		return nil, fmt.Errorf("interaction recorder required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         params.Repo,
		accounts:     params.Accounts,
		listings:     params.Listings,
		interactions: params.Interactions,
		tx:           params.Tx,
		outbox:       params.Outbox,
		logg:         params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context) ([]ProviderDTO, error) {
	rows, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list providers")
	}
	out := make([]ProviderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Detail(ctx context.Context, viewer *auth.Identity, id uuid.UUID) (*ProviderDetail, error) {
	provider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	listings, err := s.listings.ListByProvider(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list provider listings")
	}

	if viewer != nil && viewer.AccountID != uuid.Nil {
		if err := s.interactions.Record(ctx, nil, viewer.AccountID, id, enums.InteractionKindView); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"provider_id": id.String(), "error": err.Error()})
			s.logg.Warn(logCtx, "provider.view_not_recorded")
		}
	}

	detail := &ProviderDetail{
		Provider: FromModel(provider),
		Listings: make([]ListingSummary, 0, len(listings)),
	}
	for _, l := range listings {
		detail.Listings = append(detail.Listings, listingSummaryFromModel(l))
	}
	return detail, nil
}

func (s *service) Profile(ctx context.Context, actor *auth.Identity) (*ProviderDTO, error) {
	providerID, err := actorProvider(actor)
	if err != nil {
		return nil, err
	}
	provider, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider profile")
	}
	dto := FromModel(provider)
	return &dto, nil
}

func (s *service) SaveProfile(ctx context.Context, actor *auth.Identity, input ProfileInput) (*ProviderDTO, error) {
	providerID, err := actorProvider(actor)
	if err != nil {
		return nil, err
	}
	if input.HourlyRate != nil && input.HourlyRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hourlyRate must not be negative")
	}
	if err := s.repo.UpdateProfile(ctx, providerID, input.updates()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save provider profile")
	}
	return s.Profile(ctx, actor)
}

// BecomeProvider links a provider to the account, creating it on first call.
// Repeated calls only re-affirm the TRADER role.
func (s *service) BecomeProvider(ctx context.Context, accountID uuid.UUID, name string) (*BecomeProviderResult, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing")
	}

	var result BecomeProviderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		accountsRepo := s.accounts.WithTx(tx)
		repo := s.repo.WithTx(tx)

		account, err := accountsRepo.FindByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
		}

		provider, err := s.existingProvider(ctx, repo, account)
		if err != nil {
			return err
		}
		if provider == nil {
			provider, result.Created, err = repo.CreateForAccount(ctx, &models.Provider{
				ID:        uuid.New(),
				AccountID: &account.ID,
				Name:      providerName(name, account),
				Rating:    defaultRating,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create provider")
			}
		}

		if err := accountsRepo.LinkProvider(ctx, account.ID, provider.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link provider")
		}
		account, err = accountsRepo.FindByID(ctx, account.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload account")
		}
		result.Account = account
		result.Provider = provider

		if !result.Created {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProviderCreated,
			AggregateType: enums.AggregateProvider,
			AggregateID:   provider.ID,
			Actor:         &outbox.ActorRef{AccountID: account.ID, Role: string(account.Role)},
			Data: payloads.ProviderCreatedEvent{
				ProviderID: provider.ID,
				AccountID:  account.ID,
				Name:       provider.Name,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"account_id":  accountID.String(),
			"provider_id": result.Provider.ID.String(),
		})
		s.logg.Info(logCtx, "provider.created")
	}
	return &result, nil
}

func (s *service) existingProvider(ctx context.Context, repo *Repository, account *models.Account) (*models.Provider, error) {
	if account.ProviderID != nil {
		provider, err := repo.FindByID(ctx, *account.ProviderID)
		if err == nil {
			return provider, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load linked provider")
		}
	}
	provider, err := repo.FindByAccountID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider by account")
	}
	return provider, nil
}

func providerName(requested string, account *models.Account) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	if name := strings.TrimSpace(account.Name); name != "" {
		return name
	}
	return accounts.DefaultName(account.Email)
}

func actorProvider(actor *auth.Identity) (uuid.UUID, error) {
	if actor == nil || actor.AccountID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.ProviderID == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider profile not found")
	}
	return *actor.ProviderID, nil
}
