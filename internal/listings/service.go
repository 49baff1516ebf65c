package listings

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
)

// Service exposes listing catalog CRUD.
type Service interface {
	List(ctx context.Context, providerID *uuid.UUID) ([]ListingDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ListingDTO, error)
	Create(ctx context.Context, actor *auth.Identity, input CreateListingInput) (*ListingDTO, error)
	Update(ctx context.Context, actor *auth.Identity, id uuid.UUID, input UpdateListingInput) (*ListingDTO, error)
	Delete(ctx context.Context, actor *auth.Identity, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, providerID *uuid.UUID) ([]ListingDTO, error) {
	rows, err := s.repo.List(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}
	out := make([]ListingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ListingDTO, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(listing)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actor *auth.Identity, input CreateListingInput) (*ListingDTO, error) {
	if actor == nil || actor.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	var providerID uuid.UUID
	switch {
	case actor.IsAdmin() && input.ProviderID != nil:
		providerID = *input.ProviderID
	case actor.ProviderID != nil:
		providerID = *actor.ProviderID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "provider profile required")
	}

	status, err := enums.ParseListingStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	price := decimal.Zero
	if input.Price != nil {
		price = *input.Price
	}
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	listing, err := s.repo.Create(ctx, &models.Listing{
		ID:          uuid.New(),
		ProviderID:  providerID,
		Title:       titleOrDefault(input.Title),
		Description: strings.TrimSpace(input.Description),
		Price:       price,
		Status:      status,
		Tags:        NormalizeTags(input.Tags),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	dto := FromModel(listing)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor *auth.Identity, id uuid.UUID, input UpdateListingInput) (*ListingDTO, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureCanManage(actor, listing); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = titleOrDefault(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = *input.Price
	}
	if input.Status != nil {
		status, err := enums.ParseListingStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		updates["status"] = status
	}
	if input.Tags != nil {
		updates["tags"] = NormalizeTags(*input.Tags)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}
	return s.Get(ctx, id)
}

// Delete removes the listing. Orders keep their denormalized listing id.
func (s *service) Delete(ctx context.Context, actor *auth.Identity, id uuid.UUID) error {
	listing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := ensureCanManage(actor, listing); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete listing")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return listing, nil
}

func ensureCanManage(actor *auth.Identity, listing *models.Listing) error {
	if actor == nil || actor.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.IsAdmin() || actor.OwnsProvider(listing.ProviderID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another provider")
}
