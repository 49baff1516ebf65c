package favorites

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/auth"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
)

type providerChecker interface {
	Exists(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (bool, error)
}

// Service exposes favorites and history for the calling account.
type Service interface {
	Add(ctx context.Context, actor *auth.Identity, providerID uuid.UUID) error
	Remove(ctx context.Context, actor *auth.Identity, providerID uuid.UUID) error
	List(ctx context.Context, actor *auth.Identity) ([]FavoriteDTO, error)
	History(ctx context.Context, actor *auth.Identity) ([]InteractionDTO, error)
}

type service struct {
	repo      *Repository
	providers providerChecker
}

func NewService(repo *Repository, providers providerChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("favorites repository required")
	}
	if providers == nil {
		return nil, fmt.Errorf("provider checker required")
	}
	return &service{repo: repo, providers: providers}, nil
}

// Add validates the provider and records the favorite. Repeated adds are no-ops.
func (s *service) Add(ctx context.Context, actor *auth.Identity, providerID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if providerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider id is required")
	}
	ok, err := s.providers.Exists(ctx, nil, providerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
	}
	if err := s.repo.Add(ctx, actor.AccountID, providerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add favorite")
	}
	return nil
}

// Remove drops the favorite regardless of prior state.
func (s *service) Remove(ctx context.Context, actor *auth.Identity, providerID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, actor.AccountID, providerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	return nil
}

func (s *service) List(ctx context.Context, actor *auth.Identity) ([]FavoriteDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListRanked(ctx, actor.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	if rows == nil {
		rows = []FavoriteDTO{}
	}
	return rows, nil
}

func (s *service) History(ctx context.Context, actor *auth.Identity) ([]InteractionDTO, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListHistory(ctx, actor.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}
	if rows == nil {
		rows = []InteractionDTO{}
	}
	return rows, nil
}

func requireActor(actor *auth.Identity) error {
	if actor == nil || actor.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}
