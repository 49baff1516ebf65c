package providers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/db/models"
)

// Directory exposes the provider aggregate fields to the order and review
// engines. Every call runs on the caller's transaction.
type Directory struct {
	repo *Repository
}

func NewDirectory(repo *Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) Exists(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (bool, error) {
	_, err := d.repo.WithTx(tx).FindByID(ctx, providerID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// IncrementJobs is the only writer of Provider.Jobs.
func (d *Directory) IncrementJobs(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (int64, error) {
	return d.repo.WithTx(tx).IncrementJobs(ctx, providerID)
}

// LockForRating holds the provider row until tx ends so concurrent reviews
// recompute the mean one at a time.
func (d *Directory) LockForRating(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (*models.Provider, error) {
	return d.repo.WithTx(tx).FindByIDForUpdate(ctx, providerID)
}

// SetRating is the only writer of Provider.Rating.
func (d *Directory) SetRating(ctx context.Context, tx *gorm.DB, providerID uuid.UUID, rating decimal.Decimal) error {
	return d.repo.WithTx(tx).UpdateRating(ctx, providerID, rating)
}
